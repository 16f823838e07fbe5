// Package postgres provides PostgreSQL implementations of the store
// interfaces. All stores accept a store.DBTX so they work identically
// against a *sql.DB or a *sql.Tx, and map driver errors onto the store
// package's sentinel errors via MapError.
package postgres
