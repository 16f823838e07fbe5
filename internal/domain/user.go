package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold. Authorization policy
// functions switch exhaustively on this type; unknown values always deny.
type Role string

// Possible role values.
const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleUser    Role = "User"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// ParseRole converts a string into a Role, rejecting unknown values.
// The comparison is case-sensitive; "admin" is not a valid role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", NewValidationError("role", "must be one of Admin, Manager, User", ErrInvalidRole)
	}
	return r, nil
}

// User represents a registered account. The plaintext Password field is
// transient and only populated during registration or a password change;
// it must be hashed before the record reaches a store.
type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Actor is the authenticated identity performing an operation. It carries
// only what authorization decisions need: the user's id and role.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// UserSummary is the display-safe projection of a user embedded in team
// detail responses. It never carries credentials.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Summary returns the display-safe projection of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// NewUser creates a new User with a generated ID and current timestamps.
// The password is kept in plaintext on the returned struct; the caller is
// responsible for hashing it before persistence.
func NewUser(username, email, password string, role Role) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks that the user record is internally consistent.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(u.Username) == "" {
		return NewValidationError("username", "cannot be empty", nil)
	}
	if u.Email == "" {
		return NewValidationError("email", "cannot be empty", ErrInvalidEmail)
	}
	if !validEmailFormat(u.Email) {
		return NewValidationError("email", "must be a valid email address", ErrInvalidEmail)
	}
	if !u.Role.Valid() {
		return NewValidationError("role", "must be one of Admin, Manager, User", ErrInvalidRole)
	}

	if u.Password != "" {
		if err := ValidatePasswordPolicy(u.Password); err != nil {
			return err
		}
	} else if u.HashedPassword == "" {
		return NewValidationError("password", "cannot be empty", ErrInvalidPassword)
	}

	return nil
}

// ValidatePasswordPolicy enforces the account password policy: at least
// 8 characters with one uppercase letter and one digit.
func ValidatePasswordPolicy(password string) error {
	if len(password) < 8 {
		return NewValidationError(
			"password",
			"must be at least 8 characters, with one uppercase letter and one number",
			ErrInvalidPassword,
		)
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if !hasUpper || !hasDigit {
		return NewValidationError(
			"password",
			"must be at least 8 characters, with one uppercase letter and one number",
			ErrInvalidPassword,
		)
	}
	return nil
}

// validEmailFormat performs a minimal structural check: a local part, an
// @, and a domain with at least one interior dot.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
