package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"Admin", "Manager", "User"} {
		role, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"admin", "MANAGER", "Superuser", ""} {
		_, err := ParseRole(invalid)
		assert.ErrorIs(t, err, ErrInvalidRole, "role %q should be rejected", invalid)
	}
}

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("valid user", func(t *testing.T) {
		t.Parallel()
		user, err := NewUser("alice", "alice@example.com", "Passw0rd", RoleUser)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, RoleUser, user.Role)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		for _, email := range []string{"", "plain", "@nodomain.com", "user@", "user@nodot"} {
			_, err := NewUser("alice", email, "Passw0rd", RoleUser)
			assert.ErrorIs(t, err, ErrInvalidEmail, "email %q should be rejected", email)
		}
	})

	t.Run("rejects blank username", func(t *testing.T) {
		t.Parallel()
		_, err := NewUser("   ", "alice@example.com", "Passw0rd", RoleUser)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestValidatePasswordPolicy(t *testing.T) {
	t.Parallel()

	valid := []string{"Passw0rd", "A1bcdefg", "LongEnough123"}
	for _, password := range valid {
		assert.NoError(t, ValidatePasswordPolicy(password), "password %q should pass", password)
	}

	invalid := []string{
		"Sh0rt",        // too short
		"alllower1",    // no uppercase
		"NoDigitsHere", // no digit
		"",
	}
	for _, password := range invalid {
		assert.ErrorIs(t, ValidatePasswordPolicy(password), ErrInvalidPassword,
			"password %q should fail", password)
	}
}

func TestUserSummary(t *testing.T) {
	t.Parallel()

	user, err := NewUser("alice", "alice@example.com", "Passw0rd", RoleManager)
	require.NoError(t, err)

	summary := user.Summary()
	assert.Equal(t, user.ID, summary.ID)
	assert.Equal(t, "alice", summary.Username)
	assert.Equal(t, "alice@example.com", summary.Email)
}

func TestTeamHasMember(t *testing.T) {
	t.Parallel()

	member, err := NewUser("m", "m@example.com", "Passw0rd", RoleUser)
	require.NoError(t, err)
	manager, err := NewUser("mgr", "mgr@example.com", "Passw0rd", RoleManager)
	require.NoError(t, err)

	team, err := NewTeam("Eng", manager.ID, []uuid.UUID{member.ID})
	require.NoError(t, err)

	assert.True(t, team.HasMember(member.ID))
	assert.False(t, team.HasMember(manager.ID), "manager is not implicitly a member")
	assert.False(t, team.HasMember(uuid.New()))
}
