package memory

import (
	"testing"
	"time"

	"github.com/VitaminP8/forumly/internal/user"
	"github.com/VitaminP8/forumly/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMemoryStorage_RegisterAndAuthenticate(t *testing.T) {
	t.Run("Register, verify, login", func(t *testing.T) {
		storage := NewUserMemoryStorage()

		u, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, uint(1), u.ID)
		assert.False(t, u.IsVerified)

		// до верификации вход закрыт
		_, err = storage.AuthenticateUser("alice@example.com", "secret123")
		assert.ErrorIs(t, err, user.ErrNotVerified)

		require.NoError(t, storage.MarkVerified("alice@example.com"))

		got, err := storage.AuthenticateUser("alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("Duplicate username or email", func(t *testing.T) {
		storage := NewUserMemoryStorage()

		_, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = storage.RegisterUser("alice", "other@example.com", "secret123")
		assert.ErrorIs(t, err, user.ErrUserExists)

		_, err = storage.RegisterUser("alice2", "alice@example.com", "secret123")
		assert.ErrorIs(t, err, user.ErrUserExists)
	})

	t.Run("Unknown email and wrong password look the same", func(t *testing.T) {
		storage := NewUserMemoryStorage()

		_, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		require.NoError(t, storage.MarkVerified("alice@example.com"))

		_, errUnknown := storage.AuthenticateUser("nobody@example.com", "secret123")
		_, errWrongPass := storage.AuthenticateUser("alice@example.com", "wrong")

		assert.ErrorIs(t, errUnknown, user.ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPass, user.ErrInvalidCredentials)
	})
}

func TestUserMemoryStorage_ResetPassword(t *testing.T) {
	t.Run("Reset token is single use", func(t *testing.T) {
		storage := NewUserMemoryStorage()

		_, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		require.NoError(t, storage.MarkVerified("alice@example.com"))

		require.NoError(t, storage.SetResetToken("alice@example.com", "tok-1", time.Now().Add(time.Hour)))
		require.NoError(t, storage.ResetPassword("tok-1", "new-password"))

		_, err = storage.AuthenticateUser("alice@example.com", "new-password")
		assert.NoError(t, err)

		err = storage.ResetPassword("tok-1", "third-password")
		assert.ErrorIs(t, err, user.ErrResetTokenInvalid)
	})

	t.Run("Expired token is rejected", func(t *testing.T) {
		storage := NewUserMemoryStorage()

		_, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		require.NoError(t, storage.SetResetToken("alice@example.com", "tok-2", time.Now().Add(-time.Minute)))
		err = storage.ResetPassword("tok-2", "new-password")
		assert.ErrorIs(t, err, user.ErrResetTokenInvalid)
	})
}

func TestUserMemoryStorage_Badges(t *testing.T) {
	t.Run("Grant seeded badge", func(t *testing.T) {
		storage := NewUserMemoryStorage("bronze", "silver", "gold")

		u, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		granted, err := storage.GrantBadge(u.ID, 3)
		require.NoError(t, err)
		require.NotNil(t, granted.Badge)
		assert.Equal(t, "gold", *granted.Badge)
	})

	t.Run("Unknown badge or user", func(t *testing.T) {
		storage := NewUserMemoryStorage("bronze")

		u, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = storage.GrantBadge(u.ID, 99)
		assert.ErrorIs(t, err, user.ErrBadgeNotFound)

		_, err = storage.GrantBadge(99, 1)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestUserMemoryStorage_ListUsersAndRoles(t *testing.T) {
	storage := NewUserMemoryStorage()

	alice, err := storage.RegisterUser("alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	_, err = storage.RegisterUser("bob", "bob@example.com", "secret123")
	require.NoError(t, err)
	_, err = storage.RegisterUser("carol", "carol@example.com", "secret123")
	require.NoError(t, err)

	users, err := storage.ListUsers(2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	require.NoError(t, storage.SetRole(alice.ID, models.RoleAdmin))
	got, err := storage.GetUserByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	err = storage.SetRole(999, models.RoleAdmin)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
