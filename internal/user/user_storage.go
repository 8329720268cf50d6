package user

import (
	"errors"
	"time"

	"github.com/VitaminP8/forumly/api"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email is not verified")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or expired")
	ErrBadgeNotFound      = errors.New("badge not found")
)

type UserStorage interface {
	RegisterUser(username, email, password string) (*api.User, error)
	AuthenticateUser(email, password string) (*api.User, error)
	MarkVerified(email string) error
	SetResetToken(email, token string, expire time.Time) error
	ResetPassword(token, newPassword string) error
	GetUserByID(id uint) (*api.User, error)
	GrantBadge(userID, badgeID uint) (*api.User, error)
	ListUsers(limit int) ([]*api.User, error)
}
