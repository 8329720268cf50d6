package postgres

import (
	"fmt"
	"time"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/user"
	"github.com/VitaminP8/forumly/models"
	"github.com/jinzhu/gorm"

	"golang.org/x/crypto/bcrypt"
)

type UserPostgresStorage struct{}

func NewUserPostgresStorage() *UserPostgresStorage {
	return &UserPostgresStorage{}
}

func (s *UserPostgresStorage) RegisterUser(username, email, password string) (*api.User, error) {
	// проверка - существует ли такой пользователь
	var existUser models.User
	err := DB.Where("username = ? OR email = ?", username, email).First(&existUser).Error
	if err == nil {
		return nil, user.ErrUserExists
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &models.User{
		Username:   username,
		Email:      email,
		Password:   string(hashedPassword),
		Role:       models.RoleUser,
		IsVerified: false,
	}

	err = DB.Create(newUser).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toAPIUser(newUser), nil
}

func (s *UserPostgresStorage) AuthenticateUser(email, password string) (*api.User, error) {
	var u models.User
	err := DB.Preload("Badge").Where("email = ?", email).First(&u).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			// неизвестный email и неверный пароль неразличимы для клиента
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	if !u.IsVerified {
		return nil, user.ErrNotVerified
	}

	return toAPIUser(&u), nil
}

func (s *UserPostgresStorage) MarkVerified(email string) error {
	var u models.User
	err := DB.Where("email = ?", email).First(&u).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	// повторная верификация до истечения токена — no-op
	if u.IsVerified {
		return nil
	}

	err = DB.Model(&u).Update("is_verified", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	return nil
}

func (s *UserPostgresStorage) SetResetToken(email, token string, expire time.Time) error {
	var u models.User
	err := DB.Where("email = ?", email).First(&u).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	err = DB.Model(&u).Updates(map[string]interface{}{
		"reset_token":        token,
		"reset_token_expire": expire,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return nil
}

func (s *UserPostgresStorage) ResetPassword(token, newPassword string) error {
	var u models.User
	err := DB.Where("reset_token = ? AND reset_token_expire > ?", token, time.Now()).First(&u).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return user.ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to find user by reset token: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// пароль и очистка токена одним UPDATE — токен одноразовый
	err = DB.Model(&u).Updates(map[string]interface{}{
		"password":           string(hashedPassword),
		"reset_token":        gorm.Expr("NULL"),
		"reset_token_expire": gorm.Expr("NULL"),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return nil
}

func (s *UserPostgresStorage) GetUserByID(id uint) (*api.User, error) {
	var u models.User
	err := DB.Preload("Badge").First(&u, id).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return toAPIUser(&u), nil
}

func (s *UserPostgresStorage) GrantBadge(userID, badgeID uint) (*api.User, error) {
	var badge models.Badge
	err := DB.First(&badge, badgeID).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, user.ErrBadgeNotFound
		}
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}

	var u models.User
	err = DB.First(&u, userID).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = DB.Model(&u).Update("badge_id", badge.ID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to grant badge: %w", err)
	}

	u.Badge = &badge
	return toAPIUser(&u), nil
}

func (s *UserPostgresStorage) ListUsers(limit int) ([]*api.User, error) {
	var users []models.User
	err := DB.Preload("Badge").Order("id ASC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	results := make([]*api.User, 0, len(users))
	for i := range users {
		results = append(results, toAPIUser(&users[i]))
	}

	return results, nil
}

// EnsureDefaultBadges создает стартовый набор бейджей (идемпотентно)
func EnsureDefaultBadges(names ...string) error {
	for _, name := range names {
		var badge models.Badge
		err := DB.FirstOrCreate(&badge, models.Badge{Name: name}).Error
		if err != nil {
			return fmt.Errorf("failed to seed badge %s: %w", name, err)
		}
	}
	return nil
}

func toAPIUser(u *models.User) *api.User {
	result := &api.User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
	if u.Badge != nil {
		name := u.Badge.Name
		result.Badge = &name
	}
	return result
}
