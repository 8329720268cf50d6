package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/user"
	"github.com/VitaminP8/forumly/models"

	"golang.org/x/crypto/bcrypt"
)

type UserMemoryStorage struct {
	mu      sync.Mutex
	users   map[uint]*models.User
	byEmail map[string]uint
	byName  map[string]uint
	badges  map[uint]*models.Badge
	nextID  uint
}

func NewUserMemoryStorage(badgeNames ...string) *UserMemoryStorage {
	s := &UserMemoryStorage{
		users:   make(map[uint]*models.User),
		byEmail: make(map[string]uint),
		byName:  make(map[string]uint),
		badges:  make(map[uint]*models.Badge),
		nextID:  1,
	}

	for i, name := range badgeNames {
		id := uint(i + 1)
		badge := &models.Badge{Name: name}
		badge.ID = id
		s.badges[id] = badge
	}

	return s
}

func (s *UserMemoryStorage) RegisterUser(username, email, password string) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[username]; exists {
		return nil, user.ErrUserExists
	}
	if _, exists := s.byEmail[email]; exists {
		return nil, user.ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id := s.nextID
	s.nextID++

	u := &models.User{
		Username:   username,
		Email:      email,
		Password:   string(hashedPassword),
		Role:       models.RoleUser,
		IsVerified: false,
	}
	u.ID = id
	u.CreatedAt = time.Now()

	s.users[id] = u
	s.byEmail[email] = id
	s.byName[username] = id

	return s.toAPIUser(u), nil
}

func (s *UserMemoryStorage) AuthenticateUser(email, password string) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byEmail[email]
	if !exists {
		return nil, user.ErrInvalidCredentials
	}
	u := s.users[id]

	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	if !u.IsVerified {
		return nil, user.ErrNotVerified
	}

	return s.toAPIUser(u), nil
}

func (s *UserMemoryStorage) MarkVerified(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byEmail[email]
	if !exists {
		return user.ErrUserNotFound
	}

	s.users[id].IsVerified = true
	return nil
}

func (s *UserMemoryStorage) SetResetToken(email, token string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byEmail[email]
	if !exists {
		return user.ErrUserNotFound
	}

	u := s.users[id]
	u.ResetToken = &token
	u.ResetTokenExpire = &expire
	return nil
}

func (s *UserMemoryStorage) ResetPassword(token, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *models.User
	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpire != nil && u.ResetTokenExpire.After(time.Now()) {
			target = u
			break
		}
	}
	if target == nil {
		return user.ErrResetTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// токен одноразовый — очищаем вместе со сменой пароля
	target.Password = string(hashedPassword)
	target.ResetToken = nil
	target.ResetTokenExpire = nil
	return nil
}

func (s *UserMemoryStorage) GetUserByID(id uint) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[id]
	if !exists {
		return nil, user.ErrUserNotFound
	}

	return s.toAPIUser(u), nil
}

func (s *UserMemoryStorage) GrantBadge(userID, badgeID uint) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	badge, exists := s.badges[badgeID]
	if !exists {
		return nil, user.ErrBadgeNotFound
	}

	u, exists := s.users[userID]
	if !exists {
		return nil, user.ErrUserNotFound
	}

	id := badge.ID
	u.BadgeID = &id
	return s.toAPIUser(u), nil
}

func (s *UserMemoryStorage) ListUsers(limit int) ([]*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	results := make([]*api.User, 0, len(ids))
	for _, id := range ids {
		results = append(results, s.toAPIUser(s.users[id]))
	}

	return results, nil
}

// SetRole напрямую меняет роль (нужно для поднятия админа в тестах и dev-режиме)
func (s *UserMemoryStorage) SetRole(userID uint, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[userID]
	if !exists {
		return user.ErrUserNotFound
	}

	u.Role = role
	return nil
}

// usernameByID используется post-хранилищем для имен авторов
func (s *UserMemoryStorage) usernameByID(id uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[id]
	if !exists {
		return ""
	}
	return u.Username
}

// вызывается только под мьютексом
func (s *UserMemoryStorage) toAPIUser(u *models.User) *api.User {
	result := &api.User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
	if u.BadgeID != nil {
		if badge, ok := s.badges[*u.BadgeID]; ok {
			name := badge.Name
			result.Badge = &name
		}
	}
	return result
}
