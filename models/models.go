package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Username         string `gorm:"unique"`
	Email            string `gorm:"unique"`
	Password         string
	Role             string `gorm:"default:'user'"`
	BadgeID          *uint
	Badge            *Badge
	IsVerified       bool
	ResetToken       *string `gorm:"index"`
	ResetTokenExpire *time.Time
	Posts            []Post  `gorm:"foreignkey:UserID"`
	Replies          []Reply `gorm:"foreignkey:UserID"`
}

type Badge struct {
	gorm.Model
	Name string `gorm:"unique"`
}

type Post struct {
	gorm.Model
	Title      string
	Content    string
	UserID     uint
	LikesCount int     // денормализованный счетчик (всегда равен числу строк в likes)
	Replies    []Reply `gorm:"foreignkey:PostID"`
}

type Reply struct {
	gorm.Model
	Content string
	PostID  uint
	UserID  uint
}

// Like — связь "пользователь лайкнул пост". Составной уникальный индекс
// гарантирует не более одного лайка на пару (user, post) на уровне БД.
// Без DeletedAt: снятый лайк удаляется физически, иначе мягко удаленная
// строка продолжала бы занимать уникальный индекс и повторный лайк
// был бы невозможен.
type Like struct {
	ID        uint `gorm:"primary_key"`
	CreatedAt time.Time
	UserID    uint `gorm:"unique_index:idx_like_user_post"`
	PostID    uint `gorm:"unique_index:idx_like_user_post"`
}
