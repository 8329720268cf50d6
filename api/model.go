package api

import "time"

// User — безопасная проекция пользователя (без пароля и reset-токена)
type User struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Badge      *string   `json:"badge"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Post struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   uint      `json:"authorId"`
	AuthorName string    `json:"authorName"`
	LikesCount int       `json:"likesCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Reply struct {
	ID         uint      `json:"id"`
	PostID     uint      `json:"postId"`
	AuthorID   uint      `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
