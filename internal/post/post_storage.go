package post

import (
	"context"
	"errors"

	"github.com/VitaminP8/forumly/api"
)

var ErrPostNotFound = errors.New("post not found")

type PostStorage interface {
	CreatePost(ctx context.Context, title, content string) (*api.Post, error)
	GetPostByID(id uint) (*api.Post, []*api.Reply, error)
	ListPosts(limit int) ([]*api.Post, error)
	CreateReply(ctx context.Context, postID uint, content string) (*api.Reply, error)
	ToggleLike(ctx context.Context, postID uint) (liked bool, likes int, err error)
}
