package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/post"
	"github.com/VitaminP8/forumly/models"
	"github.com/jinzhu/gorm"
)

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

func (s *PostPostgresStorage) CreatePost(ctx context.Context, title, content string) (*api.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	newPost := &models.Post{
		Title:   title,
		Content: content,
		UserID:  userID,
	}

	err = DB.Create(newPost).Error
	if err != nil {
		return nil, fmt.Errorf("could not create post: %w", err)
	}

	names, err := usernamesByID([]uint{userID})
	if err != nil {
		return nil, err
	}

	return toAPIPost(newPost, names), nil
}

func (s *PostPostgresStorage) GetPostByID(id uint) (*api.Post, []*api.Reply, error) {
	var p models.Post
	err := DB.First(&p, id).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil, post.ErrPostNotFound
		}
		return nil, nil, fmt.Errorf("could not get post by id: %w", err)
	}

	var replies []models.Reply
	err = DB.Where("post_id = ?", p.ID).Order("created_at ASC").Find(&replies).Error
	if err != nil {
		return nil, nil, fmt.Errorf("could not get replies: %w", err)
	}

	ids := []uint{p.UserID}
	for _, r := range replies {
		ids = append(ids, r.UserID)
	}
	names, err := usernamesByID(ids)
	if err != nil {
		return nil, nil, err
	}

	apiReplies := make([]*api.Reply, 0, len(replies))
	for i := range replies {
		apiReplies = append(apiReplies, toAPIReply(&replies[i], names))
	}

	return toAPIPost(&p, names), apiReplies, nil
}

func (s *PostPostgresStorage) ListPosts(limit int) ([]*api.Post, error) {
	var posts []models.Post
	err := DB.Order("created_at DESC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}
	names, err := usernamesByID(ids)
	if err != nil {
		return nil, err
	}

	results := make([]*api.Post, 0, len(posts))
	for i := range posts {
		results = append(results, toAPIPost(&posts[i], names))
	}

	return results, nil
}

func (s *PostPostgresStorage) CreateReply(ctx context.Context, postID uint, content string) (*api.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	var p models.Post
	err = DB.First(&p, postID).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, post.ErrPostNotFound
		}
		return nil, fmt.Errorf("could not get post: %w", err)
	}

	reply := &models.Reply{
		PostID:  p.ID,
		UserID:  userID,
		Content: content,
	}

	err = DB.Create(reply).Error
	if err != nil {
		return nil, fmt.Errorf("could not create reply: %w", err)
	}

	names, err := usernamesByID([]uint{userID})
	if err != nil {
		return nil, err
	}

	return toAPIReply(reply, names), nil
}

// ToggleLike снимает или ставит лайк. Строка в likes и счетчик likes_count
// меняются в одной транзакции, уникальный индекс (user_id, post_id)
// защищает от двойного инкремента при повторной отправке.
func (s *PostPostgresStorage) ToggleLike(ctx context.Context, postID uint) (bool, int, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("unauthorized: %w", err)
	}

	var p models.Post
	err = DB.First(&p, postID).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return false, 0, post.ErrPostNotFound
		}
		return false, 0, fmt.Errorf("could not get post: %w", err)
	}

	tx := DB.Begin()
	if tx.Error != nil {
		return false, 0, fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	liked := false
	res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
	if res.Error != nil {
		tx.Rollback()
		return false, 0, fmt.Errorf("could not remove like: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		err = tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("likes_count", gorm.Expr("likes_count - 1")).Error
		if err != nil {
			tx.Rollback()
			return false, 0, fmt.Errorf("could not decrement likes: %w", err)
		}
	} else {
		err = tx.Create(&models.Like{UserID: userID, PostID: postID}).Error
		if err != nil {
			tx.Rollback()
			return false, 0, fmt.Errorf("could not add like: %w", err)
		}
		err = tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error
		if err != nil {
			tx.Rollback()
			return false, 0, fmt.Errorf("could not increment likes: %w", err)
		}
		liked = true
	}

	// счетчик читаем внутри транзакции, чтобы ответ был согласован
	// с только что выполненным переключением
	var refreshed models.Post
	err = tx.First(&refreshed, postID).Error
	if err != nil {
		tx.Rollback()
		return false, 0, fmt.Errorf("could not reload post: %w", err)
	}

	if err = tx.Commit().Error; err != nil {
		return false, 0, fmt.Errorf("could not commit like toggle: %w", err)
	}

	return liked, refreshed.LikesCount, nil
}

// usernamesByID загружает имена авторов одним запросом
func usernamesByID(ids []uint) (map[uint]string, error) {
	names := make(map[uint]string)
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	err := DB.Where("id IN (?)", ids).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("could not resolve authors: %w", err)
	}

	for _, u := range users {
		names[u.ID] = u.Username
	}

	return names, nil
}

func toAPIPost(p *models.Post, names map[uint]string) *api.Post {
	return &api.Post{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.UserID,
		AuthorName: names[p.UserID],
		LikesCount: p.LikesCount,
		CreatedAt:  p.CreatedAt,
	}
}

func toAPIReply(r *models.Reply, names map[uint]string) *api.Reply {
	return &api.Reply{
		ID:         r.ID,
		PostID:     r.PostID,
		AuthorID:   r.UserID,
		AuthorName: names[r.UserID],
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}
