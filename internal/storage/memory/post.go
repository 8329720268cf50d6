package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/post"
	"github.com/VitaminP8/forumly/models"
)

type PostMemoryStorage struct {
	mu          sync.Mutex
	posts       map[uint]*models.Post
	replies     map[uint][]*models.Reply // postID -> ответы в порядке создания
	likes       map[uint]map[uint]bool   // postID -> множество userID
	users       *UserMemoryStorage
	nextPostID  uint
	nextReplyID uint
}

func NewPostMemoryStorage(users *UserMemoryStorage) *PostMemoryStorage {
	return &PostMemoryStorage{
		posts:       make(map[uint]*models.Post),
		replies:     make(map[uint][]*models.Reply),
		likes:       make(map[uint]map[uint]bool),
		users:       users,
		nextPostID:  1,
		nextReplyID: 1,
	}
}

func (s *PostMemoryStorage) CreatePost(ctx context.Context, title, content string) (*api.Post, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	// имя автора берем до захвата мьютекса — у user-хранилища свой лок
	authorName := s.users.usernameByID(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextPostID
	s.nextPostID++

	p := &models.Post{
		Title:   title,
		Content: content,
		UserID:  userID,
	}
	p.ID = id
	p.CreatedAt = time.Now()

	s.posts[id] = p
	s.likes[id] = make(map[uint]bool)

	return toAPIPost(p, authorName), nil
}

func (s *PostMemoryStorage) GetPostByID(id uint) (*api.Post, []*api.Reply, error) {
	s.mu.Lock()
	p, exists := s.posts[id]
	if !exists {
		s.mu.Unlock()
		return nil, nil, post.ErrPostNotFound
	}
	postCopy := *p
	repliesCopy := make([]*models.Reply, len(s.replies[id]))
	copy(repliesCopy, s.replies[id])
	s.mu.Unlock()

	apiReplies := make([]*api.Reply, 0, len(repliesCopy))
	for _, r := range repliesCopy {
		apiReplies = append(apiReplies, toAPIReply(r, s.users.usernameByID(r.UserID)))
	}

	return toAPIPost(&postCopy, s.users.usernameByID(postCopy.UserID)), apiReplies, nil
}

func (s *PostMemoryStorage) ListPosts(limit int) ([]*api.Post, error) {
	s.mu.Lock()
	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p)
	}
	s.mu.Unlock()

	// новые сверху; при равном времени — по убыванию ID
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	results := make([]*api.Post, 0, len(posts))
	for i := range posts {
		results = append(results, toAPIPost(&posts[i], s.users.usernameByID(posts[i].UserID)))
	}

	return results, nil
}

func (s *PostMemoryStorage) CreateReply(ctx context.Context, postID uint, content string) (*api.Reply, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}

	authorName := s.users.usernameByID(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[postID]; !exists {
		return nil, post.ErrPostNotFound
	}

	id := s.nextReplyID
	s.nextReplyID++

	r := &models.Reply{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	r.ID = id
	r.CreatedAt = time.Now()

	s.replies[postID] = append(s.replies[postID], r)

	return toAPIReply(r, authorName), nil
}

// ToggleLike атомарен за счет мьютекса: множество лайков и счетчик
// меняются под одним локом и разойтись не могут.
func (s *PostMemoryStorage) ToggleLike(ctx context.Context, postID uint) (bool, int, error) {
	userID, err := auth.GetUserIDFromContext(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("unauthorized: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.posts[postID]
	if !exists {
		return false, 0, post.ErrPostNotFound
	}

	liked := false
	if s.likes[postID][userID] {
		delete(s.likes[postID], userID)
	} else {
		s.likes[postID][userID] = true
		liked = true
	}

	p.LikesCount = len(s.likes[postID])
	return liked, p.LikesCount, nil
}

func toAPIPost(p *models.Post, authorName string) *api.Post {
	return &api.Post{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.UserID,
		AuthorName: authorName,
		LikesCount: p.LikesCount,
		CreatedAt:  p.CreatedAt,
	}
}

func toAPIReply(r *models.Reply, authorName string) *api.Reply {
	return &api.Reply{
		ID:         r.ID,
		PostID:     r.PostID,
		AuthorID:   r.UserID,
		AuthorName: authorName,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}
