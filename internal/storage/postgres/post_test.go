package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/VitaminP8/forumly/internal/post"
	"github.com/VitaminP8/forumly/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostPostgresStorage_CreatePost(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Success post creation", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		ctx := createUserContext(userID)

		p, err := storage.CreatePost(ctx, "Test Title", "Test Content")
		require.NoError(t, err)
		assert.Equal(t, "Test Title", p.Title)
		assert.Equal(t, "Test Content", p.Content)
		assert.Equal(t, userID, p.AuthorID)
		assert.Equal(t, "alice", p.AuthorName)
		assert.Equal(t, 0, p.LikesCount)

		var dbPost models.Post
		err = DB.First(&dbPost, p.ID).Error
		assert.NoError(t, err)
		assert.Equal(t, "Test Title", dbPost.Title)
		assert.Equal(t, userID, dbPost.UserID)
	})

	t.Run("Error: no authorization", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		p, err := storage.CreatePost(context.Background(), "Title", "Content")
		assert.Error(t, err)
		assert.Nil(t, p)
		assert.Contains(t, err.Error(), "unauthorized")
	})
}

func TestPostPostgresStorage_GetPostByID(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Error: post not found", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		_, _, err := storage.GetPostByID(12345)
		assert.ErrorIs(t, err, post.ErrPostNotFound)
	})

	t.Run("Replies are ordered by creation time ascending", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		aliceID := createTestUser(t, "alice", "alice@example.com")
		bobID := createTestUser(t, "bob", "bob@example.com")
		postID := createTestPost(t, aliceID, "Title", "Content", time.Now().Add(-time.Hour))

		// вставляем ответы в "перепутанном" порядке времени
		now := time.Now()
		second := &models.Reply{PostID: postID, UserID: bobID, Content: "second"}
		second.CreatedAt = now.Add(-10 * time.Minute)
		require.NoError(t, DB.Create(second).Error)

		first := &models.Reply{PostID: postID, UserID: aliceID, Content: "first"}
		first.CreatedAt = now.Add(-20 * time.Minute)
		require.NoError(t, DB.Create(first).Error)

		third := &models.Reply{PostID: postID, UserID: bobID, Content: "third"}
		third.CreatedAt = now.Add(-5 * time.Minute)
		require.NoError(t, DB.Create(third).Error)

		p, replies, err := storage.GetPostByID(postID)
		require.NoError(t, err)
		assert.Equal(t, "alice", p.AuthorName)

		require.Len(t, replies, 3)
		assert.Equal(t, "first", replies[0].Content)
		assert.Equal(t, "second", replies[1].Content)
		assert.Equal(t, "third", replies[2].Content)
		assert.Equal(t, "alice", replies[0].AuthorName)
		assert.Equal(t, "bob", replies[1].AuthorName)
	})
}

func TestPostPostgresStorage_ListPosts(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Newest first and bounded", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")

		now := time.Now()
		createTestPost(t, userID, "oldest", "c", now.Add(-3*time.Hour))
		createTestPost(t, userID, "newest", "c", now.Add(-time.Hour))
		createTestPost(t, userID, "middle", "c", now.Add(-2*time.Hour))

		posts, err := storage.ListPosts(2)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "newest", posts[0].Title)
		assert.Equal(t, "middle", posts[1].Title)
		assert.Equal(t, "alice", posts[0].AuthorName)
	})

	t.Run("Empty storage returns empty list", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		posts, err := storage.ListPosts(100)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}

func TestPostPostgresStorage_CreateReply(t *testing.T) {
	storage := NewPostPostgresStorage()

	t.Run("Success reply creation", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		postID := createTestPost(t, userID, "Title", "Content", time.Now())
		ctx := createUserContext(userID)

		reply, err := storage.CreateReply(ctx, postID, "Nice post")
		require.NoError(t, err)
		assert.NotZero(t, reply.ID)
		assert.Equal(t, postID, reply.PostID)
		assert.Equal(t, userID, reply.AuthorID)
		assert.Equal(t, "alice", reply.AuthorName)
		assert.Equal(t, "Nice post", reply.Content)
		assert.False(t, reply.CreatedAt.IsZero())
	})

	t.Run("Error: post not found", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		ctx := createUserContext(userID)

		_, err := storage.CreateReply(ctx, 12345, "Nice post")
		assert.ErrorIs(t, err, post.ErrPostNotFound)
	})
}

func TestPostPostgresStorage_ToggleLike(t *testing.T) {
	storage := NewPostPostgresStorage()

	countLikes := func(t *testing.T, postID uint) int {
		var n int
		require.NoError(t, DB.Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error)
		return n
	}

	t.Run("Toggle on then off returns to baseline", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		postID := createTestPost(t, userID, "Title", "Content", time.Now())
		ctx := createUserContext(userID)

		liked, likes, err := storage.ToggleLike(ctx, postID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, likes)
		assert.Equal(t, 1, countLikes(t, postID))

		liked, likes, err = storage.ToggleLike(ctx, postID)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, likes)
		assert.Equal(t, 0, countLikes(t, postID))
	})

	t.Run("Like can be set again after unlike", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		postID := createTestPost(t, userID, "Title", "Content", time.Now())
		ctx := createUserContext(userID)

		// полный цикл: лайк, снятие, повторный лайк — снятый лайк
		// не должен блокировать уникальный индекс
		expected := []struct {
			liked bool
			likes int
		}{
			{true, 1},
			{false, 0},
			{true, 1},
			{false, 0},
		}

		for _, want := range expected {
			liked, likes, err := storage.ToggleLike(ctx, postID)
			require.NoError(t, err)
			assert.Equal(t, want.liked, liked)
			assert.Equal(t, want.likes, likes)
			// счетчик и множество лайков не расходятся ни на одном шаге
			assert.Equal(t, want.likes, countLikes(t, postID))
		}
	})

	t.Run("Counter equals like-set cardinality for distinct users", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		aliceID := createTestUser(t, "alice", "alice@example.com")
		postID := createTestPost(t, aliceID, "Title", "Content", time.Now())

		userIDs := []uint{aliceID}
		userIDs = append(userIDs, createTestUser(t, "bob", "bob@example.com"))
		userIDs = append(userIDs, createTestUser(t, "carol", "carol@example.com"))
		userIDs = append(userIDs, createTestUser(t, "dave", "dave@example.com"))

		var lastCount int
		for _, id := range userIDs {
			_, likes, err := storage.ToggleLike(createUserContext(id), postID)
			require.NoError(t, err)
			lastCount = likes
		}

		assert.Equal(t, len(userIDs), lastCount)
		assert.Equal(t, len(userIDs), countLikes(t, postID))

		// bob передумал — счетчик и множество лайков меняются согласованно
		_, likes, err := storage.ToggleLike(createUserContext(userIDs[1]), postID)
		require.NoError(t, err)
		assert.Equal(t, len(userIDs)-1, likes)
		assert.Equal(t, len(userIDs)-1, countLikes(t, postID))
	})

	t.Run("Error: post not found", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		ctx := createUserContext(userID)

		_, _, err := storage.ToggleLike(ctx, 12345)
		assert.ErrorIs(t, err, post.ErrPostNotFound)
	})

	t.Run("Error: no authorization", func(t *testing.T) {
		oldDB := setupTestDB(t)
		defer teardownTestDB(oldDB)

		userID := createTestUser(t, "alice", "alice@example.com")
		postID := createTestPost(t, userID, "Title", "Content", time.Now())

		_, _, err := storage.ToggleLike(context.Background(), postID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unauthorized")
	})
}
