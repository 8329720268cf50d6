package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/mocks"
	"github.com/VitaminP8/forumly/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

// testEnv — полный HTTP-стек на in-memory хранилищах (маршруты как в cmd/server)
type testEnv struct {
	handler http.Handler
	users   *memory.UserMemoryStorage
	posts   *memory.PostMemoryStorage
	mailer  *mocks.MockMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Setenv("JWT_SECRET", "test-secret")

	logger := log.New(io.Discard, "", 0)
	users := memory.NewUserMemoryStorage("bronze", "silver", "gold")
	posts := memory.NewPostMemoryStorage(users)
	mailer := mocks.NewMockMailer()

	authHandler := NewAuthHandler(users, mailer, logger, "http://localhost:3000")
	postHandler := NewPostHandler(posts, logger)
	userHandler := NewUserHandler(users, logger)
	adminHandler := NewAdminHandler(users, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("GET /auth/verify", authHandler.Verify)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /posts", postHandler.List)
	mux.HandleFunc("POST /posts", postHandler.Create)
	mux.HandleFunc("GET /posts/{id}", postHandler.Get)
	mux.HandleFunc("POST /posts/{id}/replies", postHandler.CreateReply)
	mux.HandleFunc("POST /posts/{id}/like", postHandler.ToggleLike)
	mux.HandleFunc("GET /me", userHandler.Me)
	mux.HandleFunc("POST /admin/grant-badge", adminHandler.GrantBadge)
	mux.HandleFunc("GET /admin/users", adminHandler.ListUsers)

	return &testEnv{
		handler: auth.AuthMiddleware(mux),
		users:   users,
		posts:   posts,
		mailer:  mailer,
	}
}

// do выполняет запрос; body != nil сериализуется в JSON, token добавляется как Bearer
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// tokenFromMail вырезает значение token= из ссылки в теле письма
func tokenFromMail(t *testing.T, body string) string {
	idx := strings.Index(body, "token=")
	require.GreaterOrEqual(t, idx, 0, "mail body has no token link: %s", body)
	return body[idx+len("token="):]
}

// registerAndLogin проводит пользователя через весь цикл: регистрация,
// верификация по ссылке из письма, вход. Возвращает bearer-токен и id.
func (e *testEnv) registerAndLogin(t *testing.T, username, email, password string) (string, uint) {
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	verifyToken := tokenFromMail(t, e.mailer.Sent[len(e.mailer.Sent)-1].Body)
	rec = e.do(t, http.MethodGet, "/auth/verify?token="+verifyToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		User  *api.User `json:"user"`
		Token string    `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)

	return resp.Token, resp.User.ID
}
