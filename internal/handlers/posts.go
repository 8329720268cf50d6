package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/post"
)

// страница фиксированная — пагинации в API нет
const defaultPostLimit = 100

type PostHandler struct {
	posts post.PostStorage
	log   *log.Logger
}

func NewPostHandler(posts post.PostStorage, logger *log.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: logger}
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(defaultPostLimit)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

type postResponse struct {
	Post    *api.Post    `json:"post"`
	Replies []*api.Reply `json:"replies"`
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}

	p, replies, err := h.posts.GetPostByID(id)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, postResponse{Post: p, Replies: replies})
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "title and content are required")
		return
	}

	p, err := h.posts.CreatePost(r.Context(), req.Title, req.Content)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

type createReplyRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) CreateReply(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var req createReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeMessage(w, http.StatusBadRequest, "content is required")
		return
	}

	reply, err := h.posts.CreateReply(r.Context(), id, req.Content)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, reply)
}

type toggleLikeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid post id")
		return
	}

	liked, likes, err := h.posts.ToggleLike(r.Context(), id)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			writeMessage(w, http.StatusNotFound, "post not found")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toggleLikeResponse{Liked: liked, Likes: likes})
}
