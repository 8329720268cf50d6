package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/user"
	"github.com/VitaminP8/forumly/models"
)

const defaultUserLimit = 100

type AdminHandler struct {
	users user.UserStorage
	log   *log.Logger
}

func NewAdminHandler(users user.UserStorage, logger *log.Logger) *AdminHandler {
	return &AdminHandler{users: users, log: logger}
}

// requireAdmin проверяет, что запрос пришел от аутентифицированного админа
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, err := auth.GetUserIDFromContext(r.Context()); err != nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return false
	}

	role, err := auth.GetUserRoleFromContext(r.Context())
	if err != nil || role != models.RoleAdmin {
		writeMessage(w, http.StatusForbidden, "admin access required")
		return false
	}

	return true
}

type grantBadgeRequest struct {
	UserID  uint `json:"userId"`
	BadgeID uint `json:"badgeId"`
}

func (h *AdminHandler) GrantBadge(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req grantBadgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.BadgeID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId and badgeId are required")
		return
	}

	u, err := h.users.GrantBadge(req.UserID, req.BadgeID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}
		if errors.Is(err, user.ErrBadgeNotFound) {
			writeMessage(w, http.StatusBadRequest, "badge not found")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	users, err := h.users.ListUsers(defaultUserLimit)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, users)
}
