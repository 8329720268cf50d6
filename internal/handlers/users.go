package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/user"
)

type UserHandler struct {
	users user.UserStorage
	log   *log.Logger
}

func NewUserHandler(users user.UserStorage, logger *log.Logger) *UserHandler {
	return &UserHandler{users: users, log: logger}
}

// Me возвращает профиль владельца токена (без пароля и reset-полей)
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	u, err := h.users.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// токен валидный, но пользователя больше нет
			writeMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, u)
}
