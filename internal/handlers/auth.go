package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/VitaminP8/forumly/api"
	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/mail"
	"github.com/VitaminP8/forumly/internal/user"
	"github.com/google/uuid"
)

const resetTokenTTL = time.Hour

type AuthHandler struct {
	users     user.UserStorage
	mailer    mail.Mailer
	log       *log.Logger
	clientURL string
}

func NewAuthHandler(users user.UserStorage, mailer mail.Mailer, logger *log.Logger, clientURL string) *AuthHandler {
	return &AuthHandler{users: users, mailer: mailer, log: logger, clientURL: clientURL}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	newUser, err := h.users.RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrUserExists) {
			writeMessage(w, http.StatusConflict, "user already exists")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.NewEmailToken(newUser.Email)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	verifyURL := fmt.Sprintf("%s/verify?token=%s", h.clientURL, token)
	err = h.mailer.Send(newUser.Email, "Verify your email", "Follow the link to verify your email: "+verifyURL)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeMessage(w, http.StatusOK, "registration successful, check your email for the verification link")
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeMessage(w, http.StatusBadRequest, "token is required")
		return
	}

	email, err := auth.ParseEmailToken(token)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "verification link is invalid or expired")
		return
	}

	err = h.users.MarkVerified(email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeMessage(w, http.StatusBadRequest, "verification link is invalid or expired")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeMessage(w, http.StatusOK, "email verified")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User  *api.User `json:"user"`
	Token string    `json:"token"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.users.AuthenticateUser(req.Email, req.Password)
	if err != nil {
		// неверный email и неверный пароль дают один и тот же ответ
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if errors.Is(err, user.ErrNotVerified) {
			writeMessage(w, http.StatusUnauthorized, "please verify your email first")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.IssueToken(u.ID, u.Username, u.Role)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{User: u, Token: token})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}

	token := uuid.NewString()
	expire := time.Now().Add(resetTokenTTL)

	err := h.users.SetResetToken(req.Email, token, expire)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeMessage(w, http.StatusBadRequest, "user not found")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	resetURL := fmt.Sprintf("%s/reset?token=%s", h.clientURL, token)
	err = h.mailer.Send(req.Email, "Reset your password", "Follow the link to reset your password: "+resetURL)
	if err != nil {
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeMessage(w, http.StatusOK, "password reset email sent")
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "token and password are required")
		return
	}

	err := h.users.ResetPassword(req.Token, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrResetTokenInvalid) {
			writeMessage(w, http.StatusBadRequest, "reset link is invalid or expired")
			return
		}
		handleError(w, h.log, err, "server error", http.StatusInternalServerError)
		return
	}

	writeMessage(w, http.StatusOK, "password has been reset")
}
