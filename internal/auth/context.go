// internal/auth/context.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const (
	userIDKey   = contextKey("userID")
	userRoleKey = contextKey("userRole")
)

// Сохраняет userID в контексте
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Достает userID из контекста
func GetUserIDFromContext(ctx context.Context) (uint, error) {
	val := ctx.Value(userIDKey)
	id, ok := val.(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return id, nil
}

// Сохраняет роль пользователя в контексте
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey, role)
}

// Достает роль пользователя из контекста
func GetUserRoleFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(userRoleKey)
	role, ok := val.(string)
	if !ok {
		return "", errors.New("user role not found in context")
	}
	return role, nil
}

// AuthMiddleware извлекает JWT из заголовка Authorization, валидирует его
// и помещает userID и роль в context. Запросы без валидного токена
// пропускаются дальше как анонимные — 401 отдают сами хендлеры.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractTokenFromHeader(r.Header.Get("Authorization"))
		if tokenStr == "" {
			next.ServeHTTP(w, r) // неавторизованный доступ — пропускаем
			return
		}

		claims, err := ParseToken(tokenStr)
		if err != nil {
			next.ServeHTTP(w, r) // если невалидный токен — пропускаем
			return
		}

		ctx := WithUserID(r.Context(), claims.UserID)
		ctx = WithUserRole(ctx, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractTokenFromHeader(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
