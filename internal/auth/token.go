package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenTTL      = 72 * time.Hour
	emailTokenTTL = 24 * time.Hour

	purposeVerify = "verify"
)

// Claims — содержимое bearer-токена: id + username + роль
type Claims struct {
	UserID   uint
	Username string
	Role     string
}

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set in environment")
	}
	return []byte(secret), nil
}

// IssueToken выпускает подписанный bearer-токен на 72 часа
func IssueToken(userID uint, username, role string) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken валидирует bearer-токен и возвращает claims
func ParseToken(tokenStr string) (*Claims, error) {
	claims, err := parseHMAC(tokenStr)
	if err != nil {
		return nil, err
	}

	idFloat, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("token has no user_id claim")
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return &Claims{
		UserID:   uint(idFloat),
		Username: username,
		Role:     role,
	}, nil
}

// NewEmailToken выпускает токен для ссылки верификации почты.
// Помечен purpose-клеймом, чтобы его нельзя было использовать как bearer.
func NewEmailToken(email string) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":   email,
		"purpose": purposeVerify,
		"exp":     time.Now().Add(emailTokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign email token: %w", err)
	}

	return tokenString, nil
}

// ParseEmailToken валидирует токен верификации и возвращает email
func ParseEmailToken(tokenStr string) (string, error) {
	claims, err := parseHMAC(tokenStr)
	if err != nil {
		return "", err
	}

	if purpose, _ := claims["purpose"].(string); purpose != purposeVerify {
		return "", errors.New("token is not a verification token")
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", errors.New("token has no email claim")
	}

	return email, nil
}

func parseHMAC(tokenStr string) (jwt.MapClaims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected token claims")
	}

	return claims, nil
}
