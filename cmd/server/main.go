package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/VitaminP8/forumly/internal/auth"
	"github.com/VitaminP8/forumly/internal/config"
	"github.com/VitaminP8/forumly/internal/handlers"
	"github.com/VitaminP8/forumly/internal/mail"
	"github.com/VitaminP8/forumly/internal/post"
	"github.com/VitaminP8/forumly/internal/storage/memory"
	"github.com/VitaminP8/forumly/internal/storage/postgres"
	"github.com/VitaminP8/forumly/internal/user"
	"github.com/VitaminP8/forumly/models"
)

var defaultBadges = []string{"bronze", "silver", "gold"}

func main() {
	storageType := flag.String("storage", "memory", "Тип хранилища: memory или postgres")
	flag.Parse()

	// загружаем .env из нашего config.go
	config.LoadEnv()

	logger := log.New(os.Stdout, "forumly: ", log.LstdFlags|log.Lshortfile)

	var postStore post.PostStorage
	var userStore user.UserStorage

	switch *storageType {
	case "postgres":
		if err := postgres.InitDB(); err != nil {
			log.Fatalf("failed to init database: %v", err)
		}
		err := postgres.DB.AutoMigrate(&models.User{}, &models.Badge{}, &models.Post{}, &models.Reply{}, &models.Like{}).Error
		if err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		if err := postgres.EnsureDefaultBadges(defaultBadges...); err != nil {
			log.Fatalf("failed to seed badges: %v", err)
		}

		log.Println("Используется PostgreSQL хранилище")
		postStore = postgres.NewPostPostgresStorage()
		userStore = postgres.NewUserPostgresStorage()

	case "memory":
		log.Println("Используется in-memory хранилище")
		users := memory.NewUserMemoryStorage(defaultBadges...)
		userStore = users
		postStore = memory.NewPostMemoryStorage(users)

	default:
		log.Fatalf("неизвестный тип хранилища: %s", *storageType)
	}

	// если SMTP не настроен — письма уходят в лог
	var mailer mail.Mailer
	if os.Getenv("EMAIL_HOST") != "" {
		mailer = mail.NewSMTPMailerFromEnv()
	} else {
		log.Println("EMAIL_HOST не задан — письма будут писаться в лог")
		mailer = mail.NewLogMailer(logger)
	}

	clientURL := config.GetEnvDefault("CLIENT_URL", "http://localhost:3000")

	authHandler := handlers.NewAuthHandler(userStore, mailer, logger, clientURL)
	postHandler := handlers.NewPostHandler(postStore, logger)
	userHandler := handlers.NewUserHandler(userStore, logger)
	adminHandler := handlers.NewAdminHandler(userStore, logger)

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

	port := config.GetEnvDefault("PORT", "8080")

	// AuthMiddleware достает JWT из заголовка, валидирует и кладет userID и роль в context
	server := &http.Server{
		Addr:    ":" + port,
		Handler: auth.AuthMiddleware(mux),
	}

	// запуск HTTP сервера
	go func() {
		log.Printf("Сервер запущен на http://localhost:%s/", port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Завершение...")

	if *storageType == "postgres" {
		if err := postgres.CloseDB(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}

	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Ошибка при завершении сервера: %v", err)
	}

	log.Println("Сервер остановлен корректно")
}
