package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/taskmantra/taskmantra/internal/config"
	"github.com/taskmantra/taskmantra/internal/database"
	"github.com/taskmantra/taskmantra/internal/notification"
	"github.com/taskmantra/taskmantra/pkg/logger"
	mw "github.com/taskmantra/taskmantra/pkg/middleware"
)

// @title        TaskMantra Notification API
// @version      1.0
// @description  Notification service for the TaskMantra project management app.
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := notification.EnsureSchema(context.Background(), db); err != nil {
		zapLogger.Fatal("Failed to apply schema", zap.Error(err))
	}

	zapLogger.Info("Connected to database")

	// Notification feature
	notificationHub := notification.NewHub(zapLogger)
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo, notificationHub, zapLogger)
	notificationHandler := notification.NewHandler(notificationService, notificationHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))
		r.Mount("/notifications", notificationHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	zapLogger.Info("Server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		zapLogger.Fatal("Server failed to start", zap.Error(err))
	}
}
