package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"collabcode/internal/ai"
	"collabcode/internal/auth"
	"collabcode/internal/config"
	"collabcode/internal/database"
	"collabcode/internal/handlers"
	"collabcode/internal/metrics"
	"collabcode/internal/service"
	"collabcode/internal/ws"
	"collabcode/pkg/logger"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize services
	authService := auth.NewService(db, cfg)
	projectService := service.NewProjectService(db)

	// Real-time core: registry, router, AI relay
	registry := ws.NewRegistry()
	router := ws.NewRouter(registry)
	generator := ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model)
	relay := ai.NewRelay(generator, router)
	router.AttachRelay(relay)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	projectHandlers := handlers.NewProjectHandlers(projectService, authService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, registry, router)

	// Setup routes
	r := mux.NewRouter()
	setupRoutes(r, authHandlers, projectHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")
}

func setupRoutes(r *mux.Router, authHandlers *handlers.AuthHandlers, projectHandlers *handlers.ProjectHandlers, wsHandlers *handlers.WebSocketHandlers) {
	// User routes
	r.HandleFunc("/users/register", authHandlers.Register).Methods(http.MethodPost)
	r.HandleFunc("/users/login", authHandlers.Login).Methods(http.MethodPost)
	r.HandleFunc("/users/all", authHandlers.ListUsers).Methods(http.MethodGet)

	// Project routes
	r.HandleFunc("/projects/create", projectHandlers.CreateProject).Methods(http.MethodPost)
	r.HandleFunc("/projects/all", projectHandlers.ListProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects/add-user", projectHandlers.AddUsers).Methods(http.MethodPut)
	r.HandleFunc("/projects/update-file-tree", projectHandlers.UpdateFileTree).Methods(http.MethodPut)
	r.HandleFunc("/projects/get-project/{id}", projectHandlers.GetProject).Methods(http.MethodGet)

	// WebSocket route
	r.HandleFunc("/ws", wsHandlers.HandleWebSocket)

	// Metrics
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
