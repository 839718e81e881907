package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-portal/httpapi"
	"task-portal/internal"
	"task-portal/observability"
	"task-portal/repositories"
	"task-portal/runtime"
	"task-portal/runtime/workers"
	"task-portal/services"
	"task-portal/storage"
	"task-portal/ws"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.Logger(config.LogLevel)

	// 2. Database (SQLite)
	db, err := storage.Open(config.DBPath)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing SQLite...")
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 3. Repositories & Services
	monitor := observability.NewManager(log)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	taskRepository := repositories.NewTaskRepository(db)

	chatService := services.NewChatService(log, registry, messageRepository, monitor, config.PushTimeout)
	authService := services.NewAuthService(userRepository, []byte(config.TokenSecret), config.TokenTTL)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised Background Workers
	sup := workers.NewSupervisor(log, config.RestartInterval).
		Add(workers.NewHealthMonitoringWorker(log, monitor, config.MetricInterval))
	sup.Run(ctx)

	// 6. HTTP Server Setup
	socket := ws.NewHandler(log, chatService, config.SendBufferSize, config.PushTimeout)
	api := httpapi.NewServer(log, chatService, authService, userRepository, taskRepository,
		monitor, socket, []byte(config.TokenSecret), config.TokenTTL, config.FrontendURL, config.SecureCookies)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
