package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flash-food/internal/config"
	"flash-food/internal/database"
	"flash-food/internal/logger"
	"flash-food/internal/messaging"
	"flash-food/internal/notifstore"
	"flash-food/internal/push"
	"flash-food/internal/services/chat"
	"flash-food/internal/services/notification"
	"flash-food/internal/services/order"
	"flash-food/internal/services/revenue"
	"flash-food/internal/web"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "Path to config file")
		port       = flag.Int("port", 0, "HTTP port (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.New("flash-food")
	requestID := logger.GenerateRequestID()

	log.Info("service_started", "Starting flash-food backend", requestID, map[string]interface{}{
		"port": cfg.Server.Port,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	if err := run(ctx, cfg, log, requestID); err != nil {
		log.Error("service_failed", "Backend failed", requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, requestID string) error {
	// Order ledger
	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Notification/chat document store
	mongoClient, mongoDB, err := notifstore.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	log.Info("mongo_connected", "Connected to MongoDB", requestID, nil)

	// Event broker (optional)
	var events order.EventPublisher
	if cfg.RabbitMQ.Enabled {
		conn, err := messaging.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()

		log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)
		events = messaging.NewPublisher(conn, log)
	}

	// Push gateway (optional)
	var gateway push.Gateway
	if cfg.FCM.Enabled {
		fcm, err := push.NewFCMGateway(ctx, cfg.FCM.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to initialize push gateway: %w", err)
		}
		gateway = fcm
		log.Info("fcm_initialized", "Push gateway initialized", requestID, nil)
	}

	// Services
	ledger := order.NewRepository(db)
	store := notifstore.NewStore(mongoDB)
	dispatcher := notification.NewDispatcher(store, ledger, gateway, log)
	orderService := order.NewService(ledger, dispatcher, events, log)
	revenueService := revenue.NewService(revenue.NewRepository(db))
	chatStore := chat.NewStore(mongoDB)

	// Routes
	mux := http.NewServeMux()
	order.NewHandler(orderService, log).Register(mux)
	notification.NewHandler(store, dispatcher, log).Register(mux)
	revenue.NewHandler(revenueService, log).Register(mux)
	chat.NewHandler(chatStore, log).Register(mux)
	mux.HandleFunc("GET /health", healthHandler(db))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: web.Logging(log, mux),
	}

	go func() {
		log.Info("http_listening", fmt.Sprintf("HTTP server listening on port %d", cfg.Server.Port), requestID, nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		healthy := db.Ping(ctx) == nil

		status := http.StatusOK
		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "flash-food",
			"healthy":   healthy,
		}
		if !healthy {
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
		}

		web.WriteJSON(w, status, response)
	}
}
