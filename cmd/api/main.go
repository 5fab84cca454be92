package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeffreyshi17/coffree/internal/config"
	"github.com/jeffreyshi17/coffree/internal/handler"
	"github.com/jeffreyshi17/coffree/internal/middleware"
	"github.com/jeffreyshi17/coffree/internal/push"
	"github.com/jeffreyshi17/coffree/internal/queue"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/service"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

const version = "1.0.0"

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Connected to database")

	// Repositories
	campaignRepo := repository.NewCampaignRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	logRepo := repository.NewDeliveryLogRepository(db)
	searchLogRepo := repository.NewSearchLogRepository(db)

	// Outbound clients
	voucherClient := voucher.NewClient(cfg.Voucher.Endpoint, cfg.Voucher.Timeout, cfg.Voucher.MaxAttempts, cfg.Voucher.RetryDelay)
	pushRelay := push.NewRelay(cfg.Push.Endpoint, cfg.Push.Timeout, cfg.Push.MaxAttempts, cfg.Push.RetryDelay)

	// Queue publisher for the discovery feed. A down broker degrades
	// the discovery endpoint, not the whole API.
	var linkPublisher service.LinkPublisher
	queueConn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Printf("⚠️ RabbitMQ unavailable, discovery submissions disabled: %v", err)
	} else {
		defer queueConn.Close()
		publisher, err := queue.NewPublisher(queueConn, queue.LinkQueue)
		if err != nil {
			log.Printf("⚠️ Failed to create publisher, discovery submissions disabled: %v", err)
		} else {
			linkPublisher = publisher
			log.Println("✅ Connected to RabbitMQ")
		}
	}

	// Services
	validator := service.NewCampaignValidator(voucherClient, cfg.Voucher.SentinelPhone)
	notificationSvc := service.NewNotificationService(subscriberRepo, pushRelay)
	distributionSvc := service.NewDistributionService(campaignRepo, subscriberRepo, logRepo, voucherClient, validator, notificationSvc)
	subscriberSvc := service.NewSubscriberService(subscriberRepo, campaignRepo, logRepo, voucherClient)
	campaignSvc := service.NewCampaignService(campaignRepo, logRepo)
	cleanupSvc := service.NewCleanupService(campaignRepo, logRepo)
	gapSvc := service.NewGapService(campaignRepo, subscriberRepo, logRepo, voucherClient)
	searchLogSvc := service.NewSearchLogService(searchLogRepo)
	discoverySvc := service.NewDiscoveryService(linkPublisher)
	healthSvc := service.NewHealthService(db, cfg.GetRabbitMQURL(), version)
	log.Println("✅ Services initialized")

	// Handlers
	submitHandler := handler.NewSubmitHandler(distributionSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc, cleanupSvc, gapSvc)
	phoneHandler := handler.NewPhoneHandler(subscriberSvc)
	logHandler := handler.NewLogHandler(logRepo, searchLogSvc)
	discoveryHandler := handler.NewDiscoveryHandler(discoverySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	healthHandler := handler.NewHealthHandler(healthSvc)

	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)

	router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/send-coffee", submitHandler.Submit).Methods("POST")
	api.HandleFunc("/check-campaign", campaignHandler.CheckSubmitted).Methods("GET")

	api.HandleFunc("/campaigns", campaignHandler.List).Methods("GET")
	api.HandleFunc("/campaigns", campaignHandler.Create).Methods("POST")
	api.HandleFunc("/campaigns/count", campaignHandler.Count).Methods("GET")
	api.HandleFunc("/campaigns/cleanup", campaignHandler.PreviewCleanup).Methods("GET")
	api.HandleFunc("/campaigns/cleanup", campaignHandler.ApplyCleanup).Methods("POST")
	api.HandleFunc("/campaigns/fill-gaps", campaignHandler.FindGaps).Methods("GET")
	api.HandleFunc("/campaigns/fill-gaps", campaignHandler.FillGaps).Methods("POST")
	api.HandleFunc("/campaigns/{campaignID}", campaignHandler.Update).Methods("PATCH")
	api.HandleFunc("/campaigns/{campaignID}", campaignHandler.Delete).Methods("DELETE")

	api.HandleFunc("/phone", phoneHandler.List).Methods("GET")
	api.HandleFunc("/phone", phoneHandler.Subscribe).Methods("POST")
	api.HandleFunc("/phone", phoneHandler.Unsubscribe).Methods("DELETE")

	api.HandleFunc("/discovered-links", discoveryHandler.Enqueue).Methods("POST")

	api.HandleFunc("/logs", logHandler.ListDeliveries).Methods("GET")
	api.HandleFunc("/search-logs", logHandler.ListSearches).Methods("GET")
	api.HandleFunc("/search-logs", logHandler.RecordSearch).Methods("POST")

	api.HandleFunc("/notifications/send", notificationHandler.Send).Methods("POST")

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("🚀 API Server starting on port %s", addr)
		log.Printf("📍 Health check: http://localhost%s/health", addr)
		log.Printf("🌍 Environment: %s", cfg.Env)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}
