package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/jeffreyshi17/coffree/internal/config"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/push"
	"github.com/jeffreyshi17/coffree/internal/queue"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/service"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

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

	// Outbound clients and services
	voucherClient := voucher.NewClient(cfg.Voucher.Endpoint, cfg.Voucher.Timeout, cfg.Voucher.MaxAttempts, cfg.Voucher.RetryDelay)
	pushRelay := push.NewRelay(cfg.Push.Endpoint, cfg.Push.Timeout, cfg.Push.MaxAttempts, cfg.Push.RetryDelay)
	validator := service.NewCampaignValidator(voucherClient, cfg.Voucher.SentinelPhone)
	notificationSvc := service.NewNotificationService(subscriberRepo, pushRelay)
	distributionSvc := service.NewDistributionService(campaignRepo, subscriberRepo, logRepo, voucherClient, validator, notificationSvc)
	gapSvc := service.NewGapService(campaignRepo, subscriberRepo, logRepo, voucherClient)
	cleanupSvc := service.NewCleanupService(campaignRepo, logRepo)
	log.Println("✅ Services initialized")

	// Connect to RabbitMQ
	conn, err := queue.NewConnection(cfg.GetRabbitMQURL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	log.Println("✅ Connected to RabbitMQ")

	handler := createLinkHandler(distributionSvc, campaignRepo)

	consumer, err := queue.NewConsumer(conn, queue.LinkQueue, handler)
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	log.Printf("✅ Worker started, consuming from queue: %s", queue.LinkQueue)

	// Scheduled sweeps: fill delivery gaps and audit campaign validity
	scheduler := cron.New()

	_, err = scheduler.AddFunc("0 */6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		result, err := gapSvc.FillGaps(ctx)
		if err != nil {
			log.Printf("❌ Gap fill sweep failed: %v", err)
			return
		}
		log.Printf("✅ Gap fill sweep: %d campaigns checked, %d sent, %d failed",
			result.CampaignsChecked, result.Sent, result.Failed)
	})
	if err != nil {
		log.Fatalf("Failed to schedule gap fill sweep: %v", err)
	}

	_, err = scheduler.AddFunc("30 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		report, err := cleanupSvc.Apply(ctx)
		if err != nil {
			log.Printf("❌ Cleanup sweep failed: %v", err)
			return
		}
		log.Printf("✅ Cleanup sweep: %d campaigns scanned, %d corrections",
			report.CampaignsScanned, len(report.Corrections))
	})
	if err != nil {
		log.Fatalf("Failed to schedule cleanup sweep: %v", err)
	}

	scheduler.Start()
	log.Println("✅ Scheduled sweeps registered")

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down gracefully...")

	if err := consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	conn.Close()
	db.Close()

	log.Println("✅ Worker stopped")
}

// createLinkHandler builds the handler that turns discovered links into
// distributions. Business rejections (duplicates, dead campaigns) ack
// the job; only infrastructure errors requeue.
func createLinkHandler(distributionSvc *service.DistributionService, campaignRepo repository.CampaignRepository) queue.LinkHandler {
	return func(job *queue.LinkJob) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		log.Printf("📨 Processing discovered link: %s", job.FullLink)

		result, err := distributionSvc.SubmitLink(ctx, job.FullLink, models.SourceAuto)
		if err == nil {
			recordDiscoveryDetails(ctx, campaignRepo, job, result.CampaignID)
			log.Printf("✅ Distributed campaign %s: %d sent, %d skipped, %d failed",
				result.CampaignID, result.Sent, result.Skipped, result.Failed)
			return nil
		}

		var dup *service.DuplicateSubmissionError
		if errors.As(err, &dup) {
			log.Printf("⏭️  Campaign %s already distributed, skipping", dup.CampaignID)
			return nil
		}

		var rejected *service.CampaignRejectedError
		if errors.As(err, &rejected) {
			log.Printf("⚠️  Campaign %s rejected: %s", rejected.CampaignID, rejected.Reason)
			return nil
		}

		var validation *service.ValidationError
		if errors.As(err, &validation) {
			log.Printf("⚠️  Dropping malformed link %q: %v", job.FullLink, err)
			return nil
		}

		var business *service.BusinessLogicError
		if errors.As(err, &business) {
			log.Printf("⚠️  Cannot distribute link: %v", err)
			return nil
		}

		log.Printf("❌ Failed to process link: %v", err)
		return err
	}
}

// recordDiscoveryDetails attaches reddit provenance to the campaign row
// when the discovery feed provided it
func recordDiscoveryDetails(ctx context.Context, campaignRepo repository.CampaignRepository, job *queue.LinkJob, campaignID string) {
	if job.RedditPostURL == nil && job.RedditSubreddit == nil {
		return
	}

	campaign, err := campaignRepo.GetByCampaignID(ctx, campaignID)
	if err != nil {
		log.Printf("Warning: failed to load campaign %s for provenance: %v", campaignID, err)
		return
	}

	campaign.RedditPostURL = job.RedditPostURL
	campaign.RedditSubreddit = job.RedditSubreddit
	if err := campaignRepo.Upsert(ctx, campaign); err != nil {
		log.Printf("Warning: failed to record provenance for %s: %v", campaignID, err)
	}
}
