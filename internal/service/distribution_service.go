package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeffreyshi17/coffree/internal/linkparse"
	"github.com/jeffreyshi17/coffree/internal/metrics"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

// Notifier fans out a push notification for a campaign. Implemented by
// NotificationService; nil disables notifications.
type Notifier interface {
	NotifyCampaign(ctx context.Context, campaignID, marketingChannel, title, body string) (*NotifyResult, error)
}

// DistributeOptions controls one fan-out run
type DistributeOptions struct {
	// SkipAlreadyReceived skips destinations that already have a
	// successful delivery for this campaign. This is the default for
	// the self-service submit flow so resubmitting a link cannot
	// double-charge subscribers.
	SkipAlreadyReceived bool

	// SkipDuplicateGuard bypasses the campaign-level duplicate check.
	// Used by gap filling and by SubmitLink, which performs the check
	// itself before validation.
	SkipDuplicateGuard bool
}

// SendOutcome is the per-destination result of a fan-out
type SendOutcome struct {
	Phone   string `json:"phone"`
	Success bool   `json:"success"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DistributionResult summarizes one campaign fan-out
type DistributionResult struct {
	CampaignID       string        `json:"campaign_id"`
	MarketingChannel string        `json:"marketing_channel"`
	Sent             int           `json:"sent"`
	Skipped          int           `json:"skipped"`
	Failed           int           `json:"failed"`
	Results          []SendOutcome `json:"results"`
}

// DistributionService orchestrates campaign fan-out: it validates a
// submitted link, sends the campaign to every subscribed destination,
// records one delivery log entry per attempt, and derives campaign
// validity conclusions from the aggregate outcomes.
type DistributionService struct {
	campaignRepo   repository.CampaignRepository
	subscriberRepo repository.SubscriberRepository
	logRepo        repository.DeliveryLogRepository
	sender         VoucherSender
	validator      *CampaignValidator
	notifier       Notifier
}

// NewDistributionService creates a distribution service. notifier may
// be nil to disable push notifications.
func NewDistributionService(
	campaignRepo repository.CampaignRepository,
	subscriberRepo repository.SubscriberRepository,
	logRepo repository.DeliveryLogRepository,
	sender VoucherSender,
	validator *CampaignValidator,
	notifier Notifier,
) *DistributionService {
	return &DistributionService{
		campaignRepo:   campaignRepo,
		subscriberRepo: subscriberRepo,
		logRepo:        logRepo,
		sender:         sender,
		validator:      validator,
		notifier:       notifier,
	}
}

// SubmitLink handles one submitted voucher link end to end: parse,
// duplicate guard, dry-run validation, campaign upsert, fan-out.
func (s *DistributionService) SubmitLink(ctx context.Context, link string, source models.Source) (*DistributionResult, error) {
	if link == "" {
		return nil, &ValidationError{Message: "link is required"}
	}

	parsed, ok := linkparse.Parse(link)
	if !ok {
		return nil, &ValidationError{
			Message: "invalid link format. Expected format: https://coffree.capitalone.com/sms/?cid=xxx&mc=yyy",
		}
	}

	// Reject a link whose campaign was already processed. Read-then-act
	// without a transactional guard: two simultaneous submissions of
	// the same link can race past this check (see DESIGN.md).
	first, err := s.logRepo.FirstForCampaign(ctx, parsed.CampaignID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if first != nil {
		return nil, &DuplicateSubmissionError{
			CampaignID:  parsed.CampaignID,
			SubmittedAt: first.CreatedAt,
		}
	}

	verdict := s.validator.Validate(ctx, parsed.CampaignID, parsed.MarketingChannel)
	if !verdict.Valid() {
		// Persist the verdict when the campaign is already on record so
		// gap filling stops retargeting it.
		if updateErr := s.campaignRepo.UpdateValidity(ctx, parsed.CampaignID, false, verdict.State == ValidationExpired); updateErr != nil && !errors.Is(updateErr, repository.ErrNotFound) {
			log.Printf("Warning: failed to persist validation verdict for %s: %v", parsed.CampaignID, updateErr)
		}
		return nil, &CampaignRejectedError{
			CampaignID: parsed.CampaignID,
			Reason:     verdict.Reason,
			Expired:    verdict.State == ValidationExpired,
		}
	}

	now := time.Now()
	campaign := &models.Campaign{
		CampaignID:       parsed.CampaignID,
		MarketingChannel: parsed.MarketingChannel,
		FullLink:         link,
		Source:           source,
		IsValid:          true,
		FirstSubmittedAt: &now,
	}
	if err := s.campaignRepo.Upsert(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to upsert campaign: %w", err)
	}

	subscribers, err := s.subscriberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return nil, &BusinessLogicError{Message: "no phone numbers subscribed"}
	}

	return s.Distribute(ctx, campaign, subscribers, DistributeOptions{
		SkipAlreadyReceived: true,
		SkipDuplicateGuard:  true,
	})
}

// Distribute fans a campaign out to the given destinations. Every
// attempted send produces exactly one delivery log entry. Individual
// destination failures never fail the operation; partial failure is a
// reported outcome.
func (s *DistributionService) Distribute(ctx context.Context, campaign *models.Campaign, destinations []*models.Subscriber, opts DistributeOptions) (*DistributionResult, error) {
	start := time.Now()

	if !opts.SkipDuplicateGuard {
		first, err := s.logRepo.FirstForCampaign(ctx, campaign.CampaignID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if first != nil {
			metrics.ObserveDistribution("rejected", time.Since(start).Seconds())
			return nil, &DuplicateSubmissionError{
				CampaignID:  campaign.CampaignID,
				SubmittedAt: first.CreatedAt,
			}
		}
	}

	delivered := map[string]bool{}
	if opts.SkipAlreadyReceived {
		logs, err := s.logRepo.ListByCampaignID(ctx, campaign.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch delivery history: %w", err)
		}
		for _, entry := range logs {
			if entry.Status == models.DeliverySuccess {
				delivered[entry.PhoneNumber] = true
			}
		}
	}

	result := &DistributionResult{
		CampaignID:       campaign.CampaignID,
		MarketingChannel: campaign.MarketingChannel,
		Results:          make([]SendOutcome, len(destinations)),
	}

	// Per-destination sends run concurrently; the WaitGroup is the
	// barrier before any campaign-level conclusion is drawn.
	var wg sync.WaitGroup
	outcomes := make([]voucher.Outcome, len(destinations))

	for i, destination := range destinations {
		if delivered[destination.Phone] {
			result.Results[i] = SendOutcome{Phone: destination.Phone, Skipped: true}
			continue
		}

		wg.Add(1)
		go func(i int, dest *models.Subscriber) {
			defer wg.Done()

			outcome := s.sender.Send(ctx, dest.Phone, dest.Platform, campaign.CampaignID, campaign.MarketingChannel)
			outcomes[i] = outcome

			entry := deliveryEntry(campaign, dest.Phone, outcome)
			if err := s.logRepo.Create(ctx, entry); err != nil {
				log.Printf("Warning: failed to record delivery log for %s: %v", dest.Phone, err)
			}

			result.Results[i] = SendOutcome{
				Phone:   dest.Phone,
				Success: outcome.Success(),
				Error:   outcome.Message,
			}
		}(i, destination)
	}

	wg.Wait()

	attempted := 0
	for i := range result.Results {
		switch {
		case result.Results[i].Skipped:
			result.Skipped++
		case result.Results[i].Success:
			result.Sent++
			attempted++
		default:
			result.Failed++
			attempted++
		}
	}

	// When every attempted send failed and at least one failure names a
	// campaign-level problem, the campaign died after validation; flip
	// its flags so it stops being distributed. Mixed outcomes never
	// condemn a campaign.
	if attempted > 0 && result.Sent == 0 {
		s.concludeFromFailures(ctx, campaign, outcomes)
	}

	if s.notifier != nil && result.Sent > 0 {
		s.notifyAsync(campaign)
	}

	metrics.ObserveDistribution("completed", time.Since(start).Seconds())
	return result, nil
}

// concludeFromFailures inspects an all-failed outcome set for evidence
// that the campaign itself is dead. Unlike validation, this post-hoc
// check requires a recognized error string; ambiguous failures are not
// proof of campaign failure here.
func (s *DistributionService) concludeFromFailures(ctx context.Context, campaign *models.Campaign, outcomes []voucher.Outcome) {
	campaignLevel := false
	expired := false
	for _, outcome := range outcomes {
		lower := strings.ToLower(outcome.Message)
		if strings.Contains(lower, "invalid campaign") || strings.Contains(lower, "expired") {
			campaignLevel = true
			if strings.Contains(lower, "expired") {
				expired = true
			}
		}
	}

	if !campaignLevel {
		return
	}

	log.Printf("Campaign %s failed for every destination, marking invalid (expired=%v)", campaign.CampaignID, expired)
	if err := s.campaignRepo.UpdateValidity(ctx, campaign.CampaignID, false, expired); err != nil {
		log.Printf("Warning: failed to mark campaign %s invalid: %v", campaign.CampaignID, err)
	}
}

// notifyAsync sends the push notification without blocking the caller.
// Delivery bookkeeping never depends on the relay.
func (s *DistributionService) notifyAsync(campaign *models.Campaign) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := s.notifier.NotifyCampaign(
			ctx,
			campaign.CampaignID,
			campaign.MarketingChannel,
			"Free coffee!",
			"A new coffee voucher was just sent to your phone.",
		)
		if err != nil {
			log.Printf("Warning: push notification for campaign %s failed: %v", campaign.CampaignID, err)
		}
	}()
}

// deliveryEntry builds the append-only log row for one send attempt
func deliveryEntry(campaign *models.Campaign, phone string, outcome voucher.Outcome) *models.DeliveryLog {
	entry := &models.DeliveryLog{
		CampaignID:       campaign.CampaignID,
		MarketingChannel: campaign.MarketingChannel,
		Link:             campaign.FullLink,
		PhoneNumber:      phone,
		Status:           models.DeliverySuccess,
	}
	if !outcome.Success() {
		entry.Status = models.DeliveryFailed
		msg := outcome.Message
		entry.ErrorMessage = &msg
	}
	return entry
}
