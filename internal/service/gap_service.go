package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
)

// CampaignGaps lists the destinations a valid campaign never reached
type CampaignGaps struct {
	CampaignID       string   `json:"campaign_id"`
	MarketingChannel string   `json:"marketing_channel"`
	MissingPhones    []string `json:"missing_phones"`
}

// GapReport is the read-only output of gap detection
type GapReport struct {
	Campaigns    []CampaignGaps `json:"campaigns"`
	TotalMissing int            `json:"total_missing"`
}

// GapFillResult summarizes one gap-filling run
type GapFillResult struct {
	CampaignsChecked int           `json:"campaigns_checked"`
	Sent             int           `json:"sent"`
	Failed           int           `json:"failed"`
	Results          []SendOutcome `json:"results"`
}

// GapService reconciles valid campaigns against delivery history and
// resends to destinations that were missed, typically subscribers who
// joined after a campaign was distributed.
type GapService struct {
	campaignRepo   repository.CampaignRepository
	subscriberRepo repository.SubscriberRepository
	logRepo        repository.DeliveryLogRepository
	sender         VoucherSender
}

// NewGapService creates a gap reconciliation service
func NewGapService(
	campaignRepo repository.CampaignRepository,
	subscriberRepo repository.SubscriberRepository,
	logRepo repository.DeliveryLogRepository,
	sender VoucherSender,
) *GapService {
	return &GapService{
		campaignRepo:   campaignRepo,
		subscriberRepo: subscriberRepo,
		logRepo:        logRepo,
		sender:         sender,
	}
}

// FindGaps reports every (valid campaign, subscriber) pair with no
// successful delivery on record. Read-only.
func (s *GapService) FindGaps(ctx context.Context) (*GapReport, error) {
	campaigns, subscribers, delivered, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	report := &GapReport{Campaigns: []CampaignGaps{}}
	for _, campaign := range campaigns {
		missing := missingPhones(campaign, subscribers, delivered)
		if len(missing) == 0 {
			continue
		}
		report.Campaigns = append(report.Campaigns, CampaignGaps{
			CampaignID:       campaign.CampaignID,
			MarketingChannel: campaign.MarketingChannel,
			MissingPhones:    missing,
		})
		report.TotalMissing += len(missing)
	}

	return report, nil
}

// FillGaps resends every valid campaign to the destinations it never
// reached. Failures are logged per destination and never invalidate the
// campaign; a send that fails here may simply be a transient problem
// for one phone.
func (s *GapService) FillGaps(ctx context.Context) (*GapFillResult, error) {
	campaigns, subscribers, delivered, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	byPhone := map[string]*models.Subscriber{}
	for _, sub := range subscribers {
		byPhone[sub.Phone] = sub
	}

	result := &GapFillResult{
		CampaignsChecked: len(campaigns),
		Results:          []SendOutcome{},
	}

	for _, campaign := range campaigns {
		missing := missingPhones(campaign, subscribers, delivered)
		if len(missing) == 0 {
			continue
		}

		log.Printf("Filling %d gap(s) for campaign %s", len(missing), campaign.CampaignID)

		var wg sync.WaitGroup
		outcomes := make([]SendOutcome, len(missing))

		for i, phone := range missing {
			dest := byPhone[phone]
			wg.Add(1)
			go func(i int, dest *models.Subscriber) {
				defer wg.Done()

				outcome := s.sender.Send(ctx, dest.Phone, dest.Platform, campaign.CampaignID, campaign.MarketingChannel)

				entry := deliveryEntry(campaign, dest.Phone, outcome)
				if err := s.logRepo.Create(ctx, entry); err != nil {
					log.Printf("Warning: failed to record gap-fill log for %s: %v", dest.Phone, err)
				}

				outcomes[i] = SendOutcome{
					Phone:   dest.Phone,
					Success: outcome.Success(),
					Error:   outcome.Message,
				}
			}(i, dest)
		}

		wg.Wait()

		for _, outcome := range outcomes {
			if outcome.Success {
				result.Sent++
			} else {
				result.Failed++
			}
			result.Results = append(result.Results, outcome)
		}
	}

	return result, nil
}

// load fetches the inputs of a reconciliation pass: valid campaigns,
// current subscribers, and the set of pairs already delivered.
func (s *GapService) load(ctx context.Context) ([]*models.Campaign, []*models.Subscriber, map[repository.SendKey]bool, error) {
	campaigns, err := s.campaignRepo.ListValid(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list valid campaigns: %w", err)
	}

	subscribers, err := s.subscriberRepo.List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	pairs, err := s.logRepo.ListSuccessfulPairs(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list delivered pairs: %w", err)
	}

	delivered := make(map[repository.SendKey]bool, len(pairs))
	for _, key := range pairs {
		delivered[key] = true
	}

	return campaigns, subscribers, delivered, nil
}

func missingPhones(campaign *models.Campaign, subscribers []*models.Subscriber, delivered map[repository.SendKey]bool) []string {
	missing := []string{}
	for _, sub := range subscribers {
		key := repository.SendKey{CampaignID: campaign.CampaignID, PhoneNumber: sub.Phone}
		if !delivered[key] {
			missing = append(missing, sub.Phone)
		}
	}
	return missing
}
