package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeffreyshi17/coffree/internal/linkparse"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
)

// Correction is one change the cleanup sweep proposes or applied
type Correction struct {
	CampaignID string `json:"campaign_id"`
	Change     string `json:"change"`
}

// CleanupReport is the output of a cleanup sweep
type CleanupReport struct {
	CampaignsScanned int          `json:"campaigns_scanned"`
	Corrections      []Correction `json:"corrections"`
	Applied          bool         `json:"applied"`
}

// CleanupService audits delivery history for campaigns whose recorded
// state no longer matches reality: campaigns marked valid that only
// ever fail, and marketing channels corrupted by URL parsing artifacts.
type CleanupService struct {
	campaignRepo repository.CampaignRepository
	logRepo      repository.DeliveryLogRepository
}

// NewCleanupService creates a cleanup service
func NewCleanupService(campaignRepo repository.CampaignRepository, logRepo repository.DeliveryLogRepository) *CleanupService {
	return &CleanupService{
		campaignRepo: campaignRepo,
		logRepo:      logRepo,
	}
}

// Preview reports the corrections a sweep would make without applying
// them
func (s *CleanupService) Preview(ctx context.Context) (*CleanupReport, error) {
	return s.analyze(ctx, false)
}

// Apply runs the sweep and persists every correction
func (s *CleanupService) Apply(ctx context.Context) (*CleanupReport, error) {
	return s.analyze(ctx, true)
}

func (s *CleanupService) analyze(ctx context.Context, apply bool) (*CleanupReport, error) {
	campaigns, err := s.campaignRepo.ListValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid campaigns: %w", err)
	}

	report := &CleanupReport{
		CampaignsScanned: len(campaigns),
		Corrections:      []Correction{},
		Applied:          apply,
	}

	for _, campaign := range campaigns {
		if fixed := linkparse.SanitizeChannel(campaign.MarketingChannel); fixed != campaign.MarketingChannel {
			report.Corrections = append(report.Corrections, Correction{
				CampaignID: campaign.CampaignID,
				Change:     fmt.Sprintf("fixed marketing_channel from %q to %q", campaign.MarketingChannel, fixed),
			})
			if apply {
				if err := s.campaignRepo.UpdateChannel(ctx, campaign.CampaignID, fixed); err != nil {
					log.Printf("Warning: failed to fix channel for %s: %v", campaign.CampaignID, err)
				}
			}
		}

		logs, err := s.logRepo.ListByCampaignID(ctx, campaign.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to list delivery logs for %s: %w", campaign.CampaignID, err)
		}

		// A campaign with no delivery history yet proves nothing either
		// way; leave it alone.
		if len(logs) == 0 {
			continue
		}

		dead, expired := inferDeadCampaign(logs)
		if !dead {
			continue
		}

		state := "invalid"
		if expired {
			state = "expired"
		}
		report.Corrections = append(report.Corrections, Correction{
			CampaignID: campaign.CampaignID,
			Change:     fmt.Sprintf("marked %s (no successes, all failures indicate a dead campaign)", state),
		})
		if apply {
			if err := s.campaignRepo.UpdateValidity(ctx, campaign.CampaignID, false, expired); err != nil {
				log.Printf("Warning: failed to mark campaign %s %s: %v", campaign.CampaignID, state, err)
			}
		}
	}

	return report, nil
}

// inferDeadCampaign decides whether a campaign's full delivery history
// proves it is no longer redeemable. One success anywhere clears it.
// Failures only count as evidence when their recorded error names a
// campaign-level problem; ambiguous failures like timeouts are not
// proof.
func inferDeadCampaign(logs []*models.DeliveryLog) (dead, expired bool) {
	failures := 0
	campaignLevel := false

	for _, entry := range logs {
		if entry.Status == models.DeliverySuccess {
			return false, false
		}
		failures++

		if entry.ErrorMessage == nil {
			continue
		}
		lower := strings.ToLower(*entry.ErrorMessage)
		switch {
		case strings.Contains(lower, "expired"):
			campaignLevel = true
			expired = true
		case strings.Contains(lower, "invalid campaign"),
			strings.Contains(lower, "marketingchannel is invalid"):
			campaignLevel = true
		}
	}

	return failures > 0 && campaignLevel, expired
}
