package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeffreyshi17/coffree/internal/linkparse"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
)

// CampaignUpdate is a partial update to a campaign record. Nil fields
// are left unchanged.
type CampaignUpdate struct {
	IsValid   *bool   `json:"is_valid,omitempty"`
	IsExpired *bool   `json:"is_expired,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// SubmissionStatus answers whether a campaign link was already
// distributed
type SubmissionStatus struct {
	CampaignID  string `json:"campaign_id"`
	Submitted   bool   `json:"submitted"`
	SubmittedAt string `json:"submitted_at,omitempty"`
}

// CampaignService handles campaign record management
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	logRepo      repository.DeliveryLogRepository
}

// NewCampaignService creates a campaign service
func NewCampaignService(campaignRepo repository.CampaignRepository, logRepo repository.DeliveryLogRepository) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		logRepo:      logRepo,
	}
}

// Create registers a campaign record directly, without validation or
// distribution. Used by the discovery feed for campaigns found but not
// yet submitted.
func (s *CampaignService) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.MarketingChannel = linkparse.SanitizeChannel(campaign.MarketingChannel)
	if err := campaign.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	existing, err := s.campaignRepo.GetByCampaignID(ctx, campaign.CampaignID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to check existing campaign: %w", err)
	}
	if existing != nil {
		return &ConflictError{
			Resource: "campaign",
			Message:  fmt.Sprintf("campaign %s already exists", campaign.CampaignID),
		}
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// Get retrieves one campaign by its external identifier
func (s *CampaignService) Get(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByCampaignID(ctx, campaignID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "campaign", ID: campaignID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// List retrieves campaigns matching the filters
func (s *CampaignService) List(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, error) {
	campaigns, err := s.campaignRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// CountValid returns the number of currently redeemable campaigns
func (s *CampaignService) CountValid(ctx context.Context) (int, error) {
	count, err := s.campaignRepo.CountValid(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return count, nil
}

// Update applies a partial update. Marking a campaign expired also
// clears its validity; an expired campaign is never redeemable.
func (s *CampaignService) Update(ctx context.Context, campaignID string, update CampaignUpdate) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if update.IsValid != nil || update.IsExpired != nil {
		isValid := campaign.IsValid
		isExpired := campaign.IsExpired
		if update.IsValid != nil {
			isValid = *update.IsValid
		}
		if update.IsExpired != nil {
			isExpired = *update.IsExpired
		}
		if isExpired {
			isValid = false
		}
		if err := s.campaignRepo.UpdateValidity(ctx, campaignID, isValid, isExpired); err != nil {
			return nil, fmt.Errorf("failed to update campaign validity: %w", err)
		}
		campaign.IsValid = isValid
		campaign.IsExpired = isExpired
	}

	if update.Notes != nil {
		if err := s.campaignRepo.UpdateNotes(ctx, campaignID, update.Notes); err != nil {
			return nil, fmt.Errorf("failed to update campaign notes: %w", err)
		}
		campaign.Notes = update.Notes
	}

	return campaign, nil
}

// Delete removes a campaign record
func (s *CampaignService) Delete(ctx context.Context, campaignID string) error {
	err := s.campaignRepo.Delete(ctx, campaignID)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "campaign", ID: campaignID}
	}
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// CheckSubmitted reports whether a campaign was already distributed,
// and when. Lets clients warn before submitting a link twice.
func (s *CampaignService) CheckSubmitted(ctx context.Context, campaignID string) (*SubmissionStatus, error) {
	if campaignID == "" {
		return nil, &ValidationError{Message: "campaign_id is required"}
	}

	first, err := s.logRepo.FirstForCampaign(ctx, campaignID)
	if errors.Is(err, repository.ErrNotFound) {
		return &SubmissionStatus{CampaignID: campaignID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}

	return &SubmissionStatus{
		CampaignID:  campaignID,
		Submitted:   true,
		SubmittedAt: FormatTimeAgo(first.CreatedAt),
	}, nil
}
