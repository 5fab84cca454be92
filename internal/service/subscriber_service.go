package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

// SubscribeResult reports what a new subscriber received on signup
type SubscribeResult struct {
	Subscriber    *models.Subscriber `json:"subscriber"`
	CampaignsSent int                `json:"campaigns_sent"`
	Failures      int                `json:"failures"`
}

// SubscriberService manages the subscriber roster. Subscribing is more
// than an insert: the new phone is caught up on every currently valid
// campaign before the row is committed, so a subscriber who can't
// receive anything is never added.
type SubscriberService struct {
	subscriberRepo repository.SubscriberRepository
	campaignRepo   repository.CampaignRepository
	logRepo        repository.DeliveryLogRepository
	sender         VoucherSender
}

// NewSubscriberService creates a subscriber service
func NewSubscriberService(
	subscriberRepo repository.SubscriberRepository,
	campaignRepo repository.CampaignRepository,
	logRepo repository.DeliveryLogRepository,
	sender VoucherSender,
) *SubscriberService {
	return &SubscriberService{
		subscriberRepo: subscriberRepo,
		campaignRepo:   campaignRepo,
		logRepo:        logRepo,
		sender:         sender,
	}
}

// Subscribe registers a phone number and catches it up on every valid
// campaign. A phone-level rejection from the voucher service aborts the
// whole subscription; campaign-level failures only retire the campaign
// in question and the signup continues.
func (s *SubscriberService) Subscribe(ctx context.Context, rawPhone string, platform models.Platform, pushToken *string) (*SubscribeResult, error) {
	phone := models.NormalizePhone(rawPhone)
	if len(phone) != models.PhoneLength {
		return nil, &ValidationError{
			Message: fmt.Sprintf("phone number must have %d digits", models.PhoneLength),
		}
	}
	if platform != models.PlatformAndroid && platform != models.PlatformApple {
		return nil, &ValidationError{Message: "platform must be android or apple"}
	}

	existing, err := s.subscriberRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing subscriber: %w", err)
	}
	if existing != nil {
		return nil, &ConflictError{
			Resource: "phone number",
			Message:  fmt.Sprintf("%s is already subscribed", models.FormatPhone(phone)),
		}
	}

	campaigns, err := s.campaignRepo.ListValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid campaigns: %w", err)
	}

	result := &SubscribeResult{}

	// Catch-up runs sequentially so a phone-level rejection stops the
	// loop before more vouchers are burned on a dead number.
	for _, campaign := range campaigns {
		outcome := s.sender.Send(ctx, phone, platform, campaign.CampaignID, campaign.MarketingChannel)

		switch outcome.Kind {
		case voucher.Accepted:
			entry := deliveryEntry(campaign, phone, outcome)
			if err := s.logRepo.Create(ctx, entry); err != nil {
				log.Printf("Warning: failed to record catch-up log for %s: %v", phone, err)
			}
			result.CampaignsSent++

		case voucher.PhoneInvalid:
			return nil, &ValidationError{
				Message: fmt.Sprintf("the voucher service rejected this phone number: %s", outcome.Message),
			}

		case voucher.CampaignInvalid, voucher.CampaignExpired:
			// The campaign died since validation; retire it and move on.
			expired := outcome.Kind == voucher.CampaignExpired
			log.Printf("Campaign %s rejected during catch-up, marking invalid (expired=%v)", campaign.CampaignID, expired)
			if err := s.campaignRepo.UpdateValidity(ctx, campaign.CampaignID, false, expired); err != nil {
				log.Printf("Warning: failed to retire campaign %s: %v", campaign.CampaignID, err)
			}
			result.Failures++

		default:
			entry := deliveryEntry(campaign, phone, outcome)
			if err := s.logRepo.Create(ctx, entry); err != nil {
				log.Printf("Warning: failed to record catch-up log for %s: %v", phone, err)
			}
			result.Failures++
		}
	}

	subscriber := &models.Subscriber{
		Phone:     phone,
		Platform:  platform,
		PushToken: pushToken,
	}
	if err := s.subscriberRepo.Create(ctx, subscriber); err != nil {
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}

	result.Subscriber = subscriber
	return result, nil
}

// Unsubscribe removes a phone number from the roster
func (s *SubscriberService) Unsubscribe(ctx context.Context, rawPhone string) error {
	phone := models.NormalizePhone(rawPhone)
	if len(phone) != models.PhoneLength {
		return &ValidationError{
			Message: fmt.Sprintf("phone number must have %d digits", models.PhoneLength),
		}
	}

	err := s.subscriberRepo.Delete(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "phone number", ID: models.FormatPhone(phone)}
	}
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}
	return nil
}

// List retrieves all subscribers
func (s *SubscriberService) List(ctx context.Context) ([]*models.Subscriber, error) {
	subscribers, err := s.subscriberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subscribers, nil
}
