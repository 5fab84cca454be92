package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jeffreyshi17/coffree/internal/push"
	"github.com/jeffreyshi17/coffree/internal/repository"
)

// PushSender delivers a batch of push messages. Satisfied by
// *push.Relay; mocked in tests.
type PushSender interface {
	SendBatch(ctx context.Context, messages []push.Message) ([]push.Ticket, error)
}

// NotifyResult summarizes one push fan-out
type NotifyResult struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
}

// NotificationService pushes alerts to subscribers who registered a
// push token. SMS delivery of the voucher itself is the voucher
// service's job; this is only the "check your phone" heads-up.
type NotificationService struct {
	subscriberRepo repository.SubscriberRepository
	sender         PushSender
}

// NewNotificationService creates a notification service
func NewNotificationService(subscriberRepo repository.SubscriberRepository, sender PushSender) *NotificationService {
	return &NotificationService{
		subscriberRepo: subscriberRepo,
		sender:         sender,
	}
}

// NotifyCampaign sends a push message about a campaign to every
// subscriber with a push token
func (s *NotificationService) NotifyCampaign(ctx context.Context, campaignID, marketingChannel, title, body string) (*NotifyResult, error) {
	subscribers, err := s.subscriberRepo.ListWithPushTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list push recipients: %w", err)
	}

	result := &NotifyResult{Recipients: len(subscribers)}
	if len(subscribers) == 0 {
		return result, nil
	}

	messages := make([]push.Message, 0, len(subscribers))
	for _, sub := range subscribers {
		messages = append(messages, push.Message{
			To:    *sub.PushToken,
			Sound: "default",
			Title: title,
			Body:  body,
			Data: map[string]interface{}{
				"campaign_id":       campaignID,
				"marketing_channel": marketingChannel,
			},
		})
	}

	tickets, err := s.sender.SendBatch(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to send push batch: %w", err)
	}

	for i, ticket := range tickets {
		if ticket.OK() {
			result.Delivered++
			continue
		}
		result.Failed++
		if i < len(messages) {
			log.Printf("Push to %s rejected: %s", messages[i].To, ticket.Message)
		}
	}

	return result, nil
}
