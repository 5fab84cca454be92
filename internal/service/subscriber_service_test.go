package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

func newSubscriberFixture() (*SubscriberService, *mockSubscriberRepo, *mockCampaignRepo, *mockDeliveryLogRepo, *mockSender) {
	subscriberRepo := newMockSubscriberRepo()
	campaignRepo := newMockCampaignRepo()
	logRepo := newMockDeliveryLogRepo()
	sender := newMockSender()

	svc := NewSubscriberService(subscriberRepo, campaignRepo, logRepo, sender)
	return svc, subscriberRepo, campaignRepo, logRepo, sender
}

func TestSubscribe_NoValidCampaigns(t *testing.T) {
	svc, subscriberRepo, _, _, sender := newSubscriberFixture()

	result, err := svc.Subscribe(context.Background(), "(555) 123-4567", models.PlatformAndroid, nil)

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.Subscriber.Phone != "5551234567" {
		t.Errorf("Expected normalized phone but got %s", result.Subscriber.Phone)
	}
	if result.CampaignsSent != 0 || result.Failures != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if subscriberRepo.Calls["Create"] != 1 {
		t.Errorf("Expected subscriber created but got %d calls", subscriberRepo.Calls["Create"])
	}
	if sender.SendCount() != 0 {
		t.Errorf("Expected no sends but got %d", sender.SendCount())
	}
}

func TestSubscribe_CatchesUpOnValidCampaigns(t *testing.T) {
	svc, subscriberRepo, campaignRepo, logRepo, sender := newSubscriberFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA"), testCampaign("BBB")}, nil
	}

	result, err := svc.Subscribe(context.Background(), "5551234567", models.PlatformApple, strPtr("ExponentPushToken[x]"))

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.CampaignsSent != 2 {
		t.Errorf("Expected 2 campaigns sent but got %d", result.CampaignsSent)
	}
	if sender.SendCount() != 2 {
		t.Errorf("Expected 2 sends but got %d", sender.SendCount())
	}
	if sender.Sends[0].Platform != models.PlatformApple {
		t.Errorf("Expected apple platform but got %s", sender.Sends[0].Platform)
	}
	if len(logRepo.CreatedEntries()) != 2 {
		t.Errorf("Expected 2 log entries but got %d", len(logRepo.CreatedEntries()))
	}
	if subscriberRepo.Calls["Create"] != 1 {
		t.Error("Expected subscriber inserted after catch-up")
	}
	if result.Subscriber.PushToken == nil || *result.Subscriber.PushToken != "ExponentPushToken[x]" {
		t.Errorf("Expected push token kept but got %v", result.Subscriber.PushToken)
	}
}

func TestSubscribe_PhoneRejectionAbortsSignup(t *testing.T) {
	svc, subscriberRepo, campaignRepo, _, sender := newSubscriberFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA"), testCampaign("BBB")}, nil
	}
	sender.Default = voucher.Outcome{Kind: voucher.PhoneInvalid, Message: "phoneNumber is invalid"}

	_, err := svc.Subscribe(context.Background(), "5551234567", models.PlatformAndroid, nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError but got: %v", err)
	}
	if subscriberRepo.Calls["Create"] != 0 {
		t.Error("A rejected phone must not be inserted")
	}

	// The loop stops on the first rejection
	if sender.SendCount() != 1 {
		t.Errorf("Expected 1 send before aborting but got %d", sender.SendCount())
	}
}

func TestSubscribe_DeadCampaignRetiredAndSignupContinues(t *testing.T) {
	svc, subscriberRepo, campaignRepo, logRepo, sender := newSubscriberFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("DEAD"), testCampaign("LIVE")}, nil
	}
	sender.OutcomeFunc = func(phone, campaignID string) voucher.Outcome {
		if campaignID == "DEAD" {
			return voucher.Outcome{Kind: voucher.CampaignExpired, Message: "Campaign Expired"}
		}
		return voucher.Outcome{Kind: voucher.Accepted}
	}

	var retired string
	var retiredExpired bool
	campaignRepo.UpdateValidityFunc = func(ctx context.Context, campaignID string, isValid, isExpired bool) error {
		retired = campaignID
		retiredExpired = isExpired
		return nil
	}

	result, err := svc.Subscribe(context.Background(), "5551234567", models.PlatformAndroid, nil)

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.CampaignsSent != 1 || result.Failures != 1 {
		t.Errorf("Expected 1 sent 1 failed but got %+v", result)
	}
	if retired != "DEAD" || !retiredExpired {
		t.Errorf("Expected DEAD retired as expired but got %s expired=%v", retired, retiredExpired)
	}
	if subscriberRepo.Calls["Create"] != 1 {
		t.Error("Campaign-level failures must not block the signup")
	}

	// No log row for the campaign-level rejection, one for the success
	entries := logRepo.CreatedEntries()
	if len(entries) != 1 || entries[0].CampaignID != "LIVE" {
		t.Errorf("Unexpected log entries: %+v", entries)
	}
}

func TestSubscribe_AmbiguousFailureLoggedAndSignupContinues(t *testing.T) {
	svc, subscriberRepo, campaignRepo, logRepo, sender := newSubscriberFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA")}, nil
	}
	sender.Default = voucher.Outcome{Kind: voucher.NetworkFailure, Message: "Network error"}

	result, err := svc.Subscribe(context.Background(), "5551234567", models.PlatformAndroid, nil)

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.Failures != 1 {
		t.Errorf("Expected 1 failure but got %d", result.Failures)
	}
	if campaignRepo.Calls["UpdateValidity"] != 0 {
		t.Error("A network failure must not retire the campaign")
	}
	entries := logRepo.CreatedEntries()
	if len(entries) != 1 || entries[0].Status != models.DeliveryFailed {
		t.Errorf("Expected 1 failed log entry but got %+v", entries)
	}
	if subscriberRepo.Calls["Create"] != 1 {
		t.Error("Expected subscriber still inserted")
	}
}

func TestSubscribe_RejectsBadInput(t *testing.T) {
	svc, _, _, _, _ := newSubscriberFixture()

	_, err := svc.Subscribe(context.Background(), "555123", models.PlatformAndroid, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for short phone but got: %v", err)
	}

	_, err = svc.Subscribe(context.Background(), "5551234567", "windows", nil)
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for bad platform but got: %v", err)
	}
}

func TestSubscribe_ConflictOnExistingPhone(t *testing.T) {
	svc, subscriberRepo, _, _, sender := newSubscriberFixture()
	subscriberRepo.GetByPhoneFunc = func(ctx context.Context, phone string) (*models.Subscriber, error) {
		return &models.Subscriber{Phone: phone, Platform: models.PlatformAndroid}, nil
	}

	_, err := svc.Subscribe(context.Background(), "5551234567", models.PlatformAndroid, nil)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError but got: %v", err)
	}
	if sender.SendCount() != 0 {
		t.Error("A duplicate signup must not trigger any sends")
	}
}

func TestUnsubscribe(t *testing.T) {
	svc, subscriberRepo, _, _, _ := newSubscriberFixture()

	if err := svc.Unsubscribe(context.Background(), "(555) 123-4567"); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if subscriberRepo.Calls["Delete"] != 1 {
		t.Errorf("Expected 1 delete but got %d", subscriberRepo.Calls["Delete"])
	}
}

func TestUnsubscribe_UnknownPhone(t *testing.T) {
	svc, subscriberRepo, _, _, _ := newSubscriberFixture()
	subscriberRepo.DeleteFunc = func(ctx context.Context, phone string) error {
		return repository.ErrNotFound
	}

	err := svc.Unsubscribe(context.Background(), "5551234567")

	var nferr *NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("Expected NotFoundError but got: %v", err)
	}
}
