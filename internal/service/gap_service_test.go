package service

import (
	"context"
	"testing"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

func newGapFixture() (*GapService, *mockCampaignRepo, *mockSubscriberRepo, *mockDeliveryLogRepo, *mockSender) {
	campaignRepo := newMockCampaignRepo()
	subscriberRepo := newMockSubscriberRepo()
	logRepo := newMockDeliveryLogRepo()
	sender := newMockSender()

	svc := NewGapService(campaignRepo, subscriberRepo, logRepo, sender)
	return svc, campaignRepo, subscriberRepo, logRepo, sender
}

func TestFindGaps_ReportsMissingPairs(t *testing.T) {
	svc, campaignRepo, subscriberRepo, logRepo, _ := newGapFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA"), testCampaign("BBB")}, nil
	}
	subscriberRepo.ListFunc = func(ctx context.Context) ([]*models.Subscriber, error) {
		return testSubscribers("5550000001", "5550000002"), nil
	}
	logRepo.ListSuccessfulPairsFunc = func(ctx context.Context) ([]repository.SendKey, error) {
		return []repository.SendKey{
			{CampaignID: "AAA", PhoneNumber: "5550000001"},
			{CampaignID: "AAA", PhoneNumber: "5550000002"},
			{CampaignID: "BBB", PhoneNumber: "5550000001"},
		}, nil
	}

	report, err := svc.FindGaps(context.Background())

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if report.TotalMissing != 1 {
		t.Fatalf("Expected 1 missing pair but got %d", report.TotalMissing)
	}
	if len(report.Campaigns) != 1 {
		t.Fatalf("Expected 1 campaign with gaps but got %d", len(report.Campaigns))
	}
	gaps := report.Campaigns[0]
	if gaps.CampaignID != "BBB" {
		t.Errorf("Expected campaign BBB but got %s", gaps.CampaignID)
	}
	if len(gaps.MissingPhones) != 1 || gaps.MissingPhones[0] != "5550000002" {
		t.Errorf("Unexpected missing phones: %v", gaps.MissingPhones)
	}
}

func TestFindGaps_NoGaps(t *testing.T) {
	svc, campaignRepo, subscriberRepo, logRepo, _ := newGapFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA")}, nil
	}
	subscriberRepo.ListFunc = func(ctx context.Context) ([]*models.Subscriber, error) {
		return testSubscribers("5550000001"), nil
	}
	logRepo.ListSuccessfulPairsFunc = func(ctx context.Context) ([]repository.SendKey, error) {
		return []repository.SendKey{{CampaignID: "AAA", PhoneNumber: "5550000001"}}, nil
	}

	report, err := svc.FindGaps(context.Background())

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if report.TotalMissing != 0 || len(report.Campaigns) != 0 {
		t.Errorf("Expected empty report but got %+v", report)
	}
}

func TestFillGaps_SendsOnlyToMissingDestinations(t *testing.T) {
	svc, campaignRepo, subscriberRepo, logRepo, sender := newGapFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA")}, nil
	}
	subscriberRepo.ListFunc = func(ctx context.Context) ([]*models.Subscriber, error) {
		return testSubscribers("5550000001", "5550000002", "5550000003"), nil
	}
	logRepo.ListSuccessfulPairsFunc = func(ctx context.Context) ([]repository.SendKey, error) {
		return []repository.SendKey{{CampaignID: "AAA", PhoneNumber: "5550000001"}}, nil
	}

	result, err := svc.FillGaps(context.Background())

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.CampaignsChecked != 1 {
		t.Errorf("Expected 1 campaign checked but got %d", result.CampaignsChecked)
	}
	if result.Sent != 2 || result.Failed != 0 {
		t.Errorf("Expected 2 sent but got sent=%d failed=%d", result.Sent, result.Failed)
	}
	for _, phone := range sender.SentTo() {
		if phone == "5550000001" {
			t.Error("Destination already delivered must not be resent")
		}
	}
	if len(logRepo.CreatedEntries()) != 2 {
		t.Errorf("Expected 2 log entries but got %d", len(logRepo.CreatedEntries()))
	}
}

func TestFillGaps_FailuresDoNotInvalidateCampaign(t *testing.T) {
	svc, campaignRepo, subscriberRepo, logRepo, sender := newGapFixture()
	campaignRepo.ListValidFunc = func(ctx context.Context) ([]*models.Campaign, error) {
		return []*models.Campaign{testCampaign("AAA")}, nil
	}
	subscriberRepo.ListFunc = func(ctx context.Context) ([]*models.Subscriber, error) {
		return testSubscribers("5550000001"), nil
	}
	sender.Default = voucher.Outcome{Kind: voucher.CampaignExpired, Message: "Campaign Expired"}

	result, err := svc.FillGaps(context.Background())

	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed but got %d", result.Failed)
	}
	if campaignRepo.Calls["UpdateValidity"] != 0 {
		t.Error("Gap filling must not invalidate campaigns; cleanup owns that")
	}

	entries := logRepo.CreatedEntries()
	if len(entries) != 1 || entries[0].Status != models.DeliveryFailed {
		t.Errorf("Expected 1 failed log entry but got %+v", entries)
	}
}
