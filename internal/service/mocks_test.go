package service

import (
	"context"
	"sync"
	"time"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/push"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

// mockCampaignRepo mocks repository.CampaignRepository
type mockCampaignRepo struct {
	CreateFunc          func(ctx context.Context, campaign *models.Campaign) error
	UpsertFunc          func(ctx context.Context, campaign *models.Campaign) error
	GetByCampaignIDFunc func(ctx context.Context, campaignID string) (*models.Campaign, error)
	ListFunc            func(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, error)
	ListValidFunc       func(ctx context.Context) ([]*models.Campaign, error)
	CountValidFunc      func(ctx context.Context) (int, error)
	UpdateValidityFunc  func(ctx context.Context, campaignID string, isValid, isExpired bool) error
	UpdateChannelFunc   func(ctx context.Context, campaignID, marketingChannel string) error
	UpdateNotesFunc     func(ctx context.Context, campaignID string, notes *string) error
	DeleteFunc          func(ctx context.Context, campaignID string) error

	mu    sync.Mutex
	Calls map[string]int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{Calls: make(map[string]int)}
}

func (m *mockCampaignRepo) called(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name]++
}

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	m.called("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	campaign.ID = 1
	campaign.FirstSeenAt = time.Now()
	return nil
}

func (m *mockCampaignRepo) Upsert(ctx context.Context, campaign *models.Campaign) error {
	m.called("Upsert")
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, campaign)
	}
	campaign.ID = 1
	campaign.FirstSeenAt = time.Now()
	return nil
}

func (m *mockCampaignRepo) GetByCampaignID(ctx context.Context, campaignID string) (*models.Campaign, error) {
	m.called("GetByCampaignID")
	if m.GetByCampaignIDFunc != nil {
		return m.GetByCampaignIDFunc(ctx, campaignID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockCampaignRepo) List(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, error) {
	m.called("List")
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return []*models.Campaign{}, nil
}

func (m *mockCampaignRepo) ListValid(ctx context.Context) ([]*models.Campaign, error) {
	m.called("ListValid")
	if m.ListValidFunc != nil {
		return m.ListValidFunc(ctx)
	}
	return []*models.Campaign{}, nil
}

func (m *mockCampaignRepo) CountValid(ctx context.Context) (int, error) {
	m.called("CountValid")
	if m.CountValidFunc != nil {
		return m.CountValidFunc(ctx)
	}
	return 0, nil
}

func (m *mockCampaignRepo) UpdateValidity(ctx context.Context, campaignID string, isValid, isExpired bool) error {
	m.called("UpdateValidity")
	if m.UpdateValidityFunc != nil {
		return m.UpdateValidityFunc(ctx, campaignID, isValid, isExpired)
	}
	return nil
}

func (m *mockCampaignRepo) UpdateChannel(ctx context.Context, campaignID, marketingChannel string) error {
	m.called("UpdateChannel")
	if m.UpdateChannelFunc != nil {
		return m.UpdateChannelFunc(ctx, campaignID, marketingChannel)
	}
	return nil
}

func (m *mockCampaignRepo) UpdateNotes(ctx context.Context, campaignID string, notes *string) error {
	m.called("UpdateNotes")
	if m.UpdateNotesFunc != nil {
		return m.UpdateNotesFunc(ctx, campaignID, notes)
	}
	return nil
}

func (m *mockCampaignRepo) Delete(ctx context.Context, campaignID string) error {
	m.called("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, campaignID)
	}
	return nil
}

// mockSubscriberRepo mocks repository.SubscriberRepository
type mockSubscriberRepo struct {
	CreateFunc             func(ctx context.Context, subscriber *models.Subscriber) error
	GetByPhoneFunc         func(ctx context.Context, phone string) (*models.Subscriber, error)
	ListFunc               func(ctx context.Context) ([]*models.Subscriber, error)
	ListWithPushTokensFunc func(ctx context.Context) ([]*models.Subscriber, error)
	DeleteFunc             func(ctx context.Context, phone string) error

	mu    sync.Mutex
	Calls map[string]int
}

func newMockSubscriberRepo() *mockSubscriberRepo {
	return &mockSubscriberRepo{Calls: make(map[string]int)}
}

func (m *mockSubscriberRepo) called(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name]++
}

func (m *mockSubscriberRepo) Create(ctx context.Context, subscriber *models.Subscriber) error {
	m.called("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, subscriber)
	}
	subscriber.ID = 1
	subscriber.CreatedAt = time.Now()
	return nil
}

func (m *mockSubscriberRepo) GetByPhone(ctx context.Context, phone string) (*models.Subscriber, error) {
	m.called("GetByPhone")
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubscriberRepo) List(ctx context.Context) ([]*models.Subscriber, error) {
	m.called("List")
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Subscriber{}, nil
}

func (m *mockSubscriberRepo) ListWithPushTokens(ctx context.Context) ([]*models.Subscriber, error) {
	m.called("ListWithPushTokens")
	if m.ListWithPushTokensFunc != nil {
		return m.ListWithPushTokensFunc(ctx)
	}
	return []*models.Subscriber{}, nil
}

func (m *mockSubscriberRepo) Delete(ctx context.Context, phone string) error {
	m.called("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, phone)
	}
	return nil
}

// mockDeliveryLogRepo mocks repository.DeliveryLogRepository. Created
// entries are collected so tests can assert on what was recorded;
// access is guarded because fan-out writes from multiple goroutines.
type mockDeliveryLogRepo struct {
	CreateFunc              func(ctx context.Context, entry *models.DeliveryLog) error
	ListFunc                func(ctx context.Context, limit int) ([]*models.DeliveryLog, error)
	ListByCampaignIDFunc    func(ctx context.Context, campaignID string) ([]*models.DeliveryLog, error)
	FirstForCampaignFunc    func(ctx context.Context, campaignID string) (*models.DeliveryLog, error)
	ListSuccessfulPairsFunc func(ctx context.Context) ([]repository.SendKey, error)

	mu      sync.Mutex
	Created []*models.DeliveryLog
}

func newMockDeliveryLogRepo() *mockDeliveryLogRepo {
	return &mockDeliveryLogRepo{Created: []*models.DeliveryLog{}}
}

func (m *mockDeliveryLogRepo) Create(ctx context.Context, entry *models.DeliveryLog) error {
	m.mu.Lock()
	m.Created = append(m.Created, entry)
	id := len(m.Created)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	entry.ID = id
	entry.CreatedAt = time.Now()
	return nil
}

func (m *mockDeliveryLogRepo) CreatedEntries() []*models.DeliveryLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.DeliveryLog, len(m.Created))
	copy(out, m.Created)
	return out
}

func (m *mockDeliveryLogRepo) List(ctx context.Context, limit int) ([]*models.DeliveryLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return m.CreatedEntries(), nil
}

func (m *mockDeliveryLogRepo) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.DeliveryLog, error) {
	if m.ListByCampaignIDFunc != nil {
		return m.ListByCampaignIDFunc(ctx, campaignID)
	}
	return []*models.DeliveryLog{}, nil
}

func (m *mockDeliveryLogRepo) FirstForCampaign(ctx context.Context, campaignID string) (*models.DeliveryLog, error) {
	if m.FirstForCampaignFunc != nil {
		return m.FirstForCampaignFunc(ctx, campaignID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockDeliveryLogRepo) ListSuccessfulPairs(ctx context.Context) ([]repository.SendKey, error) {
	if m.ListSuccessfulPairsFunc != nil {
		return m.ListSuccessfulPairsFunc(ctx)
	}
	return []repository.SendKey{}, nil
}

// mockSender mocks the voucher sender. Outcomes maps phone numbers to
// canned outcomes; OutcomeFunc overrides everything when set.
type mockSender struct {
	OutcomeFunc func(phone, campaignID string) voucher.Outcome
	Outcomes    map[string]voucher.Outcome
	Default     voucher.Outcome

	mu    sync.Mutex
	Sends []mockSend
}

type mockSend struct {
	Phone      string
	Platform   models.Platform
	CampaignID string
	Channel    string
}

func newMockSender() *mockSender {
	return &mockSender{
		Outcomes: map[string]voucher.Outcome{},
		Default:  voucher.Outcome{Kind: voucher.Accepted},
	}
}

func (m *mockSender) Send(ctx context.Context, phone string, platform models.Platform, campaignID, marketingChannel string) voucher.Outcome {
	m.mu.Lock()
	m.Sends = append(m.Sends, mockSend{Phone: phone, Platform: platform, CampaignID: campaignID, Channel: marketingChannel})
	m.mu.Unlock()

	if m.OutcomeFunc != nil {
		return m.OutcomeFunc(phone, campaignID)
	}
	if outcome, ok := m.Outcomes[phone]; ok {
		return outcome
	}
	return m.Default
}

func (m *mockSender) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sends)
}

func (m *mockSender) SentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	phones := make([]string, len(m.Sends))
	for i, s := range m.Sends {
		phones[i] = s.Phone
	}
	return phones
}

// mockPushSender mocks the push relay
type mockPushSender struct {
	SendBatchFunc func(ctx context.Context, messages []push.Message) ([]push.Ticket, error)

	mu      sync.Mutex
	Batches [][]push.Message
}

func (m *mockPushSender) SendBatch(ctx context.Context, messages []push.Message) ([]push.Ticket, error) {
	m.mu.Lock()
	m.Batches = append(m.Batches, messages)
	m.mu.Unlock()

	if m.SendBatchFunc != nil {
		return m.SendBatchFunc(ctx, messages)
	}
	tickets := make([]push.Ticket, len(messages))
	for i := range tickets {
		tickets[i] = push.Ticket{Status: "ok"}
	}
	return tickets, nil
}

// Test fixtures

func testCampaign(id string) *models.Campaign {
	return &models.Campaign{
		ID:               1,
		CampaignID:       id,
		MarketingChannel: "reddit",
		FullLink:         "https://coffree.capitalone.com/sms/?cid=" + id + "&mc=reddit",
		Source:           models.SourceManual,
		IsValid:          true,
		FirstSeenAt:      time.Now(),
	}
}

func testSubscribers(phones ...string) []*models.Subscriber {
	subs := make([]*models.Subscriber, len(phones))
	for i, phone := range phones {
		subs[i] = &models.Subscriber{
			ID:        i + 1,
			Phone:     phone,
			Platform:  models.PlatformAndroid,
			CreatedAt: time.Now(),
		}
	}
	return subs
}

func strPtr(s string) *string {
	return &s
}
