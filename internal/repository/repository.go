package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jeffreyshi17/coffree/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// CampaignRepository defines campaign data access operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	Upsert(ctx context.Context, campaign *models.Campaign) error
	GetByCampaignID(ctx context.Context, campaignID string) (*models.Campaign, error)
	List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, error)
	ListValid(ctx context.Context) ([]*models.Campaign, error)
	CountValid(ctx context.Context) (int, error)
	UpdateValidity(ctx context.Context, campaignID string, isValid, isExpired bool) error
	UpdateChannel(ctx context.Context, campaignID, marketingChannel string) error
	UpdateNotes(ctx context.Context, campaignID string, notes *string) error
	Delete(ctx context.Context, campaignID string) error
}

// CampaignFilters defines filters for listing campaigns
type CampaignFilters struct {
	Source    *models.Source
	IsValid   *bool
	IsExpired *bool
	Limit     int
}

// SubscriberRepository defines phone subscriber data access operations
type SubscriberRepository interface {
	Create(ctx context.Context, subscriber *models.Subscriber) error
	GetByPhone(ctx context.Context, phone string) (*models.Subscriber, error)
	List(ctx context.Context) ([]*models.Subscriber, error)
	ListWithPushTokens(ctx context.Context) ([]*models.Subscriber, error)
	Delete(ctx context.Context, phone string) error
}

// SendKey identifies one delivered (campaign, phone) pair
type SendKey struct {
	CampaignID  string
	PhoneNumber string
}

// DeliveryLogRepository defines delivery log data access operations.
// The log is append-only: there are no update or delete operations.
type DeliveryLogRepository interface {
	Create(ctx context.Context, entry *models.DeliveryLog) error
	List(ctx context.Context, limit int) ([]*models.DeliveryLog, error)
	ListByCampaignID(ctx context.Context, campaignID string) ([]*models.DeliveryLog, error)
	FirstForCampaign(ctx context.Context, campaignID string) (*models.DeliveryLog, error)
	ListSuccessfulPairs(ctx context.Context) ([]SendKey, error)
}

// SearchLogRepository defines search log data access operations
type SearchLogRepository interface {
	Create(ctx context.Context, entry *models.SearchLog) error
	List(ctx context.Context, limit int, status *models.SearchStatus) ([]*models.SearchLog, error)
}

// DB is the database handle the repositories run their statements
// against. Both *sql.DB and *sql.Tx satisfy it, so a caller can scope
// a repository to a transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
