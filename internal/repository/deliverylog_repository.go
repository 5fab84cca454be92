package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jeffreyshi17/coffree/internal/models"
)

const deliveryLogColumns = `id, campaign_id, marketing_channel, link, phone_number, status, error_message, created_at`

type deliveryLogRepository struct {
	db DB
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(db DB) DeliveryLogRepository {
	return &deliveryLogRepository{db: db}
}

// Create appends a delivery log entry
func (r *deliveryLogRepository) Create(ctx context.Context, entry *models.DeliveryLog) error {
	query := `
		INSERT INTO message_logs (campaign_id, marketing_channel, link, phone_number, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.CampaignID,
		entry.MarketingChannel,
		entry.Link,
		entry.PhoneNumber,
		entry.Status,
		entry.ErrorMessage,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create delivery log: %w", err)
	}

	return nil
}

// List retrieves the most recent delivery log entries
func (r *deliveryLogRepository) List(ctx context.Context, limit int) ([]*models.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM message_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, deliveryLogColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	return scanDeliveryLogs(rows)
}

// ListByCampaignID retrieves all delivery log entries for a campaign
func (r *deliveryLogRepository) ListByCampaignID(ctx context.Context, campaignID string) ([]*models.DeliveryLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM message_logs
		WHERE campaign_id = $1
		ORDER BY created_at DESC
	`, deliveryLogColumns)

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs by campaign: %w", err)
	}
	defer rows.Close()

	return scanDeliveryLogs(rows)
}

// FirstForCampaign retrieves the earliest delivery log entry for a
// campaign, or ErrNotFound when the campaign was never distributed.
// This is the duplicate-submission probe.
func (r *deliveryLogRepository) FirstForCampaign(ctx context.Context, campaignID string) (*models.DeliveryLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM message_logs
		WHERE campaign_id = $1
		ORDER BY created_at ASC
		LIMIT 1
	`, deliveryLogColumns)

	entry := &models.DeliveryLog{}
	err := r.db.QueryRowContext(ctx, query, campaignID).Scan(
		&entry.ID,
		&entry.CampaignID,
		&entry.MarketingChannel,
		&entry.Link,
		&entry.PhoneNumber,
		&entry.Status,
		&entry.ErrorMessage,
		&entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get first delivery log: %w", err)
	}

	return entry, nil
}

// ListSuccessfulPairs retrieves the (campaign, phone) pairs with at
// least one successful delivery. Used by gap reconciliation.
func (r *deliveryLogRepository) ListSuccessfulPairs(ctx context.Context) ([]SendKey, error) {
	query := `
		SELECT DISTINCT campaign_id, phone_number
		FROM message_logs
		WHERE status = 'success'
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list successful sends: %w", err)
	}
	defer rows.Close()

	pairs := []SendKey{}
	for rows.Next() {
		var key SendKey
		if err := rows.Scan(&key.CampaignID, &key.PhoneNumber); err != nil {
			return nil, fmt.Errorf("failed to scan send key: %w", err)
		}
		pairs = append(pairs, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read successful sends: %w", err)
	}

	return pairs, nil
}

// scanDeliveryLogs reads delivery log rows into models
func scanDeliveryLogs(rows *sql.Rows) ([]*models.DeliveryLog, error) {
	entries := []*models.DeliveryLog{}
	for rows.Next() {
		entry := &models.DeliveryLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.CampaignID,
			&entry.MarketingChannel,
			&entry.Link,
			&entry.PhoneNumber,
			&entry.Status,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read delivery logs: %w", err)
	}

	return entries, nil
}
