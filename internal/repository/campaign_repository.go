package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jeffreyshi17/coffree/internal/models"
)

const campaignColumns = `id, campaign_id, marketing_channel, full_link, source, is_valid, is_expired,
		first_seen_at, first_submitted_at, notes, reddit_post_url, reddit_subreddit`

type campaignRepository struct {
	db DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create creates a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (campaign_id, marketing_channel, full_link, source, is_valid, is_expired,
			first_submitted_at, notes, reddit_post_url, reddit_subreddit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, first_seen_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.CampaignID,
		campaign.MarketingChannel,
		campaign.FullLink,
		campaign.Source,
		campaign.IsValid,
		campaign.IsExpired,
		campaign.FirstSubmittedAt,
		campaign.Notes,
		campaign.RedditPostURL,
		campaign.RedditSubreddit,
	).Scan(&campaign.ID, &campaign.FirstSeenAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// Upsert inserts a campaign or, when the campaign_id already exists,
// refreshes its link and preserves the earliest submission timestamp.
// Notes and reddit provenance are write-once-ish: a new non-null value
// wins, a null one never erases what discovery already recorded.
func (r *campaignRepository) Upsert(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (campaign_id, marketing_channel, full_link, source, is_valid, is_expired,
			first_submitted_at, notes, reddit_post_url, reddit_subreddit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (campaign_id) DO UPDATE SET
			marketing_channel = EXCLUDED.marketing_channel,
			full_link = EXCLUDED.full_link,
			is_valid = EXCLUDED.is_valid,
			is_expired = EXCLUDED.is_expired,
			first_submitted_at = COALESCE(campaigns.first_submitted_at, EXCLUDED.first_submitted_at),
			notes = COALESCE(EXCLUDED.notes, campaigns.notes),
			reddit_post_url = COALESCE(EXCLUDED.reddit_post_url, campaigns.reddit_post_url),
			reddit_subreddit = COALESCE(EXCLUDED.reddit_subreddit, campaigns.reddit_subreddit)
		RETURNING id, first_seen_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.CampaignID,
		campaign.MarketingChannel,
		campaign.FullLink,
		campaign.Source,
		campaign.IsValid,
		campaign.IsExpired,
		campaign.FirstSubmittedAt,
		campaign.Notes,
		campaign.RedditPostURL,
		campaign.RedditSubreddit,
	).Scan(&campaign.ID, &campaign.FirstSeenAt)

	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}

	return nil
}

// GetByCampaignID retrieves a campaign by its external campaign ID
func (r *campaignRepository) GetByCampaignID(ctx context.Context, campaignID string) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE campaign_id = $1`, campaignColumns)

	campaign := &models.Campaign{}
	err := r.db.QueryRowContext(ctx, query, campaignID).Scan(
		&campaign.ID,
		&campaign.CampaignID,
		&campaign.MarketingChannel,
		&campaign.FullLink,
		&campaign.Source,
		&campaign.IsValid,
		&campaign.IsExpired,
		&campaign.FirstSeenAt,
		&campaign.FirstSubmittedAt,
		&campaign.Notes,
		&campaign.RedditPostURL,
		&campaign.RedditSubreddit,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// List retrieves campaigns with filters, newest first
func (r *campaignRepository) List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM campaigns WHERE 1=1`, campaignColumns))

	args := []interface{}{}
	argPos := 1

	if filters.Source != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND source = $%d", argPos))
		args = append(args, *filters.Source)
		argPos++
	}

	if filters.IsValid != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_valid = $%d", argPos))
		args = append(args, *filters.IsValid)
		argPos++
	}

	if filters.IsExpired != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND is_expired = $%d", argPos))
		args = append(args, *filters.IsExpired)
		argPos++
	}

	queryBuilder.WriteString(" ORDER BY first_seen_at DESC")

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argPos))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// ListValid retrieves every campaign still worth sending, newest first
func (r *campaignRepository) ListValid(ctx context.Context) ([]*models.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns
		WHERE is_valid = TRUE AND is_expired = FALSE
		ORDER BY first_seen_at DESC
	`, campaignColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list valid campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// CountValid counts campaigns that are valid and not expired
func (r *campaignRepository) CountValid(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM campaigns WHERE is_valid = TRUE AND is_expired = FALSE`

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count valid campaigns: %w", err)
	}

	return count, nil
}

// UpdateValidity updates a campaign's validity flags
func (r *campaignRepository) UpdateValidity(ctx context.Context, campaignID string, isValid, isExpired bool) error {
	query := `
		UPDATE campaigns
		SET is_valid = $1, is_expired = $2
		WHERE campaign_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, isValid, isExpired, campaignID)
	if err != nil {
		return fmt.Errorf("failed to update campaign validity: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateChannel replaces a campaign's stored marketing channel
func (r *campaignRepository) UpdateChannel(ctx context.Context, campaignID, marketingChannel string) error {
	query := `
		UPDATE campaigns
		SET marketing_channel = $1
		WHERE campaign_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, marketingChannel, campaignID)
	if err != nil {
		return fmt.Errorf("failed to update marketing channel: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdateNotes replaces a campaign's notes
func (r *campaignRepository) UpdateNotes(ctx context.Context, campaignID string, notes *string) error {
	query := `
		UPDATE campaigns
		SET notes = $1
		WHERE campaign_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, notes, campaignID)
	if err != nil {
		return fmt.Errorf("failed to update notes: %w", err)
	}

	return requireRowsAffected(result)
}

// Delete removes a campaign
func (r *campaignRepository) Delete(ctx context.Context, campaignID string) error {
	query := `DELETE FROM campaigns WHERE campaign_id = $1`

	result, err := r.db.ExecContext(ctx, query, campaignID)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	return requireRowsAffected(result)
}

// scanCampaigns reads campaign rows into models
func scanCampaigns(rows *sql.Rows) ([]*models.Campaign, error) {
	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign := &models.Campaign{}
		err := rows.Scan(
			&campaign.ID,
			&campaign.CampaignID,
			&campaign.MarketingChannel,
			&campaign.FullLink,
			&campaign.Source,
			&campaign.IsValid,
			&campaign.IsExpired,
			&campaign.FirstSeenAt,
			&campaign.FirstSubmittedAt,
			&campaign.Notes,
			&campaign.RedditPostURL,
			&campaign.RedditSubreddit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read campaigns: %w", err)
	}

	return campaigns, nil
}

// requireRowsAffected converts a zero-row update into ErrNotFound
func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
