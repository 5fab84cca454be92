package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/jeffreyshi17/coffree/internal/models"
)

type searchLogRepository struct {
	db DB
}

// NewSearchLogRepository creates a new search log repository
func NewSearchLogRepository(db DB) SearchLogRepository {
	return &searchLogRepository{db: db}
}

// Create appends a search log entry
func (r *searchLogRepository) Create(ctx context.Context, entry *models.SearchLog) error {
	query := `
		INSERT INTO search_logs (search_type, status, campaigns_found, new_campaigns,
			subreddits_searched, error_message, started_at, completed_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		entry.SearchType,
		entry.Status,
		entry.CampaignsFound,
		entry.NewCampaigns,
		pq.Array(entry.SubredditsSearched),
		entry.ErrorMessage,
		entry.StartedAt,
		entry.CompletedAt,
		entry.DurationSeconds,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to create search log: %w", err)
	}

	return nil
}

// List retrieves the most recent search log entries, optionally
// filtered by status
func (r *searchLogRepository) List(ctx context.Context, limit int, status *models.SearchStatus) ([]*models.SearchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, search_type, status, campaigns_found, new_campaigns,
			subreddits_searched, error_message, started_at, completed_at, duration_seconds
		FROM search_logs
	`
	args := []interface{}{}

	if status != nil {
		query += " WHERE status = $1 ORDER BY started_at DESC LIMIT $2"
		args = append(args, *status, limit)
	} else {
		query += " ORDER BY started_at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list search logs: %w", err)
	}
	defer rows.Close()

	entries := []*models.SearchLog{}
	for rows.Next() {
		entry := &models.SearchLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.SearchType,
			&entry.Status,
			&entry.CampaignsFound,
			&entry.NewCampaigns,
			pq.Array(&entry.SubredditsSearched),
			&entry.ErrorMessage,
			&entry.StartedAt,
			&entry.CompletedAt,
			&entry.DurationSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search logs: %w", err)
	}

	return entries, nil
}
