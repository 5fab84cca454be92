package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jeffreyshi17/coffree/internal/models"
)

type subscriberRepository struct {
	db DB
}

// NewSubscriberRepository creates a new subscriber repository
func NewSubscriberRepository(db DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

// Create creates a new subscriber. The phone column carries a unique
// constraint; callers should check for an existing subscription first.
func (r *subscriberRepository) Create(ctx context.Context, subscriber *models.Subscriber) error {
	query := `
		INSERT INTO phone_numbers (phone, platform, push_token)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		subscriber.Phone,
		subscriber.Platform,
		subscriber.PushToken,
	).Scan(&subscriber.ID, &subscriber.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

// GetByPhone retrieves a subscriber by normalized phone number
func (r *subscriberRepository) GetByPhone(ctx context.Context, phone string) (*models.Subscriber, error) {
	query := `
		SELECT id, phone, platform, push_token, created_at
		FROM phone_numbers
		WHERE phone = $1
	`

	subscriber := &models.Subscriber{}
	err := r.db.QueryRowContext(ctx, query, phone).Scan(
		&subscriber.ID,
		&subscriber.Phone,
		&subscriber.Platform,
		&subscriber.PushToken,
		&subscriber.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	return subscriber, nil
}

// List retrieves all subscribers, newest first
func (r *subscriberRepository) List(ctx context.Context) ([]*models.Subscriber, error) {
	query := `
		SELECT id, phone, platform, push_token, created_at
		FROM phone_numbers
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	return scanSubscribers(rows)
}

// ListWithPushTokens retrieves subscribers that registered a push token
func (r *subscriberRepository) ListWithPushTokens(ctx context.Context) ([]*models.Subscriber, error) {
	query := `
		SELECT id, phone, platform, push_token, created_at
		FROM phone_numbers
		WHERE push_token IS NOT NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers with push tokens: %w", err)
	}
	defer rows.Close()

	return scanSubscribers(rows)
}

// Delete removes a subscriber by normalized phone number
func (r *subscriberRepository) Delete(ctx context.Context, phone string) error {
	query := `DELETE FROM phone_numbers WHERE phone = $1`

	result, err := r.db.ExecContext(ctx, query, phone)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	return requireRowsAffected(result)
}

// scanSubscribers reads subscriber rows into models
func scanSubscribers(rows *sql.Rows) ([]*models.Subscriber, error) {
	subscribers := []*models.Subscriber{}
	for rows.Next() {
		subscriber := &models.Subscriber{}
		err := rows.Scan(
			&subscriber.ID,
			&subscriber.Phone,
			&subscriber.Platform,
			&subscriber.PushToken,
			&subscriber.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, subscriber)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscribers: %w", err)
	}

	return subscribers, nil
}
