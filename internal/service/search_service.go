package service

import (
	"context"
	"fmt"

	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/repository"
)

// SearchLogService records and exposes discovery run history
type SearchLogService struct {
	searchLogRepo repository.SearchLogRepository
}

// NewSearchLogService creates a search log service
func NewSearchLogService(searchLogRepo repository.SearchLogRepository) *SearchLogService {
	return &SearchLogService{searchLogRepo: searchLogRepo}
}

// Record appends one discovery run entry
func (s *SearchLogService) Record(ctx context.Context, entry *models.SearchLog) error {
	if err := entry.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if err := s.searchLogRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to record search log: %w", err)
	}
	return nil
}

// List retrieves recent discovery runs, optionally filtered by status
func (s *SearchLogService) List(ctx context.Context, limit int, status *models.SearchStatus) ([]*models.SearchLog, error) {
	entries, err := s.searchLogRepo.List(ctx, limit, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list search logs: %w", err)
	}
	return entries, nil
}
