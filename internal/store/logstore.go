package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an update matches no log record.
	ErrNotFound = errors.New("log record not found")
	// ErrInvalid is returned when update input fails validation.
	ErrInvalid = errors.New("invalid input")
)

// LogStore reads and partially updates the externally owned log_data table.
type LogStore struct {
	db *gorm.DB
}

func NewLogStore(db *gorm.DB) *LogStore {
	return &LogStore{db: db}
}

// FetchAll returns every log record, newest first.
func (s *LogStore) FetchAll(ctx context.Context) ([]models.LogRecord, error) {
	var records []models.LogRecord
	if err := s.db.WithContext(ctx).Order("log_date DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch log records: %w", err)
	}
	return records, nil
}

// Update sets the ticket number and status of one log record. The ticket
// number must be non-blank and the status one of the known values.
func (s *LogStore) Update(ctx context.Context, logID int64, ticketNumber string, status models.LogStatus) error {
	if strings.TrimSpace(ticketNumber) == "" {
		return fmt.Errorf("%w: ticket number must not be empty", ErrInvalid)
	}
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}

	result := s.db.WithContext(ctx).
		Model(&models.LogRecord{}).
		Where("log_id = ?", logID).
		Updates(map[string]interface{}{
			"ticket_number": ticketNumber,
			"status":        status,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update log record %d: %w", logID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: no log record with log_id %d", ErrNotFound, logID)
	}
	return nil
}
