package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/models"
)

// jobStateService records scheduled-job outcomes in the append-only job_runs
// log. Appending instead of mutating one row per key keeps the full audit
// history and sidesteps lost updates between overlapping runs.
type jobStateService struct {
	db *gorm.DB
}

// NewJobStateService creates a new JobStateServicer.
func NewJobStateService(db *gorm.DB) JobStateServicer {
	return &jobStateService{db: db}
}

// Record appends a run entry for the operation. Recording errors are logged
// but never propagate, so bookkeeping cannot fail the job it describes.
func (s *jobStateService) Record(operation string, ranAt time.Time, runErr error) {
	entry := &models.JobRun{
		Operation: operation,
		RanAt:     ranAt,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to record job run",
			"operation", operation,
			"ran_at", ranAt,
			"error", err,
		)
	}
}

// LastRun returns the most recent run entry for the operation, or nil when
// the operation has never run.
func (s *jobStateService) LastRun(operation string) (*models.JobRun, error) {
	var run models.JobRun
	err := s.db.Where("operation = ?", operation).
		Order("ran_at DESC").Order("created_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &run, nil
}
