package models

import (
	"time"

	"github.com/humexxx/capital-galaxy/internal/uuid"

	"gorm.io/gorm"
)

// Job operation names recorded in the job_runs log.
const (
	JobOperationInterest       = "interest_run"
	JobOperationSnapshot       = "snapshot_run"
	JobOperationTaskAutomation = "task_automation_run"
	JobOperationCronError      = "cron_error"
)

// JobRun is one entry in the append-only scheduled-job audit log. The latest
// row per operation answers "when did this last run" for idempotency and
// missed-run catch-up; Error is set when the run failed.
type JobRun struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Operation string    `gorm:"not null;index" json:"operation"`
	RanAt     time.Time `gorm:"not null" json:"ran_at"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (j *JobRun) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New()
	}
	return nil
}
