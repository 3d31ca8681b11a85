package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/models"
)

// dailyJobService is the scheduled entry point. It decides whether the
// monthly interest run is due, then runs the snapshot pass and the
// task-automation pass. The three sub-operations are deliberately not
// atomic: each commits on its own so a transient failure in one never rolls
// back the others, and every outcome lands in the job_runs log.
type dailyJobService struct {
	interestService InterestServicer
	snapshotService SnapshotServicer
	userService     UserServicer
	jobState        JobStateServicer
	taskAutomator   TaskAutomator
}

// NewDailyJobService creates a new DailyJobServicer. taskAutomator may be
// nil when no productivity collaborator is configured; the automation pass
// is then skipped.
func NewDailyJobService(
	interestService InterestServicer,
	snapshotService SnapshotServicer,
	userService UserServicer,
	jobState JobStateServicer,
	taskAutomator TaskAutomator,
) DailyJobServicer {
	return &dailyJobService{
		interestService: interestService,
		snapshotService: snapshotService,
		userService:     userService,
		jobState:        jobState,
		taskAutomator:   taskAutomator,
	}
}

// interestDue reports whether a monthly interest run is due. Due
// unconditionally on the first calendar day of the month (UTC). Otherwise a
// catch-up run is due when the last recorded run's month is strictly before
// the current month; a gap of any length triggers exactly one catch-up run.
// With no prior run at all this is a fresh install with nothing accrued, so
// nothing is due.
func interestDue(today time.Time, lastRun *time.Time) bool {
	today = today.UTC()
	if today.Day() == 1 {
		return true
	}
	if lastRun == nil {
		return false
	}
	last := lastRun.UTC()
	if last.Year() != today.Year() {
		return last.Year() < today.Year()
	}
	return last.Month() < today.Month()
}

// firstOfMonth returns midnight UTC on the first day of t's month.
func firstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RunDaily executes the daily orchestration: conditional interest accrual,
// the snapshot pass, and the task-automation pass, each isolated so a
// failure in one does not abort the others.
func (s *dailyJobService) RunDaily(ctx context.Context, now time.Time) *DailyRunResult {
	today := now.UTC()
	result := &DailyRunResult{
		Date:   today,
		Errors: []string{},
	}

	s.runInterest(result, today)
	s.runSnapshots(result, today)
	s.runTaskAutomation(ctx, result, today)

	result.Success = len(result.Errors) == 0
	return result
}

func (s *dailyJobService) runInterest(result *DailyRunResult, today time.Time) {
	lastRun, err := s.jobState.LastRun(models.JobOperationInterest)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("interest: reading last run: %v", err))
		return
	}

	var lastRanAt *time.Time
	if lastRun != nil {
		lastRanAt = &lastRun.RanAt
	}
	if !interestDue(today, lastRanAt) {
		return
	}

	// A catch-up run accrues one missed month; positions opened in the
	// current month did not exist at the missed boundary and are excluded.
	var cutoff *time.Time
	if today.Day() != 1 {
		boundary := firstOfMonth(today)
		cutoff = &boundary
	}

	interestResult, err := s.interestService.ApplyMonthlyInterest(cutoff)
	s.jobState.Record(models.JobOperationInterest, today, err)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("interest: %v", err))
		return
	}

	result.InterestApplied = true
	result.InterestResult = interestResult
	logger.Get().Infow("monthly interest applied",
		"processed", interestResult.Processed,
		"closed", interestResult.Closed,
		"catch_up", cutoff != nil,
	)
}

func (s *dailyJobService) runSnapshots(result *DailyRunResult, today time.Time) {
	snapshotResult := s.snapshotService.SnapshotAll(today)
	result.SnapshotsCreated = snapshotResult.Created

	var runErr error
	if len(snapshotResult.Errors) > 0 {
		runErr = errors.New(strings.Join(snapshotResult.Errors, "; "))
		for _, e := range snapshotResult.Errors {
			result.Errors = append(result.Errors, "snapshots: "+e)
		}
	}
	s.jobState.Record(models.JobOperationSnapshot, today, runErr)
}

func (s *dailyJobService) runTaskAutomation(ctx context.Context, result *DailyRunResult, today time.Time) {
	if s.taskAutomator == nil {
		logger.Get().Infow("task automation not configured, skipping")
		return
	}

	userIDs, err := s.userService.ListActiveUserIDs()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("task automation: listing users: %v", err))
		s.jobState.Record(models.JobOperationTaskAutomation, today, err)
		return
	}

	var failed []string
	for _, userID := range userIDs {
		userResult := TaskAutomationResult{UserID: userID}
		tasks, runErr := s.taskAutomator.Run(ctx, userID)
		if runErr != nil {
			userResult.Error = runErr.Error()
			failed = append(failed, fmt.Sprintf("user %s: %v", userID, runErr))
			result.Errors = append(result.Errors, fmt.Sprintf("task automation: user %s: %v", userID, runErr))
		} else {
			userResult.TasksCreated = tasks
		}
		result.TaskCreationResults = append(result.TaskCreationResults, userResult)
	}

	var runErr error
	if len(failed) > 0 {
		runErr = errors.New(strings.Join(failed, "; "))
	}
	s.jobState.Record(models.JobOperationTaskAutomation, today, runErr)
}
