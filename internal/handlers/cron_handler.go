package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/humexxx/capital-galaxy/internal/errors"
	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/models"
	"github.com/humexxx/capital-galaxy/internal/services"
)

// CronHandler handles the scheduled daily job endpoint.
type CronHandler struct {
	dailyJobService services.DailyJobServicer
	jobStateService services.JobStateServicer
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(dailyJobService services.DailyJobServicer, jobStateService services.JobStateServicer) *CronHandler {
	return &CronHandler{dailyJobService: dailyJobService, jobStateService: jobStateService}
}

// RunDaily handles the daily orchestration trigger.
// Partial failures still return 200 with the per-operation error list;
// callers inspect success and errors rather than the status code alone.
// @Summary     Run daily job
// @Description Run interest accrual, snapshots, and task automation for the day (cron endpoint)
// @Tags        cron
// @Accept      json
// @Produce     json
// @Param       Authorization header   string                   true "Bearer cron secret"
// @Success     200           {object} services.DailyRunResult  "Run outcome, including partial failures"
// @Failure     401           {object} ErrorResponse            "Invalid cron secret"
// @Failure     500           {object} ErrorResponse            "Run aborted"
// @Failure     503           {object} ErrorResponse            "Cron not configured"
// @Router      /cron/daily [post]
func (h *CronHandler) RunDaily(c *gin.Context) {
	now := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("daily job panicked", "panic", r)
			h.jobStateService.Record(models.JobOperationCronError, now, fmt.Errorf("panic: %v", r))
			respondWithError(c, apperrors.ErrInternalServer)
		}
	}()

	result := h.dailyJobService.RunDaily(c.Request.Context(), now)
	if !result.Success {
		logger.Get().Warnw("daily job completed with errors",
			"errors", result.Errors,
			"snapshots_created", result.SnapshotsCreated,
		)
	}

	c.JSON(http.StatusOK, result)
}
