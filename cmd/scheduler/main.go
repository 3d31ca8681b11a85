// Command scheduler triggers the daily job endpoint on a cron schedule.
// It runs as a sidecar where no external cron service is available.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/humexxx/capital-galaxy/internal/config"
	"github.com/humexxx/capital-galaxy/internal/logger"
)

const defaultSchedule = "5 0 * * *" // 00:05 UTC daily

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET must be set")
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + appConfig.Port
	}
	schedule := os.Getenv("CRON_SCHEDULE")
	if schedule == "" {
		schedule = defaultSchedule
	}

	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := triggerDaily(ctx, baseURL, appConfig.CronSecret); err != nil {
			log.Errorw("daily trigger failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	log.Infow("scheduler started", "schedule", schedule, "target", baseURL)
	c.Start()

	// Block until interrupted, then let in-flight jobs finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	log.Infow("scheduler stopped")
	return nil
}

func triggerDaily(ctx context.Context, baseURL, secret string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/cron/daily", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling daily endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daily endpoint returned status %d", resp.StatusCode)
	}

	var result struct {
		Success          bool     `json:"success"`
		SnapshotsCreated int      `json:"snapshots_created"`
		Errors           []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding daily response: %w", err)
	}

	if !result.Success {
		logger.Get().Warnw("daily run reported errors",
			"errors", result.Errors,
			"snapshots_created", result.SnapshotsCreated,
		)
	} else {
		logger.Get().Infow("daily run completed",
			"snapshots_created", result.SnapshotsCreated,
		)
	}
	return nil
}
