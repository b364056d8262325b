// services/scheduler.go
package services

import (
	"log"
	"time"

	"game-session-service/models"

	"github.com/go-co-op/gocron/v2"
)

const dailyScoreRetentionDays = 90

// StartMaintenanceScheduler runs the background housekeeping jobs: sweeping
// started-but-unfinished attempts to abandoned once their token can no longer
// be redeemed, and pruning old daily-score rows.
func (s *SessionService) StartMaintenanceScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 10 minutes: attempts older than the token TTL can never be
	// completed anymore — mark them abandoned so pending reports stay clean
	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			cutoff := s.now().UTC().Add(-GameTokenTTL)
			res := s.DB.Model(&models.GameAttempt{}).
				Where("status = ? AND started_at < ?", models.AttemptStarted, cutoff).
				Update("status", models.AttemptAbandoned)
			if res.Error != nil {
				log.Printf("[Scheduler] Abandon sweep failed: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("✅ Swept %d stale attempt(s) to abandoned", res.RowsAffected)
			}
		}),
	)

	// Daily: drop per-day score rows beyond the retention window
	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := dayKey(s.now().UTC().AddDate(0, 0, -dailyScoreRetentionDays))
			res := s.DB.Unscoped().Where("day < ?", cutoff).Delete(&models.UserDailyScore{})
			if res.Error != nil {
				log.Printf("[Scheduler] Daily score prune failed: %v", res.Error)
				return
			}
			if res.RowsAffected > 0 {
				log.Printf("✅ Pruned %d daily score row(s) older than %s", res.RowsAffected, cutoff)
			}
		}),
	)
}
