package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"game-session-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSessionAlreadySubmitted is the replay rejection: the ledger already holds
// a row for this session id.
var ErrSessionAlreadySubmitted = errors.New("session already submitted")

// SessionService owns the play lifecycle: issuing sessions, validating and
// recording scores, and abandonment bookkeeping.
type SessionService struct {
	DB      *gorm.DB
	Tokens  *TokenService
	Config  *ConfigService
	Credits *CreditServiceClient

	now func() time.Time
}

func NewSessionService(db *gorm.DB, tokens *TokenService, config *ConfigService, credits *CreditServiceClient) *SessionService {
	return &SessionService{
		DB:      db,
		Tokens:  tokens,
		Config:  config,
		Credits: credits,
		now:     time.Now,
	}
}

// StartGame mints a play session. The external credit service is the arbiter
// of whether the user may play; consuming the credit is the side effect here.
func (s *SessionService) StartGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	playsRemaining, err := s.Credits.Consume(userID)
	if err != nil {
		if errors.Is(err, ErrNoPlaysRemaining) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "no plays remaining"})
		}
		log.Printf("❌ [GAME_START] Credit consume failed for %s: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "credit service unavailable"})
	}

	token, challenge, sessionID, err := s.Tokens.IssueGameToken(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to issue game token"})
	}

	attempt := models.GameAttempt{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    models.AttemptStarted,
		StartedAt: s.now().UTC(),
	}
	if err := s.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record game attempt"})
	}

	return c.JSON(fiber.Map{
		"gameToken":      token,
		"challenge":      challenge,
		"sessionId":      sessionID,
		"playsRemaining": playsRemaining,
	})
}

// endGamePayload uses pointers so missing fields are distinguishable from
// zero values. A missing field is a 400.
type endGamePayload struct {
	Score     *int    `json:"score"`
	Duration  *int64  `json:"duration"` // whole seconds, advisory
	GameToken *string `json:"gameToken"`
	Signature *string `json:"signature"`
}

// EndGame consumes a game token exactly once: verify identity, derive the
// server-side duration, bound the score, and record it behind the
// single-insert-wins ledger.
func (s *SessionService) EndGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var p endGamePayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if p.Score == nil || p.Duration == nil || p.GameToken == nil || p.Signature == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score, duration, gameToken and signature are required"})
	}

	token, err := s.Tokens.VerifyGameToken(*p.GameToken, userID)
	if err != nil {
		if errors.Is(err, ErrTokenUserMismatch) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "game token user mismatch"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid or expired game token"})
	}

	// The signature covers the client's own claimed values
	if err := s.Tokens.VerifyPayloadSignature(token.SessionID, *p.GameToken, *p.Score, *p.Duration, *p.Signature); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payload signature mismatch"})
	}

	// Server clock is the source of truth for duration; the client value is
	// advisory and only feeds a suspicion flag when it diverges.
	now := s.now().UTC()
	serverDuration := int64(now.Sub(token.StartTime).Seconds())
	if serverDuration < 0 {
		serverDuration = 0
	}

	cfg, err := s.Config.ActiveConfig()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load difficulty config"})
	}

	day := dayKey(now)
	todayTotal := 0
	var daily models.UserDailyScore
	switch err := s.DB.Where("user_id = ? AND day = ?", userID, day).First(&daily).Error; {
	case err == nil:
		todayTotal = daily.Total
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first submission today
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read daily score"})
	}

	result := Validate(*p.Score, float64(serverDuration), cfg, todayTotal)
	if diff := serverDuration - *p.Duration; diff > DurationMismatchToleranceSec || diff < -DurationMismatchToleranceSec {
		result.Flag(ReasonDurationMismatch)
	}

	finalScore := result.ValidatedScore
	totalAfter := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Ensure the daily row exists before locking it. Two first submissions
		// of the day can race here: ON CONFLICT DO NOTHING lets the loser fall
		// through to the read below instead of failing on idx_user_day.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoNothing: true,
		}).Create(&models.UserDailyScore{ID: uuid.NewString(), UserID: userID, Day: day}).Error; err != nil {
			return err
		}

		// Binding daily-cap clamp: read under lock so two racing submits
		// cannot both pass the cap. SQLite serializes writers on its own, so
		// the row lock is postgres-only.
		q := tx.Where("user_id = ? AND day = ?", userID, day)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row models.UserDailyScore
		if err := q.First(&row).Error; err != nil {
			return err
		}

		remaining := DailyScoreCap - row.Total
		if remaining < 0 {
			remaining = 0
		}
		if finalScore > remaining {
			finalScore = remaining
			result.Flag(ReasonDailyCapReached)
		}

		session := models.GameSession{
			ID:          uuid.NewString(),
			SessionID:   token.SessionID,
			UserID:      userID,
			Score:       finalScore,
			DurationSec: serverDuration,
			Flagged:     len(result.Reasons) > 0,
		}
		if err := tx.Create(&session).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return ErrSessionAlreadySubmitted
			}
			return err
		}

		row.Total += finalScore
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		totalAfter = row.Total

		ended := now
		return tx.Model(&models.GameAttempt{}).
			Where("session_id = ? AND status = ?", token.SessionID, models.AttemptStarted).
			Updates(map[string]interface{}{"status": models.AttemptCompleted, "ended_at": &ended}).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionAlreadySubmitted) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session already submitted"})
		}
		log.Printf("❌ [GAME_END] Ledger write failed for session %s: %v", token.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record session"})
	}

	// Flagged-but-accepted: keep forensic evidence, never block the player
	if len(result.Reasons) > 0 {
		audit := models.SuspiciousActivity{
			ID:             uuid.NewString(),
			SessionID:      token.SessionID,
			UserID:         userID,
			ClaimedScore:   *p.Score,
			ValidatedScore: finalScore,
			DurationSec:    serverDuration,
			Reasons:        strings.Join(result.Reasons, ","),
		}
		if err := s.DB.Create(&audit).Error; err != nil {
			log.Printf("⚠️  Failed to record suspicious activity for session %s: %v", token.SessionID, err)
		} else {
			log.Printf("🚩 Flagged session %s (user %s): claimed=%d validated=%d reasons=%s",
				token.SessionID, userID, *p.Score, finalScore, audit.Reasons)
		}
	}

	response := fiber.Map{
		"validatedScore":  finalScore,
		"totalScoreAfter": totalAfter,
	}
	if playsRemaining, err := s.Credits.Remaining(userID); err != nil {
		// The score is recorded; a balance lookup failure must not undo that
		log.Printf("⚠️  Credit balance lookup failed for %s: %v", userID, err)
	} else {
		response["playsRemaining"] = playsRemaining
	}
	return c.JSON(response)
}

type abandonPayload struct {
	GameToken *string `json:"gameToken"`
}

// AbandonGame is the fire-and-forget page-unload hook. Pure bookkeeping:
// abandoned attempts drop out of pending reports; anti-cheat does not rely
// on it.
func (s *SessionService) AbandonGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var p abandonPayload
	if err := c.BodyParser(&p); err != nil || p.GameToken == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "gameToken is required"})
	}
	token, err := s.Tokens.VerifyGameToken(*p.GameToken, userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid or expired game token"})
	}

	ended := s.now().UTC()
	res := s.DB.Model(&models.GameAttempt{}).
		Where("session_id = ? AND status = ?", token.SessionID, models.AttemptStarted).
		Updates(map[string]interface{}{"status": models.AttemptAbandoned, "ended_at": &ended})
	if res.Error != nil {
		log.Printf("⚠️  Abandon update failed for session %s: %v", token.SessionID, res.Error)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TodayScore reports the user's cumulative validated score and remaining cap.
func (s *SessionService) TodayScore(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	day := dayKey(s.now().UTC())

	total := 0
	var daily models.UserDailyScore
	err := s.DB.Where("user_id = ? AND day = ?", userID, day).First(&daily).Error
	switch {
	case err == nil:
		total = daily.Total
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read daily score"})
	}

	remaining := DailyScoreCap - total
	if remaining < 0 {
		remaining = 0
	}
	return c.JSON(fiber.Map{"day": day, "total": total, "remaining": remaining})
}

// dayKey buckets timestamps into UTC calendar days for the cumulative cap.
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// isDuplicateKeyErr matches unique-constraint violations across drivers.
// gorm translates them to ErrDuplicatedKey where the dialector supports it;
// the string checks cover postgres and sqlite otherwise.
func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
