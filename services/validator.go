package services

import (
	"math"

	"game-session-service/models"
)

// Validation limits (tunable via a new DifficultyConfig version where noted;
// these are the config-independent floors and caps).
const (
	MinGameDurationSec        = 3.0
	MaxGameDurationSec        = 300.0
	MinSecondsForNonzeroScore = 5.0
	MinSecondsPerPoint        = 1.0
	HardCapPerGame            = 300
	DailyScoreCap             = 500

	AssumedFrameRate     = 60.0
	ScoreBufferFactor    = 1.3
	minEffectiveSpawnSec = 0.4

	// Client-reported duration is advisory; beyond this divergence from the
	// server-computed duration the session is flagged.
	DurationMismatchToleranceSec = 5
)

// Suspicion reasons kept for the audit trail — never shown to the player.
const (
	ReasonDurationBelowMinimum    = "duration_below_minimum"
	ReasonDurationExceedsMaximum  = "duration_exceeds_maximum"
	ReasonNonzeroScoreTooShort    = "nonzero_score_too_short"
	ReasonScoreRateImplausible    = "score_rate_implausible"
	ReasonScoreExceedsConfigLimit = "score_exceeds_config_limit"
	ReasonDailyCapReached         = "daily_cap_reached"
	ReasonNegativeScore           = "negative_score"
	ReasonDurationMismatch        = "duration_mismatch"
)

// ValidationResult is what the validator decides about one submission.
// ValidatedScore is always what gets persisted and told to the player,
// whether or not the submission was flagged.
type ValidationResult struct {
	ValidatedScore int      `json:"validated_score"`
	Reasons        []string `json:"reasons,omitempty"`
	IsValid        bool     `json:"is_valid"`
}

// Flag appends a suspicion reason once and marks the result suspect.
func (r *ValidationResult) Flag(reason string) {
	for _, existing := range r.Reasons {
		if existing == reason {
			return
		}
	}
	r.Reasons = append(r.Reasons, reason)
	r.IsValid = false
}

// Validate runs the plausibility checks against the authoritative config.
// Each check only ever tightens the validated score — the validator never
// invents points, so ValidatedScore <= clientScore always holds.
//
// The daily-cap clamp here uses a pre-transaction read and is advisory; the
// binding clamp happens again inside the ledger transaction.
func Validate(clientScore int, durationSec float64, cfg models.DifficultyConfig, todayCumulative int) ValidationResult {
	res := ValidationResult{ValidatedScore: clientScore, IsValid: true}

	clamp := func(limit int) {
		if res.ValidatedScore > limit {
			res.ValidatedScore = limit
		}
	}

	// 1. Instant-submit exploit: too short to have played at all
	if durationSec < MinGameDurationSec {
		clamp(0)
		res.Flag(ReasonDurationBelowMinimum)
	}

	// 2. Overlong play is flagged but not zeroed — the token TTL already
	// bounds it upstream
	if durationSec > MaxGameDurationSec {
		res.Flag(ReasonDurationExceedsMaximum)
	}

	// 3. Any positive score needs a minimum of real play time
	if clientScore > 0 && durationSec < MinSecondsForNonzeroScore {
		clamp(0)
		res.Flag(ReasonNonzeroScoreTooShort)
	}

	// 4. Hard rate floor, independent of config — guards against anything
	// that slips past the config-derived bound
	if rateLimit := int(durationSec / MinSecondsPerPoint); clientScore > rateLimit {
		clamp(rateLimit)
		res.Flag(ReasonScoreRateImplausible)
	}

	// 5. Physical bound derived from the difficulty curve
	if maxAllowed := MaxScoreAllowed(durationSec, cfg); clientScore > maxAllowed {
		clamp(maxAllowed)
		res.Flag(ReasonScoreExceedsConfigLimit)
	}

	// 6. Daily cumulative reward cap
	remaining := DailyScoreCap - todayCumulative
	if remaining < 0 {
		remaining = 0
	}
	if res.ValidatedScore > remaining {
		clamp(remaining)
		res.Flag(ReasonDailyCapReached)
	}

	// 7. Negative scores can't earn negative rewards
	if res.ValidatedScore < 0 {
		res.ValidatedScore = 0
		res.Flag(ReasonNegativeScore)
	}

	return res
}

// MaxScoreAllowed is the closed-form upper bound on the score reachable in
// durationSec under cfg: time until the first obstacle can be passed, then at
// best one point per effective spawn interval, with a 30% allowance for
// skilled play and latency jitter, capped at HardCapPerGame.
//
// Pure function — the bound is derived from the same constants the client
// engine runs on, instead of replaying the simulation server-side.
func MaxScoreAllowed(durationSec float64, cfg models.DifficultyConfig) int {
	pixelsPerSecond := cfg.ObstacleSpeed * AssumedFrameRate
	if pixelsPerSecond <= 0 {
		return 0
	}

	distanceToFirst := cfg.CanvasWidth - cfg.ActorX - cfg.ObstacleWidth
	timeToFirstPoint := distanceToFirst / pixelsPerSecond
	if durationSec <= timeToFirstPoint {
		return 0
	}

	// Average of initial and floor spawn intervals approximates the ramp
	effectiveSpawnSec := (cfg.SpawnIntervalMs + cfg.MinSpawnIntervalMs) / 2 / 1000
	if effectiveSpawnSec < minEffectiveSpawnSec {
		effectiveSpawnSec = minEffectiveSpawnSec
	}

	theoreticalMax := 1 + (durationSec-timeToFirstPoint)/effectiveSpawnSec
	withBuffer := int(math.Floor(theoreticalMax * ScoreBufferFactor))
	if withBuffer > HardCapPerGame {
		return HardCapPerGame
	}
	if withBuffer < 0 {
		return 0
	}
	return withBuffer
}
