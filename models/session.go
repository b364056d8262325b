package models

import "time"

// GameSession is the validated-score ledger. At most one row may ever exist per
// session_id — the unique index is the primary anti-replay control, so inserts
// must fail on duplicates, never upsert.
type GameSession struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID    string `gorm:"index;not null" json:"user_id"`

	// Validated score — never the raw client-reported value
	Score       int   `json:"score" gorm:"default:0"`
	DurationSec int64 `json:"duration_sec" gorm:"default:0"`
	Flagged     bool  `json:"flagged" gorm:"default:false"`

	Timestamps
}

// GameAttempt tracks a play from token issuance onward, purely for pending/abandoned
// reporting. It is separate from GameSession so the ledger stays insert-only.
type GameAttempt struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID    string `gorm:"index;not null" json:"user_id"`

	Status    string    `json:"status" gorm:"type:varchar(16);default:'started';check:status IN ('started','completed','abandoned')"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Timestamps
}

const (
	AttemptStarted   = "started"
	AttemptCompleted = "completed"
	AttemptAbandoned = "abandoned"
)
