package models

// SuspiciousActivity is the audit trail for flagged-but-accepted submissions.
// Flagged sessions still return a (clamped) score to the player; these rows
// exist for manual review and for the periodic R2 export.
type SuspiciousActivity struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `gorm:"index;not null" json:"session_id"`
	UserID    string `gorm:"index;not null" json:"user_id"`

	ClaimedScore   int   `json:"claimed_score"`
	ValidatedScore int   `json:"validated_score"`
	DurationSec    int64 `json:"duration_sec"`

	// Comma-joined suspicion reasons, e.g. "score_exceeds_config_limit,duration_mismatch"
	Reasons string `json:"reasons" gorm:"type:text"`

	Exported bool `json:"exported" gorm:"default:false;index"`

	Timestamps
}
