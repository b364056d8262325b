package models

// UserDailyScore accumulates validated score per user per calendar day (UTC).
// Day is stored as "2006-01-02" so the composite unique index stays portable.
// The row is locked FOR UPDATE inside the submission transaction so two racing
// submissions cannot both pass the cap.
type UserDailyScore struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `gorm:"uniqueIndex:idx_user_day;not null" json:"user_id"`
	Day    string `gorm:"uniqueIndex:idx_user_day;type:varchar(10);not null" json:"day"`

	Total int `json:"total" gorm:"default:0"`

	Timestamps
}
