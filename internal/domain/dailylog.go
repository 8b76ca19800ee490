package domain

import "time"

// DailyLog is a free-form work journal entry owned by a single user.
type DailyLog struct {
	ID        string
	UserID    string
	Date      string // calendar date, YYYY-MM-DD
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DailyLogPatch is a partial update to a daily log entry.
type DailyLogPatch struct {
	Date    *string
	Content *string
}

// ValidLogDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidLogDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
