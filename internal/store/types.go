package store

import "time"

// Fast statuses. An open fast has no end time yet.
const (
	FastStatusOpen     = "open"
	FastStatusClosed   = "closed"
	FastStatusCanceled = "canceled"
)

// Fast represents one fasting interval for a user.
type Fast struct {
	ID              int64
	UserID          string
	StartAt         time.Time
	EndAt           *time.Time
	DurationMinutes int64
	Status          string
}

// Meal is one logged meal or snack.
type Meal struct {
	ID       int64
	UserID   string
	Label    string
	Items    []string
	Notes    string
	LoggedAt time.Time
}

// SleepLog records one night of sleep.
type SleepLog struct {
	ID       int64
	UserID   string
	Hours    float64
	Quality  string
	Notes    string
	LoggedAt time.Time
}

// VitalsEntry records a single measurement (weight, heart rate, blood pressure).
type VitalsEntry struct {
	ID       int64
	UserID   string
	Kind     string
	Value    float64
	Unit     string
	LoggedAt time.Time
}

// UsageRecord is one billable model call attributed to a user.
type UsageRecord struct {
	ID         int64
	UserID     string
	Tier       string // utility | reasoning | deep
	Operation  string
	Model      string
	TokensIn   int
	TokensOut  int
	RecordedAt time.Time
}
