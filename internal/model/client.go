package model

import "time"

// Reminder channel preferences as submitted by the client.
const (
	PreferEmail  = "email"
	PreferPhone  = "phone"
	PreferEither = "either"
)

type Client struct {
	ID                 int64
	Name               string
	Email              string // stored lowercased; unique case-insensitively
	Phone              string
	ReminderPreference string
	Consent            bool
	ConsentedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
