package model

import "time"

// Reminder channels and outcomes.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"

	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// ReminderRecord logs one notification attempt for one appointment on one
// channel. At most one record per (appointment, channel) may have outcome
// "sent"; the storage layer enforces this with a partial unique index so the
// guarantee holds across concurrent dispatcher runs.
type ReminderRecord struct {
	ID            int64
	AppointmentID int64
	Channel       string
	Outcome       string
	SentAt        *time.Time
	ErrorDetail   string
	CreatedAt     time.Time
}

// ReminderCandidate is a confirmed appointment inside the notification window
// joined with the contact details needed to deliver a reminder.
type ReminderCandidate struct {
	AppointmentID int64
	Date          time.Time
	StartMin      int
	ServiceName   string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	Preference    string
}

// StartAt returns the appointment start as an absolute instant.
func (c ReminderCandidate) StartAt() time.Time {
	return c.Date.Add(time.Duration(c.StartMin) * time.Minute)
}
