package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/notify"
	"github.com/hopono/scheduling/internal/outbox"
	"github.com/hopono/scheduling/internal/storage"
)

// Store is the persistence surface the dispatcher needs. Implemented by
// storage.ReminderRepository.
type Store interface {
	DueAppointments(ctx context.Context, from, to time.Time) ([]model.ReminderCandidate, error)
	HasSent(ctx context.Context, appointmentID int64) (bool, error)
	RecordAttempt(ctx context.Context, rec *model.ReminderRecord, evt *outbox.Event) error
}

// PolicySource supplies the live reminder settings. Implemented by
// storage.SettingsRepository.
type PolicySource interface {
	ReminderPolicy(ctx context.Context) (leadHours int, smsEnabled, emailEnabled bool, err error)
}

type Dispatcher struct {
	store     Store
	policy    PolicySource
	gateway   notify.Gateway
	templates *notify.Templates
	guard     Guard
	logger    *slog.Logger
	interval  time.Duration
	slack     time.Duration
	now       func() time.Time
}

type Config struct {
	Interval time.Duration
	// Slack widens the lookback edge of the notification window so
	// appointments that entered the window between ticks are still caught.
	Slack time.Duration
}

func NewDispatcher(store Store, policy PolicySource, gateway notify.Gateway, templates *notify.Templates, guard Guard, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Slack <= 0 {
		cfg.Slack = 12 * time.Hour
	}
	return &Dispatcher{
		store:     store,
		policy:    policy,
		gateway:   gateway,
		templates: templates,
		guard:     guard,
		logger:    logger,
		interval:  cfg.Interval,
		slack:     cfg.Slack,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := d.RunCycle(ctx)
			if err != nil {
				d.logger.Error("reminder cycle failed", "err", err)
				continue
			}
			if !stats.Skipped {
				d.logger.Info("reminder cycle done",
					"due", stats.Due, "sent", stats.Sent,
					"failed", stats.Failed, "already_sent", stats.AlreadySent)
			}
		}
	}
}

// Stats summarizes one dispatch cycle.
type Stats struct {
	Skipped     bool
	Due         int
	Sent        int
	Failed      int
	AlreadySent int
}

// RunCycle executes one dispatch pass. If another cycle holds the guard the
// pass is skipped without waiting; overlapping passes are never allowed to
// stack up behind a slow provider.
func (d *Dispatcher) RunCycle(ctx context.Context) (Stats, error) {
	if !d.guard.TryAcquire(ctx) {
		return Stats{Skipped: true}, nil
	}
	defer d.guard.Release(ctx)

	leadHours, smsEnabled, emailEnabled, err := d.policy.ReminderPolicy(ctx)
	if err != nil {
		return Stats{}, err
	}

	now := d.now()
	due, err := d.store.DueAppointments(ctx, now, now.Add(time.Duration(leadHours)*time.Hour+d.slack))
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Due: len(due)}
	for _, cand := range due {
		sent, err := d.store.HasSent(ctx, cand.AppointmentID)
		if err != nil {
			return stats, err
		}
		if sent {
			stats.AlreadySent++
			continue
		}

		raceLost := false
		delivered := false
		for _, channel := range d.channelOrder(cand, smsEnabled, emailEnabled) {
			outcome, err := d.attempt(ctx, cand, channel)
			if errors.Is(err, storage.ErrReminderAlreadySent) {
				// A concurrent dispatcher won the race for this channel.
				raceLost = true
				break
			}
			if err != nil {
				return stats, err
			}
			if outcome == model.OutcomeSent {
				delivered = true
				break
			}
		}
		switch {
		case raceLost:
			stats.AlreadySent++
		case delivered:
			stats.Sent++
		default:
			stats.Failed++
		}
	}
	return stats, nil
}

// channelOrder builds the fallback list for a candidate: the preferred channel
// first, the other after, dropping channels that are disabled by policy or
// have no usable contact detail.
func (d *Dispatcher) channelOrder(cand model.ReminderCandidate, smsEnabled, emailEnabled bool) []string {
	var order []string
	switch cand.Preference {
	case model.PreferPhone:
		order = []string{model.ChannelSMS, model.ChannelEmail}
	default:
		order = []string{model.ChannelEmail, model.ChannelSMS}
	}

	out := order[:0]
	for _, ch := range order {
		switch ch {
		case model.ChannelSMS:
			if smsEnabled && cand.ClientPhone != "" {
				out = append(out, ch)
			}
		case model.ChannelEmail:
			if emailEnabled && cand.ClientEmail != "" {
				out = append(out, ch)
			}
		}
	}
	return out
}

// attempt delivers on one channel and records the outcome. The record and its
// outbox event commit together; delivery failure is recorded, not returned.
func (d *Dispatcher) attempt(ctx context.Context, cand model.ReminderCandidate, channel string) (string, error) {
	var ok bool
	switch channel {
	case model.ChannelSMS:
		ok = d.gateway.SendSMS(ctx, cand.ClientPhone, d.templates.ReminderSMS(cand))
	case model.ChannelEmail:
		subject, body := d.templates.ReminderEmail(cand)
		ok = d.gateway.SendEmail(ctx, cand.ClientEmail, subject, body)
	}

	rec := &model.ReminderRecord{
		AppointmentID: cand.AppointmentID,
		Channel:       channel,
		Outcome:       model.OutcomeFailed,
		ErrorDetail:   "provider delivery failed",
	}
	eventType := outbox.EventReminderFailed
	if ok {
		sentAt := d.now()
		rec.Outcome = model.OutcomeSent
		rec.SentAt = &sentAt
		rec.ErrorDetail = ""
		eventType = outbox.EventReminderSent
	}

	evt, err := reminderEvent(eventType, cand, rec)
	if err != nil {
		return "", err
	}
	if err := d.store.RecordAttempt(ctx, rec, evt); err != nil {
		return "", err
	}
	return rec.Outcome, nil
}

func reminderEvent(eventType string, cand model.ReminderCandidate, rec *model.ReminderRecord) (*outbox.Event, error) {
	fields := map[string]any{
		"appointment_id": cand.AppointmentID,
		"channel":        rec.Channel,
		"outcome":        rec.Outcome,
		"start_at":       cand.StartAt().Format(time.RFC3339),
	}
	if rec.ErrorDetail != "" {
		fields["error_detail"] = rec.ErrorDetail
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return &outbox.Event{
		AggregateType: "reminder",
		AggregateID:   strconv.FormatInt(cand.AppointmentID, 10),
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
