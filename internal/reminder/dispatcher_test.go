package reminder

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/notify"
	"github.com/hopono/scheduling/internal/outbox"
	"github.com/hopono/scheduling/internal/storage"
)

type stubStore struct {
	due       []model.ReminderCandidate
	sent      map[int64]bool
	records   []model.ReminderRecord
	events    []outbox.Event
	recordErr map[string]error // keyed by channel
}

func (s *stubStore) DueAppointments(_ context.Context, _, _ time.Time) ([]model.ReminderCandidate, error) {
	return s.due, nil
}

func (s *stubStore) HasSent(_ context.Context, id int64) (bool, error) {
	return s.sent[id], nil
}

func (s *stubStore) RecordAttempt(_ context.Context, rec *model.ReminderRecord, evt *outbox.Event) error {
	if err := s.recordErr[rec.Channel]; err != nil {
		return err
	}
	s.records = append(s.records, *rec)
	if evt != nil {
		s.events = append(s.events, *evt)
	}
	return nil
}

type stubPolicy struct {
	lead  int
	sms   bool
	email bool
}

func (p stubPolicy) ReminderPolicy(_ context.Context) (int, bool, bool, error) {
	return p.lead, p.sms, p.email, nil
}

type stubGateway struct {
	smsOK    bool
	emailOK  bool
	smsSent  []string
	mailSent []string
}

func (g *stubGateway) SendSMS(_ context.Context, to string, _ string) bool {
	g.smsSent = append(g.smsSent, to)
	return g.smsOK
}

func (g *stubGateway) SendEmail(_ context.Context, to string, _ string, _ string) bool {
	g.mailSent = append(g.mailSent, to)
	return g.emailOK
}

type heldGuard struct{}

func (heldGuard) TryAcquire(_ context.Context) bool { return false }
func (heldGuard) Release(_ context.Context)         {}

func candidate(id int64, pref string) model.ReminderCandidate {
	return model.ReminderCandidate{
		AppointmentID: id,
		Date:          time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		StartMin:      600,
		ServiceName:   "Deep Tissue Massage",
		ClientName:    "Maria",
		ClientEmail:   "maria@example.com",
		ClientPhone:   "+35799123456",
		Preference:    pref,
	}
}

func newTestDispatcher(store Store, policy PolicySource, gw notify.Gateway, guard Guard) *Dispatcher {
	d := NewDispatcher(store, policy, gw, notify.NewTemplates("Hopono"), guard,
		slog.New(slog.DiscardHandler), Config{Interval: time.Minute, Slack: 12 * time.Hour})
	d.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return d
}

func TestRunCycle_PrefersEmailThenFallsBackToSMS(t *testing.T) {
	store := &stubStore{due: []model.ReminderCandidate{candidate(1, model.PreferEmail)}, sent: map[int64]bool{}}
	gw := &stubGateway{smsOK: true, emailOK: false}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected 1 sent, got %+v", stats)
	}
	if len(gw.mailSent) != 1 || len(gw.smsSent) != 1 {
		t.Fatalf("expected email attempt then sms fallback, got mail=%d sms=%d", len(gw.mailSent), len(gw.smsSent))
	}
	if len(store.records) != 2 {
		t.Fatalf("expected 2 attempt records, got %d", len(store.records))
	}
	if store.records[0].Outcome != model.OutcomeFailed || store.records[0].Channel != model.ChannelEmail {
		t.Fatalf("first record should be failed email, got %+v", store.records[0])
	}
	if store.records[1].Outcome != model.OutcomeSent || store.records[1].Channel != model.ChannelSMS {
		t.Fatalf("second record should be sent sms, got %+v", store.records[1])
	}
	if len(store.events) != 2 {
		t.Fatalf("expected failed and sent events, got %d", len(store.events))
	}
}

func TestRunCycle_PhonePreferenceLeadsWithSMS(t *testing.T) {
	store := &stubStore{due: []model.ReminderCandidate{candidate(2, model.PreferPhone)}, sent: map[int64]bool{}}
	gw := &stubGateway{smsOK: true, emailOK: true}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected 1 sent, got %+v", stats)
	}
	if len(gw.smsSent) != 1 || len(gw.mailSent) != 0 {
		t.Fatalf("expected a single sms and no email, got sms=%d mail=%d", len(gw.smsSent), len(gw.mailSent))
	}
}

func TestRunCycle_SkipsAlreadySent(t *testing.T) {
	store := &stubStore{
		due:  []model.ReminderCandidate{candidate(3, model.PreferEmail)},
		sent: map[int64]bool{3: true},
	}
	gw := &stubGateway{smsOK: true, emailOK: true}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.AlreadySent != 1 || stats.Sent != 0 {
		t.Fatalf("expected skip, got %+v", stats)
	}
	if len(gw.smsSent)+len(gw.mailSent) != 0 {
		t.Fatal("no delivery attempts expected for an already-sent appointment")
	}
}

func TestRunCycle_GuardHeldSkipsCycle(t *testing.T) {
	store := &stubStore{due: []model.ReminderCandidate{candidate(4, model.PreferEmail)}, sent: map[int64]bool{}}
	gw := &stubGateway{smsOK: true, emailOK: true}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, heldGuard{})

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if !stats.Skipped {
		t.Fatal("expected cycle to be skipped while guard is held")
	}
	if len(store.records) != 0 || len(gw.smsSent)+len(gw.mailSent) != 0 {
		t.Fatal("skipped cycle must not send or record anything")
	}
}

func TestRunCycle_BothChannelsFailingCountsAsFailed(t *testing.T) {
	store := &stubStore{due: []model.ReminderCandidate{candidate(5, model.PreferEmail)}, sent: map[int64]bool{}}
	gw := &stubGateway{}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Failed != 1 || stats.Sent != 0 {
		t.Fatalf("expected failure, got %+v", stats)
	}
	for _, rec := range store.records {
		if rec.Outcome != model.OutcomeFailed {
			t.Fatalf("expected only failed records, got %+v", rec)
		}
	}
}

func TestRunCycle_ConcurrentWinnerIsSwallowed(t *testing.T) {
	store := &stubStore{
		due:       []model.ReminderCandidate{candidate(6, model.PreferEmail)},
		sent:      map[int64]bool{},
		recordErr: map[string]error{model.ChannelEmail: storage.ErrReminderAlreadySent},
	}
	gw := &stubGateway{smsOK: true, emailOK: true}
	d := newTestDispatcher(store, stubPolicy{24, true, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("race loss must not fail the cycle: %v", err)
	}
	if stats.AlreadySent != 1 {
		t.Fatalf("expected already-sent accounting, got %+v", stats)
	}
	if len(gw.smsSent) != 0 {
		t.Fatal("losing the email race must not fall through to sms")
	}
}

func TestRunCycle_DisabledChannelIsSkipped(t *testing.T) {
	store := &stubStore{due: []model.ReminderCandidate{candidate(7, model.PreferPhone)}, sent: map[int64]bool{}}
	gw := &stubGateway{smsOK: true, emailOK: true}
	d := newTestDispatcher(store, stubPolicy{24, false, true}, gw, NewLocalGuard())

	stats, err := d.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("expected email delivery, got %+v", stats)
	}
	if len(gw.smsSent) != 0 || len(gw.mailSent) != 1 {
		t.Fatalf("sms disabled: expected email only, got sms=%d mail=%d", len(gw.smsSent), len(gw.mailSent))
	}
}

func TestLocalGuard(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()
	if !g.TryAcquire(ctx) {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire(ctx) {
		t.Fatal("second acquire should fail while held")
	}
	g.Release(ctx)
	if !g.TryAcquire(ctx) {
		t.Fatal("acquire after release should succeed")
	}
}
