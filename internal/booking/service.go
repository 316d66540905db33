// Package booking orchestrates the create-booking workflow: input
// validation, client upsert, slot re-validation, buffer computation, coupon
// redemption, and the atomic appointment commit.
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hopono/scheduling/internal/coupon"
	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/outbox"
	"github.com/hopono/scheduling/internal/slots"
	"github.com/hopono/scheduling/internal/storage"
	"github.com/hopono/scheduling/internal/timeutil"
)

const dateLayout = "2006-01-02"

type Service struct {
	appts    *storage.AppointmentRepository
	clients  *storage.ClientRepository
	coupons  *storage.CouponRepository
	windows  *storage.WindowRepository
	services *storage.ServiceRepository
	settings *storage.SettingsRepository
	outbox   *outbox.Repository
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	appts *storage.AppointmentRepository,
	clients *storage.ClientRepository,
	coupons *storage.CouponRepository,
	windows *storage.WindowRepository,
	services *storage.ServiceRepository,
	settings *storage.SettingsRepository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
) *Service {
	return &Service{
		appts:    appts,
		clients:  clients,
		coupons:  coupons,
		windows:  windows,
		services: services,
		settings: settings,
		outbox:   outboxRepo,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateRequest struct {
	ServiceID          int64
	Date               string // YYYY-MM-DD
	StartTime          string // HH:MM
	ClientName         string
	ClientEmail        string
	ClientPhone        string
	ReminderPreference string
	CouponCode         string
	Source             string
}

// AvailableSlots returns the bookable start times for a date and service as
// "HH:MM" strings, ascending. The read is advisory; Create re-verifies.
func (s *Service) AvailableSlots(ctx context.Context, serviceID int64, dateStr string) ([]string, error) {
	starts, _, _, _, err := s.availableStarts(ctx, serviceID, dateStr)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(starts))
	for _, m := range starts {
		out = append(out, timeutil.FormatClock(m))
	}
	return out, nil
}

func (s *Service) availableStarts(ctx context.Context, serviceID int64, dateStr string) ([]int, model.Service, int, time.Time, error) {
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateStr), time.UTC)
	if err != nil {
		return nil, model.Service{}, 0, time.Time{}, fieldErr("date", "date must be YYYY-MM-DD")
	}

	svc, err := s.services.Get(ctx, serviceID)
	if storage.IsNotFound(err) {
		return nil, model.Service{}, 0, time.Time{}, fieldErr("service_id", "unknown service")
	}
	if err != nil {
		return nil, model.Service{}, 0, time.Time{}, err
	}
	if !svc.IsActive {
		return nil, model.Service{}, 0, time.Time{}, fieldErr("service_id", "service is not bookable")
	}

	buffer, err := s.settings.BufferMinutes(ctx)
	if err != nil {
		return nil, model.Service{}, 0, time.Time{}, err
	}

	windows, err := s.windows.ListByDate(ctx, date)
	if err != nil {
		return nil, model.Service{}, 0, time.Time{}, err
	}
	blocked, err := s.appts.BlockedRanges(ctx, date)
	if err != nil {
		return nil, model.Service{}, 0, time.Time{}, err
	}

	return slots.Compute(svc.DurationMinutes, buffer, windows, blocked), svc, buffer, date, nil
}

// Create runs the booking workflow as one logical transaction. Validation and
// availability failures surface as *FieldError or ErrSlotUnavailable with no
// writes performed; an invalid coupon is non-fatal and simply yields no
// discount.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Appointment, error) {
	if ferr := validateContact(req.ClientName, req.ClientEmail, req.ClientPhone); ferr != nil {
		return nil, ferr
	}

	startMin, err := timeutil.ParseClock(req.StartTime)
	if err != nil {
		return nil, fieldErr("start_time", "start time must be HH:MM")
	}

	starts, svc, buffer, date, err := s.availableStarts(ctx, req.ServiceID, req.Date)
	if err != nil {
		return nil, err
	}
	if !containsStart(starts, startMin) {
		return nil, ErrSlotUnavailable
	}

	tx, err := s.appts.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	client, err := s.clients.Upsert(ctx, tx, model.Client{
		Name:               strings.TrimSpace(req.ClientName),
		Email:              req.ClientEmail,
		Phone:              strings.TrimSpace(req.ClientPhone),
		ReminderPreference: normalizePreference(req.ReminderPreference),
	})
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ConfirmationToken: uuid.NewString(),
		ClientID:          client.ID,
		ServiceID:         svc.ID,
		Date:              date,
		StartMin:          startMin,
		EndMin:            startMin + svc.DurationMinutes,
		BufferBeforeMin:   buffer,
		BufferAfterMin:    buffer,
		Status:            model.StatusConfirmed,
		Source:            sourceOrDefault(req.Source),
	}

	// Coupon redemption shares the appointment transaction: the counter must
	// never advance for a booking that fails to commit.
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		if cpn, err := s.coupons.GetByCode(ctx, code); err != nil {
			return nil, err
		} else if verdict := coupon.Evaluate(cpn, svc.PriceCents, s.now()); verdict.Valid {
			switch err := s.coupons.Redeem(ctx, tx, verdict.CouponID); {
			case err == nil:
				appt.CouponID = &verdict.CouponID
				appt.DiscountCents = &verdict.DiscountCents
			case err == storage.ErrCouponExhausted:
				// Lost a redemption race; book without the discount.
				s.logger.Info("coupon exhausted at redemption", "code", cpn.Code)
			default:
				return nil, err
			}
		} else {
			s.logger.Info("coupon rejected", "code", code, "reason", verdict.Reason)
		}
	}

	if err := s.appts.Create(ctx, tx, appt); err != nil {
		if err == storage.ErrSlotTaken {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	if err := s.insertAppointmentEvent(ctx, tx, outbox.EventAppointmentConfirmed, appt, client.Email); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("booking confirmed",
		"appointment_id", appt.ID,
		"date", appt.Date.Format(dateLayout),
		"start", timeutil.FormatClock(appt.StartMin),
		"service_id", appt.ServiceID,
	)
	return appt, nil
}

// Cancel flips a confirmed appointment to cancelled. Cancelling an already
// cancelled appointment is idempotent. The freed capacity simply stops
// contributing a blocked range from this point forward.
func (s *Service) Cancel(ctx context.Context, id int64) (model.Appointment, error) {
	tx, err := s.appts.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := s.appts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if appt.Status == model.StatusCancelled {
		return appt, nil
	}
	if appt.Status != model.StatusConfirmed {
		return model.Appointment{}, ErrNotCancellable
	}

	if err := s.appts.SetStatus(ctx, tx, appt.ID, model.StatusCancelled); err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.StatusCancelled

	if err := s.insertAppointmentEvent(ctx, tx, outbox.EventAppointmentCancelled, &appt, ""); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("booking cancelled", "appointment_id", appt.ID)
	return appt, nil
}

func (s *Service) insertAppointmentEvent(ctx context.Context, tx pgx.Tx, eventType string, appt *model.Appointment, clientEmail string) error {
	payload, err := eventPayload(appt, clientEmail)
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(appt.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
}

func containsStart(starts []int, want int) bool {
	for _, s := range starts {
		if s == want {
			return true
		}
	}
	return false
}

func sourceOrDefault(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "online"
	}
	return source
}

func eventPayload(appt *model.Appointment, clientEmail string) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":     strconv.FormatInt(appt.ID, 10),
		"confirmation_token": appt.ConfirmationToken,
		"service_id":         appt.ServiceID,
		"client_email":       clientEmail,
		"date":               appt.Date.Format(dateLayout),
		"start":              timeutil.FormatClock(appt.StartMin),
		"end":                timeutil.FormatClock(appt.EndMin),
		"status":             appt.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal appointment event: %w", err)
	}
	return payload, nil
}
