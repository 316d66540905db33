// Package handlers exposes the public booking API and the administrative
// endpoints over the standard library mux.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hopono/scheduling/internal/booking"
	"github.com/hopono/scheduling/internal/coupon"
	"github.com/hopono/scheduling/internal/storage"
	"github.com/hopono/scheduling/internal/timeutil"
)

type BookingHandler struct {
	svc      *booking.Service
	appts    *storage.AppointmentRepository
	services *storage.ServiceRepository
	coupons  *storage.CouponRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingHandler(svc *booking.Service, appts *storage.AppointmentRepository, services *storage.ServiceRepository, coupons *storage.CouponRepository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		svc:      svc,
		appts:    appts,
		services: services,
		coupons:  coupons,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type createBookingRequest struct {
	ServiceID          int64  `json:"service_id"`
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	ClientName         string `json:"client_name"`
	ClientEmail        string `json:"client_email"`
	ClientPhone        string `json:"client_phone"`
	ReminderPreference string `json:"reminder_preference"`
	CouponCode         string `json:"coupon_code"`
}

type appointmentResponse struct {
	AppointmentID     int64  `json:"appointment_id"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
	ServiceID         int64  `json:"service_id"`
	Date              string `json:"date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Status            string `json:"status"`
	DiscountCents     *int64 `json:"discount_cents,omitempty"`
}

type slotsResponse struct {
	ServiceID int64    `json:"service_id"`
	Date      string   `json:"date"`
	Slots     []string `json:"slots"`
}

type serviceItem struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Subtitle        string `json:"subtitle,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeBookingError maps workflow errors onto HTTP statuses. Unknown errors
// log and answer 500 without leaking detail.
func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error) {
	var ferr *booking.FieldError
	switch {
	case errors.As(err, &ferr):
		http.Error(w, ferr.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrSlotUnavailable):
		http.Error(w, "requested slot is no longer available", http.StatusConflict)
	case errors.Is(err, booking.ErrNotCancellable):
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
	case storage.IsNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		h.logger.Error("booking request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *BookingHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	services, err := h.services.ListActive(r.Context())
	if err != nil {
		h.logger.Error("service list failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem{
			ID:              s.ID,
			Name:            s.Name,
			Subtitle:        s.Subtitle,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": items})
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid service_id", http.StatusBadRequest)
		return
	}
	dateStr := r.URL.Query().Get("date")

	slots, err := h.svc.AvailableSlots(r.Context(), serviceID, dateStr)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{ServiceID: serviceID, Date: dateStr, Slots: slots})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Create(r.Context(), booking.CreateRequest{
		ServiceID:          req.ServiceID,
		Date:               req.Date,
		StartTime:          req.StartTime,
		ClientName:         req.ClientName,
		ClientEmail:        req.ClientEmail,
		ClientPhone:        req.ClientPhone,
		ReminderPreference: req.ReminderPreference,
		CouponCode:         req.CouponCode,
		Source:             "online",
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointmentResponse{
		AppointmentID:     appt.ID,
		ConfirmationToken: appt.ConfirmationToken,
		ServiceID:         appt.ServiceID,
		Date:              appt.Date.Format("2006-01-02"),
		StartTime:         timeutil.FormatClock(appt.StartMin),
		EndTime:           timeutil.FormatClock(appt.EndMin),
		Status:            appt.Status,
		DiscountCents:     appt.DiscountCents,
	})
}

type validateCouponRequest struct {
	Code      string `json:"code"`
	ServiceID int64  `json:"service_id"`
}

type validateCouponResponse struct {
	Valid         bool   `json:"valid"`
	Reason        string `json:"reason,omitempty"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
}

// ValidateCoupon answers a price preview for the booking form. It never
// consumes a use; redemption happens only at booking time.
func (h *BookingHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	svc, err := h.services.Get(r.Context(), req.ServiceID)
	if storage.IsNotFound(err) {
		http.Error(w, "unknown service", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("service lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cpn, err := h.coupons.GetByCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("coupon lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	verdict := coupon.Evaluate(cpn, svc.PriceCents, h.now())
	writeJSON(w, http.StatusOK, validateCouponResponse{
		Valid:         verdict.Valid,
		Reason:        verdict.Reason,
		DiscountCents: verdict.DiscountCents,
		TotalCents:    svc.PriceCents - verdict.DiscountCents,
	})
}

// Confirmation resolves an appointment by its opaque confirmation token, the
// only handle a client holds after booking.
func (h *BookingHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	appt, err := h.appts.GetByToken(r.Context(), token)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{
		AppointmentID: appt.ID,
		ServiceID:     appt.ServiceID,
		Date:          appt.Date.Format("2006-01-02"),
		StartTime:     timeutil.FormatClock(appt.StartMin),
		EndTime:       timeutil.FormatClock(appt.EndMin),
		Status:        appt.Status,
		DiscountCents: appt.DiscountCents,
	})
}

type cancelRequest struct {
	AppointmentID int64 `json:"appointment_id"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.AppointmentID <= 0 {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), req.AppointmentID)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appointmentResponse{
		AppointmentID: appt.ID,
		ServiceID:     appt.ServiceID,
		Date:          appt.Date.Format("2006-01-02"),
		StartTime:     timeutil.FormatClock(appt.StartMin),
		EndTime:       timeutil.FormatClock(appt.EndMin),
		Status:        appt.Status,
	})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appts, err := h.appts.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		items = append(items, appointmentResponse{
			AppointmentID: a.ID,
			ServiceID:     a.ServiceID,
			Date:          a.Date.Format("2006-01-02"),
			StartTime:     timeutil.FormatClock(a.StartMin),
			EndTime:       timeutil.FormatClock(a.EndMin),
			Status:        a.Status,
			DiscountCents: a.DiscountCents,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": items})
}
