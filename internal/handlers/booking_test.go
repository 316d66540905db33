package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hopono/scheduling/internal/booking"
)

func testBookingHandler() *BookingHandler {
	return NewBookingHandler(nil, nil, nil, nil, slog.New(slog.DiscardHandler))
}

func TestWriteBookingErrorMapping(t *testing.T) {
	h := testBookingHandler()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &booking.FieldError{Field: "email", Message: "email address is not valid"}, http.StatusBadRequest},
		{"slot taken", booking.ErrSlotUnavailable, http.StatusConflict},
		{"not cancellable", booking.ErrNotCancellable, http.StatusConflict},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeBookingError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := testBookingHandler()

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/book", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", rec.Code)
	}
}

func TestSlotsRejectsBadServiceID(t *testing.T) {
	h := testBookingHandler()

	rec := httptest.NewRecorder()
	h.Slots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?service_id=abc&date=2026-09-02", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric service_id, got %d", rec.Code)
	}
}

func TestCancelRequiresAppointmentID(t *testing.T) {
	h := testBookingHandler()

	rec := httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing appointment_id, got %d", rec.Code)
	}
}

func TestValidateCouponRequiresCode(t *testing.T) {
	h := testBookingHandler()

	rec := httptest.NewRecorder()
	h.ValidateCoupon(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/coupons/validate", strings.NewReader(`{"service_id":1}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty code, got %d", rec.Code)
	}
}

func TestAdminWindowValidation(t *testing.T) {
	h := NewAdminHandler(nil, nil, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h.Windows(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/windows",
		strings.NewReader(`{"date":"2026-09-02","start_time":"17:00","end_time":"09:00"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted window, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Windows(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/admin/windows", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PATCH, got %d", rec.Code)
	}
}

func TestSettingsRejectsUnknownKey(t *testing.T) {
	h := NewAdminHandler(nil, nil, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h.Settings(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings",
		strings.NewReader(`{"key":"favorite_color","value":"blue"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown key, got %d", rec.Code)
	}
}
