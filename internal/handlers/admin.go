package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/storage"
	"github.com/hopono/scheduling/internal/timeutil"
)

// AdminHandler manages availability windows and runtime settings.
type AdminHandler struct {
	windows  *storage.WindowRepository
	settings *storage.SettingsRepository
	logger   *slog.Logger
}

func NewAdminHandler(windows *storage.WindowRepository, settings *storage.SettingsRepository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{windows: windows, settings: settings, logger: logger}
}

type windowItem struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type createWindowRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Windows dispatches on method: GET lists a date, POST creates, DELETE
// removes by id.
func (h *AdminHandler) Windows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listWindows(w, r)
	case http.MethodPost:
		h.createWindow(w, r)
	case http.MethodDelete:
		h.deleteWindow(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listWindows(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	windows, err := h.windows.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("window list failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	items := make([]windowItem, 0, len(windows))
	for _, win := range windows {
		items = append(items, windowItem{
			ID:        win.ID,
			Date:      win.Date.Format("2006-01-02"),
			StartTime: timeutil.FormatClock(win.StartMin),
			EndTime:   timeutil.FormatClock(win.EndMin),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": items})
}

func (h *AdminHandler) createWindow(w http.ResponseWriter, r *http.Request) {
	var req createWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Date), time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	startMin, err := timeutil.ParseClock(req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endMin, err := timeutil.ParseClock(req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if endMin <= startMin {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	win := &model.AvailabilityWindow{Date: date, StartMin: startMin, EndMin: endMin}
	if err := h.windows.Create(r.Context(), win); err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "window already exists", http.StatusConflict)
			return
		}
		h.logger.Error("window create failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, windowItem{
		ID:        win.ID,
		Date:      win.Date.Format("2006-01-02"),
		StartTime: timeutil.FormatClock(win.StartMin),
		EndTime:   timeutil.FormatClock(win.EndMin),
	})
}

func (h *AdminHandler) deleteWindow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	deleted, err := h.windows.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("window delete failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var settableKeys = map[string]bool{
	storage.SettingBufferMinutes:       true,
	storage.SettingReminderHoursBefore: true,
	storage.SettingSMSEnabled:          true,
	storage.SettingEmailEnabled:        true,
}

type updateSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Settings reads and writes the runtime policy store. Changes apply on the
// next slot computation or reminder cycle; no restart is involved.
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		all, err := h.settings.All(r.Context())
		if err != nil {
			h.logger.Error("settings read failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": all})
	case http.MethodPut, http.MethodPost:
		var req updateSettingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Key = strings.TrimSpace(req.Key)
		if !settableKeys[req.Key] {
			http.Error(w, "unknown setting key", http.StatusBadRequest)
			return
		}
		if err := h.settings.Set(r.Context(), req.Key, strings.TrimSpace(req.Value)); err != nil {
			h.logger.Error("setting update failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{req.Key: strings.TrimSpace(req.Value)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
