package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hopono/scheduling/libs/db"
)

// Setting keys read by the slot engine and the reminder dispatcher.
const (
	SettingBufferMinutes       = "buffer_minutes"
	SettingReminderHoursBefore = "reminder_hours_before"
	SettingSMSEnabled          = "sms_enabled"
	SettingEmailEnabled        = "email_enabled"
)

// Defaults applied when a key is absent.
const (
	DefaultBufferMinutes       = 30
	DefaultReminderHoursBefore = 24
)

// SettingsRepository is a flat key→string configuration store, written by
// administrative action and read on every slot computation and reminder
// cycle so changes take effect without a restart.
type SettingsRepository struct {
	pool *db.Pool
}

func NewSettingsRepository(pool *db.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// BufferMinutes returns the buffer policy in effect, default 30.
func (r *SettingsRepository) BufferMinutes(ctx context.Context) (int, error) {
	return r.intSetting(ctx, SettingBufferMinutes, DefaultBufferMinutes)
}

// ReminderPolicy returns the reminder lead time and channel enable flags,
// defaults 24h / true / true.
func (r *SettingsRepository) ReminderPolicy(ctx context.Context) (leadHours int, smsEnabled, emailEnabled bool, err error) {
	leadHours, err = r.intSetting(ctx, SettingReminderHoursBefore, DefaultReminderHoursBefore)
	if err != nil {
		return 0, false, false, err
	}
	smsEnabled, err = r.boolSetting(ctx, SettingSMSEnabled, true)
	if err != nil {
		return 0, false, false, err
	}
	emailEnabled, err = r.boolSetting(ctx, SettingEmailEnabled, true)
	if err != nil {
		return 0, false, false, err
	}
	return leadHours, smsEnabled, emailEnabled, nil
}

func (r *SettingsRepository) intSetting(ctx context.Context, key string, fallback int) (int, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return fallback, nil
	}
	return n, nil
}

func (r *SettingsRepository) boolSetting(ctx context.Context, key string, fallback bool) (bool, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return fallback, nil
	}
	return strings.EqualFold(strings.TrimSpace(raw), "true"), nil
}
