package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Known configuration keys. Values are stored as strings and parsed on
// every read; nothing in the system holds a cached copy.
const (
	KeyRecallWindowHours = "recall_window_hours"
	KeyOvertimeThreshold = "overtime_threshold"
	KeyWorkWeekStart     = "work_week_start"
	KeyCompanyName       = "company_name"
)

const (
	defaultRecallWindowHours = 24
	defaultOvertimeThreshold = 9
)

var ErrUnknownKey = errors.New("unknown setting key")

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Service) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (s *Service) Update(ctx context.Context, key, value string) error {
	if err := validate(key, value); err != nil {
		return err
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
  `, key, value)
	return err
}

// RecallWindow reads the live recall window. A missing or malformed value
// falls back to the default so recall checks never hard-fail on bad config.
func (s *Service) RecallWindow(ctx context.Context) (time.Duration, error) {
	raw, err := s.Get(ctx, KeyRecallWindowHours)
	if err != nil {
		return 0, err
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		hours = defaultRecallWindowHours
	}
	return time.Duration(hours) * time.Hour, nil
}

func (s *Service) OvertimeThreshold(ctx context.Context) (float64, error) {
	raw, err := s.Get(ctx, KeyOvertimeThreshold)
	if err != nil {
		return 0, err
	}
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold <= 0 {
		threshold = defaultOvertimeThreshold
	}
	return threshold, nil
}

// WorkWeekStart reports the configured first day of the work week.
// Anything other than Sunday reads as Monday.
func (s *Service) WorkWeekStart(ctx context.Context) (time.Weekday, error) {
	raw, err := s.Get(ctx, KeyWorkWeekStart)
	if err != nil {
		return time.Monday, err
	}
	if raw == "Sunday" {
		return time.Sunday, nil
	}
	return time.Monday, nil
}

func validate(key, value string) error {
	switch key {
	case KeyRecallWindowHours:
		hours, err := strconv.Atoi(value)
		if err != nil || hours < 1 || hours > 72 {
			return fmt.Errorf("%s must be an integer between 1 and 72", key)
		}
	case KeyOvertimeThreshold:
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil || threshold < 1 || threshold > 24 {
			return fmt.Errorf("%s must be a number between 1 and 24", key)
		}
	case KeyWorkWeekStart:
		if value != "Monday" && value != "Sunday" {
			return fmt.Errorf("%s must be Monday or Sunday", key)
		}
	case KeyCompanyName:
		if value == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	default:
		return ErrUnknownKey
	}
	return nil
}
