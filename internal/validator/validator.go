package validator

import (
	"errors"
	"strings"
	"time"

	"finmec/internal/models"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidDateTime = errors.New("invalid date time")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidRange    = errors.New("start date after end date")
)

const (
	isoDate = "2006-01-02"
	brDate  = "02/01/2006"
)

// ParseDate accepts DD/MM/YYYY or YYYY-MM-DD and returns midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layout := isoDate
	if strings.Contains(raw, "/") {
		layout = brDate
	}
	parsed, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// ParseDateTime accepts "DD/MM/YYYY HH:MM" or "YYYY-MM-DD HH:MM" in loc.
// A bare date is scheduled at 09:00.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.Local
	}
	dateLayout := isoDate
	if strings.Contains(raw, "/") {
		dateLayout = brDate
	}
	if parsed, err := time.ParseInLocation(dateLayout+" 15:04", raw, loc); err == nil {
		return parsed, nil
	}
	if parsed, err := time.ParseInLocation(time.RFC3339, raw, loc); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}
	return parsed.Add(9 * time.Hour), nil
}

// ParseTransactionType accepts the stored values as well as the Portuguese
// words the dashboard and the model use.
func ParseTransactionType(raw string) (models.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "income", "receita", "renda", "ganho":
		return models.TransactionIncome, nil
	case "expense", "despesa", "gasto":
		return models.TransactionExpense, nil
	default:
		return "", ErrInvalidType
	}
}

// DayOf truncates t to its calendar day in UTC, keeping the local date.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last calendar day of the month containing t.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

func ValidateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return ErrInvalidRange
	}
	return nil
}

func FormatDate(t time.Time) string {
	return t.Format(brDate)
}

func FormatISODate(t time.Time) string {
	return t.Format(isoDate)
}
