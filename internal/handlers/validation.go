package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finmec/internal/middleware"
	"finmec/internal/models"
	"finmec/internal/validator"

	"github.com/go-chi/chi/v5"
)

var errInvalidID = errors.New("invalid id")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
	}
	return user, ok
}

// queryInt reads an optional integer bounded by [min, max]. A missing value
// yields fallback.
func queryInt(query url.Values, key string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return value, nil
}

func queryDate(query url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := validator.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &parsed, nil
}

func queryRange(query url.Values, startKey, endKey string) (*time.Time, *time.Time, error) {
	start, err := queryDate(query, startKey)
	if err != nil {
		return nil, nil, err
	}
	end, err := queryDate(query, endKey)
	if err != nil {
		return nil, nil, err
	}
	if err := validator.ValidateRange(start, end); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func queryID(query url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%s: %w", key, errInvalidID)
	}
	return &id, nil
}

func queryType(query url.Values, key string) (*models.TransactionType, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	txType, err := validator.ParseTransactionType(raw)
	if err != nil {
		return nil, err
	}
	return &txType, nil
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
