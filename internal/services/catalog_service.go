package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode"

	"finmec/internal/models"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	categoriesKey     = "categories"
	paymentMethodsKey = "payment_methods"
)

type CategoryStore interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, categoryID int64) (models.Category, error)
}

type PaymentMethodStore interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	GetByID(ctx context.Context, methodID int64) (models.PaymentMethod, error)
}

// CatalogService serves categories and payment methods through a TTL cache.
type CatalogService struct {
	categories CategoryStore
	methods    PaymentMethodStore
	cache      *ristretto.Cache
	ttl        time.Duration
}

func NewCatalogService(categories CategoryStore, methods PaymentMethodStore, ttl time.Duration) (*CatalogService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CatalogService{categories: categories, methods: methods, cache: cache, ttl: ttl}, nil
}

func (s *CatalogService) Close() {
	s.cache.Close()
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	if cached, ok := s.cache.Get(categoriesKey); ok {
		return cached.([]models.Category), nil
	}
	rows, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		s.cache.SetWithTTL(categoriesKey, rows, int64(len(rows))+1, s.ttl)
	}
	return rows, nil
}

func (s *CatalogService) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	if cached, ok := s.cache.Get(paymentMethodsKey); ok {
		return cached.([]models.PaymentMethod), nil
	}
	rows, err := s.methods.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		s.cache.SetWithTTL(paymentMethodsKey, rows, int64(len(rows))+1, s.ttl)
	}
	return rows, nil
}

func (s *CatalogService) Category(ctx context.Context, categoryID int64) (models.Category, error) {
	row, err := s.categories.GetByID(ctx, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, ErrCategoryNotFound
	}
	return row, err
}

func (s *CatalogService) PaymentMethod(ctx context.Context, methodID int64) (models.PaymentMethod, error) {
	row, err := s.methods.GetByID(ctx, methodID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentMethod{}, ErrPaymentMethodNotFound
	}
	return row, err
}

// FindCategory matches an active category by accent and case insensitive
// substring. An exact match wins over a partial one.
func (s *CatalogService) FindCategory(ctx context.Context, name string) (models.Category, bool, error) {
	rows, err := s.Categories(ctx)
	if err != nil {
		return models.Category{}, false, err
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	idx := matchName(names, name)
	if idx < 0 {
		return models.Category{}, false, nil
	}
	return rows[idx], true, nil
}

func (s *CatalogService) FindPaymentMethod(ctx context.Context, name string) (models.PaymentMethod, bool, error) {
	rows, err := s.PaymentMethods(ctx)
	if err != nil {
		return models.PaymentMethod{}, false, err
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	idx := matchName(names, name)
	if idx < 0 {
		return models.PaymentMethod{}, false, nil
	}
	return rows[idx], true, nil
}

func matchName(names []string, query string) int {
	needle := Fold(query)
	if needle == "" {
		return -1
	}
	partial := -1
	for i, name := range names {
		folded := Fold(name)
		if folded == needle {
			return i
		}
		if partial < 0 && strings.Contains(folded, needle) {
			partial = i
		}
	}
	return partial
}

// Fold lower-cases s and strips diacritics, so "Alimentação" becomes "alimentacao".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
