package store

import (
	"context"

	"finmec/internal/models"
)

// CategoryStore and PaymentMethodStore serve the seeded reference tables.
type CategoryStore struct {
	db DB
}

func NewCategoryStore(db DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, description, default_type, icon, is_active, is_system, created_at, updated_at
		FROM categories
		WHERE is_active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *CategoryStore) GetByID(ctx context.Context, categoryID int64) (models.Category, error) {
	var row models.Category
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, description, default_type, icon, is_active, is_system, created_at, updated_at
		FROM categories
		WHERE id = $1
	`, categoryID)
	if err != nil {
		return models.Category{}, err
	}
	return row, nil
}

type PaymentMethodStore struct {
	db DB
}

func NewPaymentMethodStore(db DB) *PaymentMethodStore {
	return &PaymentMethodStore{db: db}
}

func (s *PaymentMethodStore) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, description, icon, is_active, is_system, created_at, updated_at
		FROM payment_methods
		WHERE is_active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *PaymentMethodStore) GetByID(ctx context.Context, methodID int64) (models.PaymentMethod, error) {
	var row models.PaymentMethod
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, description, icon, is_active, is_system, created_at, updated_at
		FROM payment_methods
		WHERE id = $1
	`, methodID)
	if err != nil {
		return models.PaymentMethod{}, err
	}
	return row, nil
}
