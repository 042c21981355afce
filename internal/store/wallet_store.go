package store

import (
	"context"

	"finmec/internal/models"

	"github.com/shopspring/decimal"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

const walletColumns = `id, user_id, name, description, current_balance, is_active, is_default, created_at, updated_at`

func (s *WalletStore) Create(ctx context.Context, tx Getter, userID int64, name, description string, isDefault bool) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO wallets (user_id, name, description, current_balance, is_active, is_default)
		VALUES ($1, $2, $3, 0, TRUE, $4)
		RETURNING id
	`, userID, name, description, isDefault)
	return id, err
}

func (s *WalletStore) GetByID(ctx context.Context, userID, walletID int64) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1 AND user_id = $2
	`, walletID, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) ListByUser(ctx context.Context, userID int64) ([]models.Wallet, error) {
	var rows []models.Wallet
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *WalletStore) GetDefault(ctx context.Context, userID int64) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1 AND is_default = TRUE
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

// LockLowest locks the user's lowest-id wallet.
func (s *WalletStore) LockLowest(ctx context.Context, tx Getter, userID int64) (models.Wallet, error) {
	var row models.Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
		ORDER BY id
		LIMIT 1
		FOR UPDATE
	`, userID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, walletID int64) (models.Wallet, error) {
	var row models.Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID)
	if err != nil {
		return models.Wallet{}, err
	}
	return row, nil
}

func (s *WalletStore) Promote(ctx context.Context, tx Execer, walletID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET is_default = TRUE, updated_at = NOW()
		WHERE id = $1
	`, walletID)
	return err
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID int64, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET current_balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID)
	return err
}
