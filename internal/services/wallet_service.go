package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"finmec/internal/db"
	"finmec/internal/models"
	"finmec/internal/store"

	"github.com/jmoiron/sqlx"
)

type WalletService struct {
	txRunner db.TxRunner
	wallets  WalletReader
	logger   *slog.Logger
}

type WalletReader interface {
	GetByID(ctx context.Context, userID, walletID int64) (models.Wallet, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Wallet, error)
	GetDefault(ctx context.Context, userID int64) (models.Wallet, error)
	LockLowest(ctx context.Context, tx store.Getter, userID int64) (models.Wallet, error)
	Promote(ctx context.Context, tx store.Execer, walletID int64) error
}

func NewWalletService(txRunner db.TxRunner, wallets WalletReader, logger *slog.Logger) *WalletService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WalletService{txRunner: txRunner, wallets: wallets, logger: logger}
}

// Current returns the default wallet. When none is flagged the lowest-id
// wallet is promoted.
func (s *WalletService) Current(ctx context.Context, userID int64) (models.Wallet, error) {
	wallet, err := s.wallets.GetDefault(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Wallet{}, err
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		lowest, err := s.wallets.LockLowest(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrWalletNotFound
			}
			return err
		}
		if !lowest.IsDefault {
			if err := s.wallets.Promote(ctx, tx, lowest.ID); err != nil {
				return err
			}
			s.logger.Info("promoted default wallet", slog.Int64("user_id", userID), slog.Int64("wallet_id", lowest.ID))
		}
		lowest.IsDefault = true
		wallet = lowest
		return nil
	})
	if err != nil {
		return models.Wallet{}, err
	}
	return wallet, nil
}

func (s *WalletService) List(ctx context.Context, userID int64) ([]models.Wallet, error) {
	return s.wallets.ListByUser(ctx, userID)
}

func (s *WalletService) Get(ctx context.Context, userID, walletID int64) (models.Wallet, error) {
	wallet, err := s.wallets.GetByID(ctx, userID, walletID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Wallet{}, ErrWalletNotFound
		}
		return models.Wallet{}, err
	}
	return wallet, nil
}
