package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"finmec/internal/db"
	"finmec/internal/models"
	"finmec/internal/money"
	"finmec/internal/store"
	"finmec/internal/validator"
	"finmec/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type TransactionService struct {
	txRunner     db.TxRunner
	wallets      WalletStore
	defaults     DefaultWallet
	transactions TransactionStore
	hub          BalanceHub
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
}

type WalletStore interface {
	GetByID(ctx context.Context, userID, walletID int64) (models.Wallet, error)
	GetForUpdate(ctx context.Context, tx store.Getter, walletID int64) (models.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID int64, balance decimal.Decimal) error
}

type DefaultWallet interface {
	Current(ctx context.Context, userID int64) (models.Wallet, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Getter, input store.TransactionInput) (int64, error)
	GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID, transactionID int64) (models.Transaction, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error)
	List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)
	Update(ctx context.Context, tx store.Execer, userID, transactionID int64, patch store.TransactionPatch) error
	Delete(ctx context.Context, tx store.Execer, userID, transactionID int64) (int64, error)
	ListAmountsByWallet(ctx context.Context, tx store.Selecter, walletID int64) ([]store.SignedAmount, error)
}

type BalanceHub interface {
	BroadcastBalance(userID int64, update websocket.BalanceUpdate)
}

func NewTransactionService(txRunner db.TxRunner, wallets WalletStore, defaults DefaultWallet, transactions TransactionStore, hub BalanceHub, loc *time.Location, logger *slog.Logger) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &TransactionService{
		txRunner:     txRunner,
		wallets:      wallets,
		defaults:     defaults,
		transactions: transactions,
		hub:          hub,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

// today is the calendar date in the configured timezone.
func (s *TransactionService) today() time.Time {
	return validator.DayOf(s.now().In(s.loc))
}

// ComputeBalance is Σ income − Σ expense over a wallet's transactions.
func ComputeBalance(rows []store.SignedAmount) decimal.Decimal {
	balance := decimal.Zero
	for _, row := range rows {
		if row.Type == models.TransactionIncome {
			balance = balance.Add(row.Amount)
		} else {
			balance = balance.Sub(row.Amount)
		}
	}
	return balance.Round(2)
}

type CreateTransactionInput struct {
	UserID          int64
	Title           string
	Description     *string
	Amount          decimal.Decimal
	Type            models.TransactionType
	Date            time.Time
	CategoryID      *int64
	PaymentMethodID *int64
	WalletID        *int64
	Notes           *string
	ReceiptURL      *string
	Tags            *string
	IsRecurring     bool
	IsConfirmed     bool
}

func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput) (models.TransactionWithCategory, error) {
	amount, err := money.Validate(in.Amount)
	if err != nil {
		return models.TransactionWithCategory{}, ErrInvalidAmount
	}
	if !in.Type.Valid() {
		return models.TransactionWithCategory{}, ErrInvalidType
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.TransactionWithCategory{}, ErrInvalidTitle
	}
	walletID, err := s.resolveWallet(ctx, in.UserID, in.WalletID)
	if err != nil {
		return models.TransactionWithCategory{}, err
	}
	date := in.Date
	if date.IsZero() {
		date = s.today()
	}

	var transactionID int64
	var touched []models.Wallet
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		touched = nil
		locked, err := s.lockWallets(ctx, tx, walletID)
		if err != nil {
			return err
		}
		transactionID, err = s.transactions.Create(ctx, tx, store.TransactionInput{
			UserID:          in.UserID,
			CategoryID:      in.CategoryID,
			PaymentMethodID: in.PaymentMethodID,
			WalletID:        walletID,
			Title:           title,
			Description:     in.Description,
			Amount:          amount,
			Type:            in.Type,
			Date:            validator.DayOf(date),
			Notes:           in.Notes,
			ReceiptURL:      in.ReceiptURL,
			Tags:            in.Tags,
			IsRecurring:     in.IsRecurring,
			IsConfirmed:     in.IsConfirmed,
		})
		if err != nil {
			return err
		}
		touched, err = s.recompute(ctx, tx, locked)
		return err
	})
	if err != nil {
		return models.TransactionWithCategory{}, err
	}
	s.broadcast(in.UserID, touched)
	return s.GetByID(ctx, in.UserID, transactionID)
}

func (s *TransactionService) GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error) {
	row, err := s.transactions.GetByID(ctx, userID, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TransactionWithCategory{}, ErrTransactionNotFound
		}
		return models.TransactionWithCategory{}, err
	}
	return row, nil
}

func (s *TransactionService) GetRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.transactions.ListRecent(ctx, userID, limit)
}

func (s *TransactionService) List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error) {
	if err := validator.ValidateRange(filter.Start, filter.End); err != nil {
		return nil, ErrInvalidRange
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}
	return s.transactions.List(ctx, userID, filter)
}

func (s *TransactionService) Update(ctx context.Context, userID, transactionID int64, patch store.TransactionPatch) (models.TransactionWithCategory, error) {
	if patch.Amount != nil {
		amount, err := money.Validate(*patch.Amount)
		if err != nil {
			return models.TransactionWithCategory{}, ErrInvalidAmount
		}
		patch.Amount = &amount
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return models.TransactionWithCategory{}, ErrInvalidType
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.TransactionWithCategory{}, ErrInvalidTitle
		}
		patch.Title = &title
	}
	if patch.Date != nil {
		day := validator.DayOf(*patch.Date)
		patch.Date = &day
	}
	if patch.WalletID != nil {
		if _, err := s.resolveWallet(ctx, userID, patch.WalletID); err != nil {
			return models.TransactionWithCategory{}, err
		}
	}

	var touched []models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		touched = nil
		current, err := s.transactions.GetForUpdate(ctx, tx, userID, transactionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return err
		}
		target := current.WalletID
		if patch.WalletID != nil {
			target = patch.WalletID
		}
		locked, err := s.lockWallets(ctx, tx, current.WalletID, target)
		if err != nil {
			return err
		}
		if err := s.transactions.Update(ctx, tx, userID, transactionID, patch); err != nil {
			return err
		}
		touched, err = s.recompute(ctx, tx, locked)
		return err
	})
	if err != nil {
		return models.TransactionWithCategory{}, err
	}
	s.broadcast(userID, touched)
	return s.GetByID(ctx, userID, transactionID)
}

func (s *TransactionService) Delete(ctx context.Context, userID, transactionID int64) error {
	var touched []models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		touched = nil
		current, err := s.transactions.GetForUpdate(ctx, tx, userID, transactionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return err
		}
		locked, err := s.lockWallets(ctx, tx, current.WalletID)
		if err != nil {
			return err
		}
		deleted, err := s.transactions.Delete(ctx, tx, userID, transactionID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return ErrTransactionNotFound
		}
		touched, err = s.recompute(ctx, tx, locked)
		return err
	})
	if err != nil {
		return err
	}
	s.broadcast(userID, touched)
	return nil
}

type Summary struct {
	Start            time.Time
	End              time.Time
	TotalIncome      decimal.Decimal
	TotalExpense     decimal.Decimal
	Balance          decimal.Decimal
	TransactionCount int
}

// Summary defaults a missing bound to the current month's first or last day.
func (s *TransactionService) Summary(ctx context.Context, userID int64, start, end *time.Time) (Summary, error) {
	first, last := validator.MonthBounds(s.today())
	if start == nil {
		start = &first
	}
	if end == nil {
		end = &last
	}
	rows, err := s.List(ctx, userID, store.TransactionFilter{Start: start, End: end})
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		Start:            *start,
		End:              *end,
		TotalIncome:      decimal.Zero,
		TotalExpense:     decimal.Zero,
		TransactionCount: len(rows),
	}
	for _, row := range rows {
		if row.Type == models.TransactionIncome {
			summary.TotalIncome = summary.TotalIncome.Add(row.Amount)
		} else {
			summary.TotalExpense = summary.TotalExpense.Add(row.Amount)
		}
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary, nil
}

// resolveWallet returns the explicit wallet when owned by the user, the
// default wallet otherwise, or nil when the user has none.
func (s *TransactionService) resolveWallet(ctx context.Context, userID int64, explicit *int64) (*int64, error) {
	if explicit != nil {
		wallet, err := s.wallets.GetByID(ctx, userID, *explicit)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrWalletNotFound
			}
			return nil, err
		}
		return &wallet.ID, nil
	}
	wallet, err := s.defaults.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet.ID, nil
}

// lockWallets takes row locks in ascending id order, skipping nil and duplicates.
func (s *TransactionService) lockWallets(ctx context.Context, tx store.Getter, ids ...*int64) ([]models.Wallet, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]bool)
	for _, id := range ids {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		unique = append(unique, *id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	locked := make([]models.Wallet, 0, len(unique))
	for _, id := range unique {
		wallet, err := s.wallets.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrWalletNotFound
			}
			return nil, err
		}
		locked = append(locked, wallet)
	}
	return locked, nil
}

func (s *TransactionService) recompute(ctx context.Context, tx store.Tx, wallets []models.Wallet) ([]models.Wallet, error) {
	updated := make([]models.Wallet, 0, len(wallets))
	for _, wallet := range wallets {
		rows, err := s.transactions.ListAmountsByWallet(ctx, tx, wallet.ID)
		if err != nil {
			return nil, err
		}
		wallet.CurrentBalance = ComputeBalance(rows)
		if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, wallet.CurrentBalance); err != nil {
			return nil, err
		}
		updated = append(updated, wallet)
	}
	return updated, nil
}

func (s *TransactionService) broadcast(userID int64, wallets []models.Wallet) {
	if s.hub == nil {
		return
	}
	for _, wallet := range wallets {
		s.logger.Debug("wallet balance recomputed",
			slog.Int64("user_id", userID),
			slog.Int64("wallet_id", wallet.ID),
			slog.String("balance", wallet.CurrentBalance.StringFixed(2)),
		)
		s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
			WalletID: wallet.ID,
			Name:     wallet.Name,
			Balance:  wallet.CurrentBalance.StringFixed(2),
		})
	}
}
