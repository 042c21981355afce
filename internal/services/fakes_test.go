package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finmec/internal/models"
	"finmec/internal/store"
	"finmec/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err   error
	calls atomic.Int32
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	f.calls.Add(1)
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// memStore is an in-memory stand-in for the wallet, transaction and user tables.
type memStore struct {
	mu           sync.Mutex
	nextID       atomic.Int64
	wallets      map[int64]models.Wallet
	transactions map[int64]models.Transaction
	users        map[int64]models.User
	locked       []int64
}

func newMemStore() *memStore {
	return &memStore{
		wallets:      make(map[int64]models.Wallet),
		transactions: make(map[int64]models.Transaction),
		users:        make(map[int64]models.User),
	}
}

func (m *memStore) id() int64 {
	return m.nextID.Add(1)
}

func (m *memStore) addWallet(userID int64, name string, isDefault bool) models.Wallet {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := models.Wallet{ID: m.id(), UserID: userID, Name: name, IsDefault: isDefault, IsActive: true}
	m.wallets[w.ID] = w
	return w
}

func (m *memStore) GetByID(ctx context.Context, userID, walletID int64) (models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok || w.UserID != userID {
		return models.Wallet{}, sql.ErrNoRows
	}
	return w, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, tx store.Getter, walletID int64) (models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return models.Wallet{}, sql.ErrNoRows
	}
	m.locked = append(m.locked, walletID)
	return w, nil
}

func (m *memStore) UpdateBalance(ctx context.Context, tx store.Execer, walletID int64, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.wallets[walletID]
	w.CurrentBalance = balance
	m.wallets[walletID] = w
	return nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int64) ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.Wallet
	for _, w := range m.wallets {
		if w.UserID == userID {
			rows = append(rows, w)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (m *memStore) GetDefault(ctx context.Context, userID int64) (models.Wallet, error) {
	rows, _ := m.ListByUser(ctx, userID)
	for _, w := range rows {
		if w.IsDefault {
			return w, nil
		}
	}
	return models.Wallet{}, sql.ErrNoRows
}

func (m *memStore) LockLowest(ctx context.Context, tx store.Getter, userID int64) (models.Wallet, error) {
	rows, _ := m.ListByUser(ctx, userID)
	if len(rows) == 0 {
		return models.Wallet{}, sql.ErrNoRows
	}
	return rows[0], nil
}

func (m *memStore) Promote(ctx context.Context, tx store.Execer, walletID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.wallets[walletID]
	w.IsDefault = true
	m.wallets[walletID] = w
	return nil
}

// walletCreator adapts memStore to the wallet Create signature.
type walletCreator struct{ m *memStore }

func (c walletCreator) Create(ctx context.Context, tx store.Getter, userID int64, name, description string, isDefault bool) (int64, error) {
	return c.m.addWallet(userID, name, isDefault).ID, nil
}

type memTransactions struct{ m *memStore }

func (t memTransactions) Create(ctx context.Context, tx store.Getter, in store.TransactionInput) (int64, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	row := models.Transaction{
		ID: t.m.id(), UserID: in.UserID, CategoryID: in.CategoryID, PaymentMethodID: in.PaymentMethodID,
		WalletID: in.WalletID, Title: in.Title, Description: in.Description, Amount: in.Amount,
		Type: in.Type, Date: in.Date, IsConfirmed: in.IsConfirmed, CreatedAt: time.Now(),
	}
	t.m.transactions[row.ID] = row
	return row.ID, nil
}

func (t memTransactions) GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	row, ok := t.m.transactions[transactionID]
	if !ok || row.UserID != userID {
		return models.TransactionWithCategory{}, sql.ErrNoRows
	}
	return models.TransactionWithCategory{Transaction: row}, nil
}

func (t memTransactions) GetForUpdate(ctx context.Context, tx store.Getter, userID, transactionID int64) (models.Transaction, error) {
	row, err := t.GetByID(ctx, userID, transactionID)
	return row.Transaction, err
}

func (t memTransactions) ListRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error) {
	rows, _ := t.List(ctx, userID, store.TransactionFilter{Limit: limit})
	return rows, nil
}

func (t memTransactions) List(ctx context.Context, userID int64, f store.TransactionFilter) ([]models.TransactionWithCategory, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	var rows []models.TransactionWithCategory
	for _, row := range t.m.transactions {
		if row.UserID != userID {
			continue
		}
		if f.Start != nil && row.Date.Before(*f.Start) || f.End != nil && row.Date.After(*f.End) {
			continue
		}
		if f.Type != nil && row.Type != *f.Type {
			continue
		}
		if f.TitleLike != "" && !strings.Contains(strings.ToLower(row.Title), strings.ToLower(f.TitleLike)) {
			continue
		}
		rows = append(rows, models.TransactionWithCategory{Transaction: row})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID > rows[j].ID
	})
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

func (t memTransactions) Update(ctx context.Context, tx store.Execer, userID, transactionID int64, p store.TransactionPatch) error {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	row, ok := t.m.transactions[transactionID]
	if !ok || row.UserID != userID {
		return nil
	}
	if p.Amount != nil {
		row.Amount = *p.Amount
	}
	if p.Type != nil {
		row.Type = *p.Type
	}
	if p.WalletID != nil {
		row.WalletID = p.WalletID
	}
	if p.Title != nil {
		row.Title = *p.Title
	}
	if p.Date != nil {
		row.Date = *p.Date
	}
	t.m.transactions[transactionID] = row
	return nil
}

func (t memTransactions) Delete(ctx context.Context, tx store.Execer, userID, transactionID int64) (int64, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	row, ok := t.m.transactions[transactionID]
	if !ok || row.UserID != userID {
		return 0, nil
	}
	delete(t.m.transactions, transactionID)
	return 1, nil
}

func (t memTransactions) ListAmountsByWallet(ctx context.Context, tx store.Selecter, walletID int64) ([]store.SignedAmount, error) {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	var rows []store.SignedAmount
	for _, row := range t.m.transactions {
		if row.WalletID != nil && *row.WalletID == walletID {
			rows = append(rows, store.SignedAmount{Amount: row.Amount, Type: row.Type})
		}
	}
	return rows, nil
}

type recordingHub struct {
	mu      sync.Mutex
	updates map[int64][]websocket.BalanceUpdate
}

func (h *recordingHub) BroadcastBalance(userID int64, update websocket.BalanceUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.updates == nil {
		h.updates = make(map[int64][]websocket.BalanceUpdate)
	}
	h.updates[userID] = append(h.updates[userID], update)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
