package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"finmec/internal/models"

	"github.com/shopspring/decimal"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	UserID          int64
	CategoryID      *int64
	PaymentMethodID *int64
	WalletID        *int64
	Title           string
	Description     *string
	Amount          decimal.Decimal
	Type            models.TransactionType
	Date            time.Time
	Notes           *string
	ReceiptURL      *string
	Tags            *string
	IsRecurring     bool
	IsConfirmed     bool
}

// TransactionPatch carries the fields of a partial update; nil fields are kept.
type TransactionPatch struct {
	CategoryID      *int64
	PaymentMethodID *int64
	WalletID        *int64
	Title           *string
	Description     *string
	Amount          *decimal.Decimal
	Type            *models.TransactionType
	Date            *time.Time
	Notes           *string
	ReceiptURL      *string
	Tags            *string
	IsRecurring     *bool
	IsConfirmed     *bool
}

type TransactionFilter struct {
	Start      *time.Time
	End        *time.Time
	CategoryID *int64
	Type       *models.TransactionType
	TitleLike  string
	Limit      int
	Offset     int
}

// SignedAmount is the minimal projection used to recompute a wallet balance.
type SignedAmount struct {
	Amount decimal.Decimal        `db:"amount"`
	Type   models.TransactionType `db:"transaction_type"`
}

const transactionColumns = `t.id, t.user_id, t.category_id, t.payment_method_id, t.wallet_id, t.title,
		       t.description, t.amount, t.transaction_type, t.transaction_date, t.notes, t.receipt_url,
		       t.tags, t.is_recurring, t.is_confirmed, t.created_at, t.updated_at`

func (s *TransactionStore) Create(ctx context.Context, tx Getter, input TransactionInput) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO transactions (user_id, category_id, payment_method_id, wallet_id, title, description,
		                          amount, transaction_type, transaction_date, notes, receipt_url, tags,
		                          is_recurring, is_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, input.UserID, input.CategoryID, input.PaymentMethodID, input.WalletID, input.Title, input.Description,
		input.Amount, input.Type, input.Date, input.Notes, input.ReceiptURL, input.Tags,
		input.IsRecurring, input.IsConfirmed)
	return id, err
}

func (s *TransactionStore) GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error) {
	var row models.TransactionWithCategory
	err := s.db.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`, c.name AS category_name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1 AND t.user_id = $2
	`, transactionID, userID)
	if err != nil {
		return models.TransactionWithCategory{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, userID, transactionID int64) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT `+transactionColumns+`
		FROM transactions t
		WHERE t.id = $1 AND t.user_id = $2
		FOR UPDATE
	`, transactionID, userID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) ListRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error) {
	var rows []models.TransactionWithCategory
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`, c.name AS category_name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.transaction_date DESC, t.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List applies the filter with inclusive date bounds. A zero Limit returns every match.
func (s *TransactionStore) List(ctx context.Context, userID int64, filter TransactionFilter) ([]models.TransactionWithCategory, error) {
	var rows []models.TransactionWithCategory
	query := `
		SELECT ` + transactionColumns + `, c.name AS category_name
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1`
	args := []any{userID}
	add := func(clause string, value any) {
		args = append(args, value)
		query += " AND " + strings.Replace(clause, "?", "$"+itoa(len(args)), 1)
	}
	if filter.Start != nil {
		add("t.transaction_date >= ?", *filter.Start)
	}
	if filter.End != nil {
		add("t.transaction_date <= ?", *filter.End)
	}
	if filter.CategoryID != nil {
		add("t.category_id = ?", *filter.CategoryID)
	}
	if filter.Type != nil {
		add("t.transaction_type = ?", *filter.Type)
	}
	if filter.TitleLike != "" {
		add("t.title ILIKE ?", "%"+escapeLike(filter.TitleLike)+"%")
	}
	query += " ORDER BY t.transaction_date DESC, t.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + itoa(len(args))
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) Update(ctx context.Context, tx Execer, userID, transactionID int64, patch TransactionPatch) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = COALESCE($1, category_id),
		    payment_method_id = COALESCE($2, payment_method_id),
		    wallet_id = COALESCE($3, wallet_id),
		    title = COALESCE($4, title),
		    description = COALESCE($5, description),
		    amount = COALESCE($6, amount),
		    transaction_type = COALESCE($7, transaction_type),
		    transaction_date = COALESCE($8, transaction_date),
		    notes = COALESCE($9, notes),
		    receipt_url = COALESCE($10, receipt_url),
		    tags = COALESCE($11, tags),
		    is_recurring = COALESCE($12, is_recurring),
		    is_confirmed = COALESCE($13, is_confirmed),
		    updated_at = NOW()
		WHERE id = $14 AND user_id = $15
	`, patch.CategoryID, patch.PaymentMethodID, patch.WalletID, patch.Title, patch.Description,
		patch.Amount, patch.Type, patch.Date, patch.Notes, patch.ReceiptURL, patch.Tags,
		patch.IsRecurring, patch.IsConfirmed, transactionID, userID)
	return err
}

func (s *TransactionStore) Delete(ctx context.Context, tx Execer, userID, transactionID int64) (int64, error) {
	return affected(tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, transactionID, userID))
}

func (s *TransactionStore) ListAmountsByWallet(ctx context.Context, tx Selecter, walletID int64) ([]SignedAmount, error) {
	var rows []SignedAmount
	err := tx.SelectContext(ctx, &rows, `
		SELECT amount, transaction_type
		FROM transactions
		WHERE wallet_id = $1
	`, walletID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func itoa(value int) string {
	return strconv.Itoa(value)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
