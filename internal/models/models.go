package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

func (t TransactionType) Valid() bool {
	return t == TransactionExpense || t == TransactionIncome
}

// Label returns the Portuguese label shown to WhatsApp users.
func (t TransactionType) Label() string {
	if t == TransactionIncome {
		return "Receita"
	}
	return "Despesa"
}

type User struct {
	ID           int64      `db:"id" json:"id"`
	RemoteJID    string     `db:"remote_jid" json:"remote_jid"`
	Name         *string    `db:"name" json:"name"`
	Email        *string    `db:"email" json:"email"`
	Phone        *string    `db:"phone" json:"phone"`
	Username     *string    `db:"username" json:"username"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	APIKey       string     `db:"api_key" json:"-"`
	MasterToken  string     `db:"master_token" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsVerified   bool       `db:"is_verified" json:"is_verified"`
	Domain       *string    `db:"domain" json:"domain"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at"`
}

type Wallet struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description"`
	CurrentBalance decimal.Decimal `db:"current_balance" json:"current_balance"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	IsDefault      bool            `db:"is_default" json:"is_default"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time      `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	DefaultType TransactionType `db:"default_type" json:"default_type"`
	Icon        *string         `db:"icon" json:"icon"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	IsSystem    bool            `db:"is_system" json:"is_system"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time      `db:"updated_at" json:"updated_at"`
}

type PaymentMethod struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description"`
	Icon        *string    `db:"icon" json:"icon"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	IsSystem    bool       `db:"is_system" json:"is_system"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	CategoryID      *int64          `db:"category_id" json:"category_id"`
	PaymentMethodID *int64          `db:"payment_method_id" json:"payment_method_id"`
	WalletID        *int64          `db:"wallet_id" json:"wallet_id"`
	Title           string          `db:"title" json:"title"`
	Description     *string         `db:"description" json:"description"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Type            TransactionType `db:"transaction_type" json:"transaction_type"`
	Date            time.Time       `db:"transaction_date" json:"transaction_date"`
	Notes           *string         `db:"notes" json:"notes"`
	ReceiptURL      *string         `db:"receipt_url" json:"receipt_url"`
	Tags            *string         `db:"tags" json:"tags"`
	IsRecurring     bool            `db:"is_recurring" json:"is_recurring"`
	IsConfirmed     bool            `db:"is_confirmed" json:"is_confirmed"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at" json:"updated_at"`
}

// TransactionWithCategory is a transaction joined with its category name.
type TransactionWithCategory struct {
	Transaction
	CategoryName *string `db:"category_name" json:"category_name"`
}

type Reminder struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description"`
	ReminderDate time.Time  `db:"reminder_date" json:"reminder_date"`
	IsSent       bool       `db:"is_sent" json:"is_sent"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at"`
	ExtraData    *string    `db:"extra_data" json:"extra_data"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at"`
}
