package handlers

import (
	"context"
	"time"

	"finmec/internal/models"
	"finmec/internal/processor"
	"finmec/internal/services"
	"finmec/internal/store"
)

type TransactionService interface {
	Create(ctx context.Context, in services.CreateTransactionInput) (models.TransactionWithCategory, error)
	GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error)
	GetRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error)
	List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)
	Update(ctx context.Context, userID, transactionID int64, patch store.TransactionPatch) (models.TransactionWithCategory, error)
	Delete(ctx context.Context, userID, transactionID int64) error
	Summary(ctx context.Context, userID int64, start, end *time.Time) (services.Summary, error)
}

type WalletService interface {
	Current(ctx context.Context, userID int64) (models.Wallet, error)
	List(ctx context.Context, userID int64) ([]models.Wallet, error)
	Get(ctx context.Context, userID, walletID int64) (models.Wallet, error)
}

type CatalogService interface {
	Categories(ctx context.Context) ([]models.Category, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	Category(ctx context.Context, categoryID int64) (models.Category, error)
	PaymentMethod(ctx context.Context, methodID int64) (models.PaymentMethod, error)
}

type ReminderService interface {
	Create(ctx context.Context, in services.CreateReminderInput) (models.Reminder, error)
	List(ctx context.Context, userID int64) ([]models.Reminder, error)
	Active(ctx context.Context, userID int64) ([]models.Reminder, error)
	Get(ctx context.Context, userID, reminderID int64) (models.Reminder, error)
	Update(ctx context.Context, userID, reminderID int64, patch store.ReminderPatch) (models.Reminder, error)
	Delete(ctx context.Context, userID, reminderID int64) error
	MarkSent(ctx context.Context, reminderID int64) error
}

type AnalyticsService interface {
	BarChart(ctx context.Context, userID int64, date *time.Time, titleFilter string) (services.BarChart, error)
	PieChart(ctx context.Context, userID int64, date *time.Time, txType models.TransactionType) (services.PieChart, error)
}

type UserService interface {
	GetOrCreate(ctx context.Context, remoteJID string) (models.User, bool, error)
	Activate(ctx context.Context, userID int64, in services.ActivateInput) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	ByID(ctx context.Context, userID int64) (models.User, error)
	ByAPIKey(ctx context.Context, apiKey string) (models.User, error)
}

// MessageProcessor turns an inbound WhatsApp message into plain text.
type MessageProcessor interface {
	Process(ctx context.Context, msg processor.Message) string
}

type Agent interface {
	Reply(ctx context.Context, user models.User, text string) string
}

type Messenger interface {
	SendText(ctx context.Context, jid, text string) error
}

// Dispatcher runs fire-and-forget work outside the request lifetime.
type Dispatcher interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error) error
}
