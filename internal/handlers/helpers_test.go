package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finmec/internal/config"
	"finmec/internal/models"
	"finmec/internal/processor"
	"finmec/internal/services"
	"finmec/internal/store"
	"finmec/internal/websocket"
)

const testAPIKey = "fmk_test"

var testUser = models.User{ID: 7, RemoteJID: "5511999999999@s.whatsapp.net", APIKey: testAPIKey, IsActive: true}

type stubTransactions struct {
	createFn    func(ctx context.Context, in services.CreateTransactionInput) (models.TransactionWithCategory, error)
	getByIDFn   func(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error)
	getRecentFn func(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error)
	listFn      func(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)
	updateFn    func(ctx context.Context, userID, transactionID int64, patch store.TransactionPatch) (models.TransactionWithCategory, error)
	deleteFn    func(ctx context.Context, userID, transactionID int64) error
	summaryFn   func(ctx context.Context, userID int64, start, end *time.Time) (services.Summary, error)
}

func (s stubTransactions) Create(ctx context.Context, in services.CreateTransactionInput) (models.TransactionWithCategory, error) {
	if s.createFn == nil {
		return models.TransactionWithCategory{}, nil
	}
	return s.createFn(ctx, in)
}

func (s stubTransactions) GetByID(ctx context.Context, userID, transactionID int64) (models.TransactionWithCategory, error) {
	if s.getByIDFn == nil {
		return models.TransactionWithCategory{}, nil
	}
	return s.getByIDFn(ctx, userID, transactionID)
}

func (s stubTransactions) GetRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error) {
	if s.getRecentFn == nil {
		return nil, nil
	}
	return s.getRecentFn(ctx, userID, limit)
}

func (s stubTransactions) List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, filter)
}

func (s stubTransactions) Update(ctx context.Context, userID, transactionID int64, patch store.TransactionPatch) (models.TransactionWithCategory, error) {
	if s.updateFn == nil {
		return models.TransactionWithCategory{}, nil
	}
	return s.updateFn(ctx, userID, transactionID, patch)
}

func (s stubTransactions) Delete(ctx context.Context, userID, transactionID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, transactionID)
}

func (s stubTransactions) Summary(ctx context.Context, userID int64, start, end *time.Time) (services.Summary, error) {
	if s.summaryFn == nil {
		return services.Summary{}, nil
	}
	return s.summaryFn(ctx, userID, start, end)
}

type stubWallets struct {
	currentFn func(ctx context.Context, userID int64) (models.Wallet, error)
	listFn    func(ctx context.Context, userID int64) ([]models.Wallet, error)
	getFn     func(ctx context.Context, userID, walletID int64) (models.Wallet, error)
}

func (s stubWallets) Current(ctx context.Context, userID int64) (models.Wallet, error) {
	if s.currentFn == nil {
		return models.Wallet{}, nil
	}
	return s.currentFn(ctx, userID)
}

func (s stubWallets) List(ctx context.Context, userID int64) ([]models.Wallet, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubWallets) Get(ctx context.Context, userID, walletID int64) (models.Wallet, error) {
	if s.getFn == nil {
		return models.Wallet{}, nil
	}
	return s.getFn(ctx, userID, walletID)
}

type stubCatalog struct {
	categoriesFn     func(ctx context.Context) ([]models.Category, error)
	paymentMethodsFn func(ctx context.Context) ([]models.PaymentMethod, error)
	categoryFn       func(ctx context.Context, categoryID int64) (models.Category, error)
	paymentMethodFn  func(ctx context.Context, methodID int64) (models.PaymentMethod, error)
}

func (s stubCatalog) Categories(ctx context.Context) ([]models.Category, error) {
	if s.categoriesFn == nil {
		return nil, nil
	}
	return s.categoriesFn(ctx)
}

func (s stubCatalog) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	if s.paymentMethodsFn == nil {
		return nil, nil
	}
	return s.paymentMethodsFn(ctx)
}

func (s stubCatalog) Category(ctx context.Context, categoryID int64) (models.Category, error) {
	if s.categoryFn == nil {
		return models.Category{}, nil
	}
	return s.categoryFn(ctx, categoryID)
}

func (s stubCatalog) PaymentMethod(ctx context.Context, methodID int64) (models.PaymentMethod, error) {
	if s.paymentMethodFn == nil {
		return models.PaymentMethod{}, nil
	}
	return s.paymentMethodFn(ctx, methodID)
}

type stubReminders struct {
	createFn   func(ctx context.Context, in services.CreateReminderInput) (models.Reminder, error)
	listFn     func(ctx context.Context, userID int64) ([]models.Reminder, error)
	activeFn   func(ctx context.Context, userID int64) ([]models.Reminder, error)
	getFn      func(ctx context.Context, userID, reminderID int64) (models.Reminder, error)
	updateFn   func(ctx context.Context, userID, reminderID int64, patch store.ReminderPatch) (models.Reminder, error)
	deleteFn   func(ctx context.Context, userID, reminderID int64) error
	markSentFn func(ctx context.Context, reminderID int64) error
}

func (s stubReminders) Create(ctx context.Context, in services.CreateReminderInput) (models.Reminder, error) {
	if s.createFn == nil {
		return models.Reminder{}, nil
	}
	return s.createFn(ctx, in)
}

func (s stubReminders) List(ctx context.Context, userID int64) ([]models.Reminder, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubReminders) Active(ctx context.Context, userID int64) ([]models.Reminder, error) {
	if s.activeFn == nil {
		return nil, nil
	}
	return s.activeFn(ctx, userID)
}

func (s stubReminders) Get(ctx context.Context, userID, reminderID int64) (models.Reminder, error) {
	if s.getFn == nil {
		return models.Reminder{}, nil
	}
	return s.getFn(ctx, userID, reminderID)
}

func (s stubReminders) Update(ctx context.Context, userID, reminderID int64, patch store.ReminderPatch) (models.Reminder, error) {
	if s.updateFn == nil {
		return models.Reminder{}, nil
	}
	return s.updateFn(ctx, userID, reminderID, patch)
}

func (s stubReminders) Delete(ctx context.Context, userID, reminderID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, reminderID)
}

func (s stubReminders) MarkSent(ctx context.Context, reminderID int64) error {
	if s.markSentFn == nil {
		return nil
	}
	return s.markSentFn(ctx, reminderID)
}

type stubAnalytics struct {
	barChartFn func(ctx context.Context, userID int64, date *time.Time, titleFilter string) (services.BarChart, error)
	pieChartFn func(ctx context.Context, userID int64, date *time.Time, txType models.TransactionType) (services.PieChart, error)
}

func (s stubAnalytics) BarChart(ctx context.Context, userID int64, date *time.Time, titleFilter string) (services.BarChart, error) {
	if s.barChartFn == nil {
		return services.BarChart{}, nil
	}
	return s.barChartFn(ctx, userID, date, titleFilter)
}

func (s stubAnalytics) PieChart(ctx context.Context, userID int64, date *time.Time, txType models.TransactionType) (services.PieChart, error) {
	if s.pieChartFn == nil {
		return services.PieChart{}, nil
	}
	return s.pieChartFn(ctx, userID, date, txType)
}

// stubUsers resolves testAPIKey to testUser unless byAPIKeyFn is set.
type stubUsers struct {
	getOrCreateFn  func(ctx context.Context, remoteJID string) (models.User, bool, error)
	activateFn     func(ctx context.Context, userID int64, in services.ActivateInput) (models.User, error)
	authenticateFn func(ctx context.Context, username, password string) (models.User, error)
	byIDFn         func(ctx context.Context, userID int64) (models.User, error)
	byAPIKeyFn     func(ctx context.Context, apiKey string) (models.User, error)
}

func (s stubUsers) GetOrCreate(ctx context.Context, remoteJID string) (models.User, bool, error) {
	if s.getOrCreateFn == nil {
		return models.User{}, false, nil
	}
	return s.getOrCreateFn(ctx, remoteJID)
}

func (s stubUsers) Activate(ctx context.Context, userID int64, in services.ActivateInput) (models.User, error) {
	if s.activateFn == nil {
		return models.User{}, nil
	}
	return s.activateFn(ctx, userID, in)
}

func (s stubUsers) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	if s.authenticateFn == nil {
		return models.User{}, nil
	}
	return s.authenticateFn(ctx, username, password)
}

func (s stubUsers) ByID(ctx context.Context, userID int64) (models.User, error) {
	if s.byIDFn == nil {
		return testUser, nil
	}
	return s.byIDFn(ctx, userID)
}

func (s stubUsers) ByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	if s.byAPIKeyFn != nil {
		return s.byAPIKeyFn(ctx, apiKey)
	}
	if apiKey != testAPIKey {
		return models.User{}, services.ErrUserNotFound
	}
	return testUser, nil
}

type stubProcessor struct {
	processFn func(ctx context.Context, msg processor.Message) string
}

func (s stubProcessor) Process(ctx context.Context, msg processor.Message) string {
	if s.processFn == nil {
		return msg.Conversation
	}
	return s.processFn(ctx, msg)
}

type stubAgent struct {
	replyFn func(ctx context.Context, user models.User, text string) string
}

func (s stubAgent) Reply(ctx context.Context, user models.User, text string) string {
	if s.replyFn == nil {
		return ""
	}
	return s.replyFn(ctx, user, text)
}

type sentMessage struct {
	jid  string
	text string
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *recordingMessenger) SendText(ctx context.Context, jid, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{jid: jid, text: text})
	return nil
}

func (m *recordingMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// inlineDispatcher runs the job before returning so tests can assert on it.
type inlineDispatcher struct{}

func (inlineDispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return fn(context.WithoutCancel(ctx))
}

type testDeps struct {
	transactions stubTransactions
	wallets      stubWallets
	catalog      stubCatalog
	reminders    stubReminders
	analytics    stubAnalytics
	users        stubUsers
	processor    stubProcessor
	agent        stubAgent
	messenger    *recordingMessenger
}

func testConfig() config.Config {
	return config.Config{
		AppName:          "FinMec",
		AppVersion:       "1.0.0",
		AppEnv:           "test",
		JWTSecret:        "secret",
		TokenTTL:         time.Minute,
		AllowedOrigins:   "*",
		ActivationDomain: "https://finmec.test",
		Location:         time.UTC,
	}
}

func newTestHandler(cfg config.Config, deps testDeps) *Handler {
	if deps.messenger == nil {
		deps.messenger = &recordingMessenger{}
	}
	h := New(cfg, Deps{
		Transactions: deps.transactions,
		Wallets:      deps.wallets,
		Catalog:      deps.catalog,
		Reminders:    deps.reminders,
		Analytics:    deps.analytics,
		Users:        deps.users,
		Processor:    deps.processor,
		Agent:        deps.agent,
		Messenger:    deps.messenger,
		Dispatcher:   inlineDispatcher{},
		Hub:          websocket.NewHub(),
	}, nil)
	h.now = func() time.Time { return time.Date(2025, time.July, 15, 10, 30, 0, 0, time.UTC) }
	return h
}

func serve(t *testing.T, h *Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			payload, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("failed to encode body: %v", err)
			}
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", testAPIKey)
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func int64Ptr(value int64) *int64 {
	return &value
}

func stringPtr(value string) *string {
	return &value
}
