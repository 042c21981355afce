package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"finmec/internal/models"
	"finmec/internal/services"
	"finmec/internal/store"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.July, 15, 10, 30, 0, 0, time.UTC)

// scriptedClient replays canned model responses and records every request.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []anthropic.MessageNewParams
}

func (c *scriptedClient) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, body)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, errors.New("no scripted response left")
	}
	raw := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func textResponse(text string) string {
	body, _ := json.Marshal(text)
	return `{"id":"msg_text","type":"message","role":"assistant","model":"test","stop_reason":"end_turn",` +
		`"content":[{"type":"text","text":` + string(body) + `}],"usage":{"input_tokens":1,"output_tokens":1}}`
}

func toolResponse(id, name, input string) string {
	return `{"id":"msg_tool","type":"message","role":"assistant","model":"test","stop_reason":"tool_use",` +
		`"content":[{"type":"tool_use","id":"` + id + `","name":"` + name + `","input":` + input + `}],` +
		`"usage":{"input_tokens":1,"output_tokens":1}}`
}

type fakeTransactions struct {
	created []services.CreateTransactionInput
	recent  []models.TransactionWithCategory
	listed  []models.TransactionWithCategory
	filters []store.TransactionFilter
	summary services.Summary
	err     error
}

func (f *fakeTransactions) Create(_ context.Context, in services.CreateTransactionInput) (models.TransactionWithCategory, error) {
	if f.err != nil {
		return models.TransactionWithCategory{}, f.err
	}
	f.created = append(f.created, in)
	return models.TransactionWithCategory{Transaction: models.Transaction{
		ID: int64(len(f.created)) + 40, UserID: in.UserID, Title: in.Title, Amount: in.Amount,
		Type: in.Type, Date: in.Date, CategoryID: in.CategoryID, PaymentMethodID: in.PaymentMethodID,
	}}, nil
}

func (f *fakeTransactions) GetRecent(_ context.Context, _ int64, limit int) ([]models.TransactionWithCategory, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], f.err
	}
	return f.recent, f.err
}

func (f *fakeTransactions) List(_ context.Context, _ int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error) {
	f.filters = append(f.filters, filter)
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return nil, services.ErrInvalidRange
	}
	return f.listed, f.err
}

func (f *fakeTransactions) Summary(_ context.Context, _ int64, start, end *time.Time) (services.Summary, error) {
	s := f.summary
	s.Start, s.End = *start, *end
	return s, f.err
}

type fakeWallets struct {
	wallet models.Wallet
	err    error
}

func (f fakeWallets) Current(context.Context, int64) (models.Wallet, error) {
	return f.wallet, f.err
}

type fakeCatalog struct {
	categories []models.Category
	methods    []models.PaymentMethod
}

func (f fakeCatalog) Categories(context.Context) ([]models.Category, error) { return f.categories, nil }

func (f fakeCatalog) PaymentMethods(context.Context) ([]models.PaymentMethod, error) {
	return f.methods, nil
}

func (f fakeCatalog) FindCategory(_ context.Context, name string) (models.Category, bool, error) {
	for _, c := range f.categories {
		if strings.Contains(services.Fold(c.Name), services.Fold(name)) {
			return c, true, nil
		}
	}
	return models.Category{}, false, nil
}

func (f fakeCatalog) FindPaymentMethod(_ context.Context, name string) (models.PaymentMethod, bool, error) {
	for _, m := range f.methods {
		if strings.Contains(services.Fold(m.Name), services.Fold(name)) {
			return m, true, nil
		}
	}
	return models.PaymentMethod{}, false, nil
}

type fakeReminders struct {
	created []services.CreateReminderInput
	err     error
}

func (f *fakeReminders) Create(_ context.Context, in services.CreateReminderInput) (models.Reminder, error) {
	if f.err != nil {
		return models.Reminder{}, f.err
	}
	if !in.ReminderDate.After(testNow) {
		return models.Reminder{}, services.ErrReminderInPast
	}
	f.created = append(f.created, in)
	return models.Reminder{ID: 7, UserID: in.User.ID, Title: in.Title, Description: in.Description, ReminderDate: in.ReminderDate}, nil
}

func strPtr(s string) *string { return &s }

func seededCatalog() fakeCatalog {
	return fakeCatalog{
		categories: []models.Category{
			{ID: 1, Name: "Alimentação", DefaultType: models.TransactionExpense, Icon: strPtr("🍽️")},
			{ID: 9, Name: "Salário", DefaultType: models.TransactionIncome},
		},
		methods: []models.PaymentMethod{
			{ID: 4, Name: "PIX", Icon: strPtr("📱")},
			{ID: 1, Name: "Dinheiro"},
		},
	}
}

type harness struct {
	agent        *Agent
	client       *scriptedClient
	transactions *fakeTransactions
	reminders    *fakeReminders
}

func newHarness(t *testing.T, responses ...string) *harness {
	t.Helper()
	h := &harness{
		client:       &scriptedClient{responses: responses},
		transactions: &fakeTransactions{},
		reminders:    &fakeReminders{},
	}
	h.agent = New(h.client, Deps{
		Transactions: h.transactions,
		Wallets: fakeWallets{wallet: models.Wallet{
			ID: 3, Name: "Principal", CurrentBalance: decimal.RequireFromString("1234.56"), CreatedAt: testNow,
		}},
		Catalog:   seededCatalog(),
		Reminders: h.reminders,
	}, Config{Model: "test-model", MaxTurns: 3, Location: time.UTC}, nil)
	h.agent.now = func() time.Time { return testNow }
	return h
}

func (h *harness) run(t *testing.T, name, input string) (string, error) {
	t.Helper()
	for _, tool := range h.agent.toolset(models.User{ID: 11, RemoteJID: "5511999999999@s.whatsapp.net"}) {
		if tool.Name == name {
			return tool.Run(context.Background(), json.RawMessage(input))
		}
	}
	require.FailNow(t, "tool not registered", name)
	return "", nil
}
