package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"finmec/internal/models"
	"finmec/internal/services"
	"finmec/internal/store"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

const (
	msgModelError = "Desculpe, tive um problema ao processar sua mensagem. Pode tentar novamente?"
	msgTurnLimit  = "Não consegui concluir sua solicitação. Pode reformular a mensagem?"
	msgEmptyInput = "Não entendi sua mensagem. Pode repetir?"

	defaultMaxTurns  = 8
	defaultMaxTokens = 1024
)

// MessageClient is satisfied by the Messages service of an anthropic.Client.
type MessageClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Transactions interface {
	Create(ctx context.Context, in services.CreateTransactionInput) (models.TransactionWithCategory, error)
	GetRecent(ctx context.Context, userID int64, limit int) ([]models.TransactionWithCategory, error)
	List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)
	Summary(ctx context.Context, userID int64, start, end *time.Time) (services.Summary, error)
}

type Wallets interface {
	Current(ctx context.Context, userID int64) (models.Wallet, error)
}

type Catalog interface {
	Categories(ctx context.Context) ([]models.Category, error)
	PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	FindCategory(ctx context.Context, name string) (models.Category, bool, error)
	FindPaymentMethod(ctx context.Context, name string) (models.PaymentMethod, bool, error)
}

type Reminders interface {
	Create(ctx context.Context, in services.CreateReminderInput) (models.Reminder, error)
}

type Deps struct {
	Transactions Transactions
	Wallets      Wallets
	Catalog      Catalog
	Reminders    Reminders
}

type Config struct {
	Model     string
	MaxTurns  int
	MaxTokens int64
	Location  *time.Location
}

// Agent answers one WhatsApp message with a bounded tool-calling loop.
type Agent struct {
	client    MessageClient
	deps      Deps
	model     string
	maxTurns  int
	maxTokens int64
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

func New(client MessageClient, deps Deps, cfg Config, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Agent{
		client:    client,
		deps:      deps,
		model:     cfg.Model,
		maxTurns:  cfg.MaxTurns,
		maxTokens: cfg.MaxTokens,
		loc:       cfg.Location,
		logger:    logger,
		now:       time.Now,
	}
}

// Reply never fails; model errors and runaway loops become fixed texts.
func (a *Agent) Reply(ctx context.Context, user models.User, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return msgEmptyInput
	}
	logger := a.logger.With(slog.String("run_id", uuid.NewString()), slog.Int64("user_id", user.ID))

	toolset := a.toolset(user)
	byName := make(map[string]Tool, len(toolset))
	params := make([]anthropic.ToolUnionParam, 0, len(toolset))
	for _, t := range toolset {
		byName[t.Name] = t
		params = append(params, t.param())
	}

	messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(text))}
	system := []anthropic.TextBlockParam{{Text: SystemPrompt(a.now().In(a.loc))}}

	for turn := 1; turn <= a.maxTurns; turn++ {
		resp, err := a.client.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			System:    system,
			Messages:  messages,
			Tools:     params,
		})
		if err != nil {
			logger.Error("agent model call failed", slog.Int("turn", turn), slog.String("error", err.Error()))
			return msgModelError
		}

		var reply strings.Builder
		var results []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				reply.WriteString(block.Text)
			case "tool_use":
				results = append(results, a.runTool(ctx, logger, byName, block.ID, block.Name, block.Input))
			}
		}

		if len(results) == 0 {
			out := strings.TrimSpace(reply.String())
			if out == "" {
				logger.Warn("agent returned empty reply", slog.Int("turn", turn))
				return msgModelError
			}
			logger.Info("agent replied", slog.Int("turns", turn))
			return out
		}
		messages = append(messages, resp.ToParam(), anthropic.NewUserMessage(results...))
	}

	logger.Warn("agent turn limit reached", slog.Int("max_turns", a.maxTurns))
	return msgTurnLimit
}

func (a *Agent) runTool(ctx context.Context, logger *slog.Logger, tools map[string]Tool, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	tool, ok := tools[name]
	if !ok {
		logger.Warn("unknown tool requested", slog.String("tool", name))
		return anthropic.NewToolResultBlock(id, "Ferramenta desconhecida: "+name, true)
	}
	out, err := a.safeRun(ctx, tool, input)
	if err != nil {
		logger.Warn("tool failed", slog.String("tool", name), slog.String("error", err.Error()))
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	logger.Debug("tool executed", slog.String("tool", name))
	return anthropic.NewToolResultBlock(id, out, false)
}

func (a *Agent) safeRun(ctx context.Context, tool Tool, input json.RawMessage) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", &toolPanic{tool: tool.Name, value: r}
		}
	}()
	return tool.Run(ctx, input)
}

type toolPanic struct {
	tool  string
	value any
}

func (p *toolPanic) Error() string {
	return "Erro interno na ferramenta " + p.tool
}
