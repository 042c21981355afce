package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"finmec/internal/models"
	"finmec/internal/money"
	"finmec/internal/services"
	"finmec/internal/store"
	"finmec/internal/validator"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/shopspring/decimal"
)

const (
	noCategory      = "Sem categoria"
	noPaymentMethod = "Não especificado"
)

// Tool is a function the model may call on behalf of one user.
type Tool struct {
	Name        string
	Description string
	Properties  properties
	Required    []string
	Run         func(ctx context.Context, input json.RawMessage) (string, error)
}

func (t Tool) param() anthropic.ToolUnionParam {
	props := t.Properties
	if props == nil {
		props = properties{}
	}
	return anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
		Name:        t.Name,
		Description: anthropic.String(t.Description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: props,
			Required:   t.Required,
		},
	}}
}

// amountArg accepts a JSON number or a string such as "1.234,56".
type amountArg float64

func (a *amountArg) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = amountArg(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("valor inválido: %s", string(data))
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	parsed, err := money.Parse(s)
	if err != nil {
		return fmt.Errorf("valor inválido: %s", s)
	}
	*a = amountArg(parsed.InexactFloat64())
	return nil
}

func decode(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("parâmetros inválidos: %w", err)
	}
	return nil
}

func (a *Agent) toolset(user models.User) []Tool {
	return []Tool{
		{
			Name:        "list_categories",
			Description: "Lista todas as categorias disponíveis para classificar transações.",
			Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
				return a.listCategories(ctx)
			},
		},
		{
			Name:        "current_wallet",
			Description: "Busca a carteira principal do usuário e o saldo atual.",
			Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
				return a.currentWallet(ctx, user)
			},
		},
		{
			Name:        "insert_transaction",
			Description: "Registra uma nova transação financeira (receita ou despesa) na carteira padrão.",
			Properties: properties{
				"descricao":            stringProperty("Descrição curta da transação"),
				"valor":                numberProperty("Valor da transação, positivo"),
				"tipo":                 stringEnumProperty("Tipo da transação", "receita", "despesa"),
				"data_transacao":       stringProperty("Data no formato DD/MM/YYYY ou YYYY-MM-DD; vazio para hoje"),
				"categoria_nome":       stringProperty("Nome da categoria (opcional)"),
				"forma_pagamento_nome": stringProperty("Nome da forma de pagamento (opcional)"),
			},
			Required: []string{"descricao", "valor", "tipo"},
			Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				return a.insertTransaction(ctx, user, input)
			},
		},
		{
			Name:        "recent_transactions",
			Description: "Lista as transações mais recentes do usuário.",
			Properties: properties{
				"limite": integerProperty("Quantidade máxima de transações (padrão 5)"),
			},
			Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				return a.recentTransactions(ctx, user, input)
			},
		},
		{
			Name:        "month_summary",
			Description: "Resumo do mês atual: receitas, despesas, saldo e quantidade de transações.",
			Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
				return a.monthSummary(ctx, user)
			},
		},
		{
			Name:        "list_payment_methods",
			Description: "Lista as formas de pagamento disponíveis.",
			Run: func(ctx context.Context, _ json.RawMessage) (string, error) {
				return a.listPaymentMethods(ctx)
			},
		},
		{
			Name:        "detailed_report",
			Description: "Relatório detalhado das transações de um período, opcionalmente filtrado por categoria.",
			Properties: properties{
				"data_inicio":    stringProperty("Data inicial, DD/MM/YYYY ou YYYY-MM-DD"),
				"data_fim":       stringProperty("Data final, DD/MM/YYYY ou YYYY-MM-DD"),
				"categoria_nome": stringProperty("Nome da categoria para filtrar (opcional)"),
			},
			Required: []string{"data_inicio", "data_fim"},
			Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				return a.detailedReport(ctx, user, input)
			},
		},
		{
			Name:        "insert_reminder",
			Description: "Cria um lembrete e agenda o envio pelo WhatsApp.",
			Properties: properties{
				"titulo":        stringProperty("Título do lembrete"),
				"descricao":     stringProperty("Texto que será enviado no lembrete"),
				"data_lembrete": stringProperty("Data e hora: DD/MM/YYYY HH:MM ou YYYY-MM-DD HH:MM"),
			},
			Required: []string{"titulo", "descricao", "data_lembrete"},
			Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				return a.insertReminder(ctx, user, input)
			},
		},
	}
}

func (a *Agent) today() time.Time {
	return validator.DayOf(a.now().In(a.loc))
}

func (a *Agent) listCategories(ctx context.Context) (string, error) {
	categories, err := a.deps.Catalog.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("Erro ao buscar categorias: %w", err)
	}
	if len(categories) == 0 {
		return "Nenhuma categoria encontrada.", nil
	}
	var b strings.Builder
	b.WriteString("📋 **Categorias Disponíveis:**\n\n")
	for _, c := range categories {
		icon := "📌"
		if c.Icon != nil && *c.Icon != "" {
			icon = *c.Icon
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", icon, c.Name, c.DefaultType.Label())
	}
	return b.String(), nil
}

func (a *Agent) listPaymentMethods(ctx context.Context) (string, error) {
	methods, err := a.deps.Catalog.PaymentMethods(ctx)
	if err != nil {
		return "", fmt.Errorf("Erro ao buscar métodos de pagamento: %w", err)
	}
	if len(methods) == 0 {
		return "Nenhum método de pagamento encontrado.", nil
	}
	var b strings.Builder
	b.WriteString("💳 **Métodos de Pagamento Disponíveis:**\n\n")
	for _, m := range methods {
		icon := "💵"
		if m.Icon != nil && *m.Icon != "" {
			icon = *m.Icon
		}
		fmt.Fprintf(&b, "%s %s\n", icon, m.Name)
	}
	return b.String(), nil
}

func (a *Agent) currentWallet(ctx context.Context, user models.User) (string, error) {
	wallet, err := a.deps.Wallets.Current(ctx, user.ID)
	if errors.Is(err, services.ErrWalletNotFound) {
		return "Nenhuma carteira encontrada.", nil
	}
	if err != nil {
		return "", fmt.Errorf("Erro ao buscar informações da carteira: %w", err)
	}
	return fmt.Sprintf("💰 **Carteira: %s**\n\nSaldo Atual: %s\nCriada em: %s",
		wallet.Name, money.FormatBRL(wallet.CurrentBalance), validator.FormatDate(wallet.CreatedAt.In(a.loc))), nil
}

type insertTransactionArgs struct {
	Descricao          string    `json:"descricao"`
	Valor              amountArg `json:"valor"`
	Tipo               string    `json:"tipo"`
	DataTransacao      string    `json:"data_transacao"`
	CategoriaNome      string    `json:"categoria_nome"`
	FormaPagamentoNome string    `json:"forma_pagamento_nome"`
}

func (a *Agent) insertTransaction(ctx context.Context, user models.User, input json.RawMessage) (string, error) {
	var args insertTransactionArgs
	if err := decode(input, &args); err != nil {
		return "", err
	}
	txType := models.TransactionExpense
	switch strings.ToLower(strings.TrimSpace(args.Tipo)) {
	case "receita", "renda", "ganho", "income":
		txType = models.TransactionIncome
	}
	date, err := validator.ParseDate(args.DataTransacao)
	if err != nil {
		date = a.today()
	}

	var categoryID, methodID *int64
	categoryName, methodName := noCategory, noPaymentMethod
	if name := strings.TrimSpace(args.CategoriaNome); name != "" {
		category, ok, err := a.deps.Catalog.FindCategory(ctx, name)
		if err != nil {
			return "", fmt.Errorf("Erro ao buscar categoria: %w", err)
		}
		if ok {
			categoryID, categoryName = &category.ID, category.Name
		}
	}
	if name := strings.TrimSpace(args.FormaPagamentoNome); name != "" {
		method, ok, err := a.deps.Catalog.FindPaymentMethod(ctx, name)
		if err != nil {
			return "", fmt.Errorf("Erro ao buscar forma de pagamento: %w", err)
		}
		if ok {
			methodID, methodName = &method.ID, method.Name
		}
	}

	amount := money.FromFloat(math.Abs(float64(args.Valor)))
	created, err := a.deps.Transactions.Create(ctx, services.CreateTransactionInput{
		UserID:          user.ID,
		Title:           args.Descricao,
		Amount:          amount,
		Type:            txType,
		Date:            date,
		CategoryID:      categoryID,
		PaymentMethodID: methodID,
		IsConfirmed:     true,
	})
	if err != nil {
		return "", fmt.Errorf("Erro ao inserir transação: %w", err)
	}

	emoji, label := "🔴", "DESPESA"
	if txType == models.TransactionIncome {
		emoji, label = "🟢", "RECEITA"
	}
	return fmt.Sprintf("%s **%s INSERIDA COM SUCESSO**\n\n*%s*\n💰 %s\n🗓 %s\n📊 %s\n📍 Forma de pagamento: %s\n🔍 Código: %d",
		emoji, label, created.Title, money.FormatBRL(created.Amount), validator.FormatDate(created.Date),
		categoryName, methodName, created.ID), nil
}

func (a *Agent) recentTransactions(ctx context.Context, user models.User, input json.RawMessage) (string, error) {
	var args struct {
		Limite int `json:"limite"`
	}
	if err := decode(input, &args); err != nil {
		return "", err
	}
	if args.Limite <= 0 || args.Limite > 50 {
		args.Limite = 5
	}
	rows, err := a.deps.Transactions.GetRecent(ctx, user.ID, args.Limite)
	if err != nil {
		return "", fmt.Errorf("Erro ao buscar transações recentes: %w", err)
	}
	if len(rows) == 0 {
		return "Você ainda não tem transações registradas.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Últimas %d Transações:**\n\n", len(rows))
	for _, t := range rows {
		fmt.Fprintf(&b, "%s *%s*\nValor: %s (%s)\nData: %s\nCategoria: %s\nID: %d\n\n",
			emojiFor(t.Type), t.Title, money.FormatBRL(t.Amount), t.Type.Label(),
			validator.FormatDate(t.Date), categoryOf(t), t.ID)
	}
	return b.String(), nil
}

func (a *Agent) monthSummary(ctx context.Context, user models.User) (string, error) {
	today := a.today()
	start, end := validator.MonthBounds(today)
	summary, err := a.deps.Transactions.Summary(ctx, user.ID, &start, &end)
	if err != nil {
		return "", fmt.Errorf("Erro ao gerar resumo do mês: %w", err)
	}
	return fmt.Sprintf("📊 **Resumo de %s/%d**\n\n🟢 Total de Receitas: %s\n🔴 Total de Despesas: %s\n💰 Saldo: %s\n📈 Transações: %d",
		monthName(today.Month()), today.Year(),
		money.FormatBRL(summary.TotalIncome), money.FormatBRL(summary.TotalExpense),
		money.FormatBRL(summary.Balance), summary.TransactionCount), nil
}

type reportArgs struct {
	DataInicio    string `json:"data_inicio"`
	DataFim       string `json:"data_fim"`
	CategoriaNome string `json:"categoria_nome"`
}

func (a *Agent) detailedReport(ctx context.Context, user models.User, input json.RawMessage) (string, error) {
	var args reportArgs
	if err := decode(input, &args); err != nil {
		return "", err
	}
	start, errStart := validator.ParseDate(args.DataInicio)
	end, errEnd := validator.ParseDate(args.DataFim)
	if errStart != nil || errEnd != nil {
		return "", errors.New("Erro ao interpretar datas. Use o formato DD/MM/YYYY ou YYYY-MM-DD.")
	}

	filter := store.TransactionFilter{Start: &start, End: &end}
	heading := ""
	if name := strings.TrimSpace(args.CategoriaNome); name != "" {
		category, ok, err := a.deps.Catalog.FindCategory(ctx, name)
		if err != nil {
			return "", fmt.Errorf("Erro ao buscar categoria: %w", err)
		}
		if !ok {
			return fmt.Sprintf("Categoria '%s' não encontrada.", name), nil
		}
		filter.CategoryID = &category.ID
		heading = " - Categoria: " + category.Name
	}

	rows, err := a.deps.Transactions.List(ctx, user.ID, filter)
	if errors.Is(err, services.ErrInvalidRange) {
		return "", errors.New("Erro: a data inicial é posterior à data final.")
	}
	if err != nil {
		return "", fmt.Errorf("Erro ao gerar relatório: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Nenhuma transação encontrada no período de %s a %s.",
			validator.FormatDate(start), validator.FormatDate(end)), nil
	}

	var income, expense []models.TransactionWithCategory
	totalIncome, totalExpense := decimal.Zero, decimal.Zero
	for _, t := range rows {
		if t.Type == models.TransactionIncome {
			income = append(income, t)
			totalIncome = totalIncome.Add(t.Amount)
		} else {
			expense = append(expense, t)
			totalExpense = totalExpense.Add(t.Amount)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Relatório Financeiro Detalhado**\nPeríodo: %s até %s%s\n\n",
		validator.FormatDate(start), validator.FormatDate(end), heading)
	writeSection(&b, "🟢 **RECEITAS:**", income)
	writeSection(&b, "🔴 **DESPESAS:**", expense)
	fmt.Fprintf(&b, "📈 **RESUMO:**\n🟢 Total de Receitas: %s\n🔴 Total de Despesas: %s\n💰 Saldo do Período: %s\n📊 Total de Transações: %d",
		money.FormatBRL(totalIncome), money.FormatBRL(totalExpense),
		money.FormatBRL(totalIncome.Sub(totalExpense)), len(rows))
	return b.String(), nil
}

func writeSection(b *strings.Builder, title string, rows []models.TransactionWithCategory) {
	if len(rows) == 0 {
		return
	}
	b.WriteString(title + "\n\n")
	for _, t := range rows {
		fmt.Fprintf(b, "• *%s*\n  %s | %s | %s\n\n",
			t.Title, money.FormatBRL(t.Amount), validator.FormatDate(t.Date), categoryOf(t))
	}
}

type reminderArgs struct {
	Titulo       string `json:"titulo"`
	Descricao    string `json:"descricao"`
	DataLembrete string `json:"data_lembrete"`
}

func (a *Agent) insertReminder(ctx context.Context, user models.User, input json.RawMessage) (string, error) {
	var args reminderArgs
	if err := decode(input, &args); err != nil {
		return "", err
	}
	at, err := validator.ParseDateTime(args.DataLembrete, a.loc)
	if err != nil {
		return "", errors.New("Erro ao interpretar data. Use formato DD/MM/YYYY HH:MM ou YYYY-MM-DD HH:MM.")
	}
	desc := strings.TrimSpace(args.Descricao)
	in := services.CreateReminderInput{User: user, Title: args.Titulo, ReminderDate: at}
	if desc != "" {
		in.Description = &desc
	}
	reminder, err := a.deps.Reminders.Create(ctx, in)
	switch {
	case errors.Is(err, services.ErrReminderInPast):
		return "", errors.New("Erro: Não é possível criar lembretes para datas passadas.")
	case errors.Is(err, services.ErrInvalidTitle):
		return "", errors.New("Erro: o lembrete precisa de um título.")
	case err != nil:
		return "", fmt.Errorf("Erro ao criar lembrete: %w", err)
	}
	return fmt.Sprintf("✅ **Lembrete Criado com Sucesso!**\n\n🔔 *%s*\n📝 %s\n📅 Agendado para: %s\n🔍 Código: %d\n\nVocê receberá uma mensagem no WhatsApp na data e hora agendadas.",
		reminder.Title, desc, at.Format("02/01/2006 às 15:04"), reminder.ID), nil
}

func emojiFor(t models.TransactionType) string {
	if t == models.TransactionIncome {
		return "🟢"
	}
	return "🔴"
}

func categoryOf(t models.TransactionWithCategory) string {
	if t.CategoryName != nil && *t.CategoryName != "" {
		return *t.CategoryName
	}
	return noCategory
}
