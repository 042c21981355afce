package agent

import (
	"testing"
	"time"

	"finmec/internal/models"
	"finmec/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func row(id int64, title, amount string, typ models.TransactionType, date time.Time, category *string) models.TransactionWithCategory {
	return models.TransactionWithCategory{
		Transaction:  models.Transaction{ID: id, Title: title, Amount: decimal.RequireFromString(amount), Type: typ, Date: date},
		CategoryName: category,
	}
}

func TestListCategoriesAndPaymentMethods(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "list_categories", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "📋 **Categorias Disponíveis:**\n\n🍽️ Alimentação (Despesa)\n📌 Salário (Receita)\n", out)

	out, err = h.run(t, "list_payment_methods", ``)
	require.NoError(t, err)
	assert.Equal(t, "💳 **Métodos de Pagamento Disponíveis:**\n\n📱 PIX\n💵 Dinheiro\n", out)
}

func TestCurrentWallet(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "current_wallet", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "💰 **Carteira: Principal**\n\nSaldo Atual: R$ 1.234,56\nCriada em: 15/07/2025", out)

	h.agent.deps.Wallets = fakeWallets{err: services.ErrWalletNotFound}
	out, err = h.run(t, "current_wallet", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "Nenhuma carteira encontrada.", out)
}

func TestInsertTransaction(t *testing.T) {
	t.Run("income with explicit date and method", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "insert_transaction",
			`{"descricao":"Salário julho","valor":"3.500,00","tipo":"Receita","data_transacao":"05/07/2025","categoria_nome":"salario","forma_pagamento_nome":"pix"}`)
		require.NoError(t, err)
		assert.Equal(t, "🟢 **RECEITA INSERIDA COM SUCESSO**\n\n*Salário julho*\n💰 R$ 3.500,00\n🗓 05/07/2025\n📊 Salário\n📍 Forma de pagamento: PIX\n🔍 Código: 41", out)

		created := h.transactions.created[0]
		assert.Equal(t, models.TransactionIncome, created.Type)
		assert.Equal(t, int64(11), created.UserID)
		assert.Nil(t, created.WalletID)
		require.NotNil(t, created.PaymentMethodID)
		assert.Equal(t, int64(4), *created.PaymentMethodID)
	})

	t.Run("defaults to today, expense and unknown names", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "insert_transaction", `{"descricao":"Uber","valor":23.9,"tipo":"gasto","data_transacao":"ontem","categoria_nome":"viagem espacial"}`)
		require.NoError(t, err)
		assert.Contains(t, out, "🔴 **DESPESA INSERIDA COM SUCESSO**")
		assert.Contains(t, out, "🗓 15/07/2025")
		assert.Contains(t, out, "📊 Sem categoria")
		assert.Contains(t, out, "📍 Forma de pagamento: Não especificado")
		assert.Nil(t, h.transactions.created[0].CategoryID)
	})

	t.Run("service failure surfaces as tool error", func(t *testing.T) {
		h := newHarness(t)
		h.transactions.err = services.ErrInvalidAmount
		_, err := h.run(t, "insert_transaction", `{"descricao":"Nada","valor":0,"tipo":"despesa"}`)
		assert.ErrorIs(t, err, services.ErrInvalidAmount)
	})
}

func TestRecentTransactions(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "recent_transactions", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "Você ainda não tem transações registradas.", out)

	h.transactions.recent = []models.TransactionWithCategory{
		row(2, "Mercado", "150.5", models.TransactionExpense, day(2025, 7, 14), strPtr("Alimentação")),
		row(1, "Freela", "800", models.TransactionIncome, day(2025, 7, 10), nil),
	}
	out, err = h.run(t, "recent_transactions", `{"limite":2}`)
	require.NoError(t, err)
	assert.Equal(t, "📊 **Últimas 2 Transações:**\n\n"+
		"🔴 *Mercado*\nValor: R$ 150,50 (Despesa)\nData: 14/07/2025\nCategoria: Alimentação\nID: 2\n\n"+
		"🟢 *Freela*\nValor: R$ 800,00 (Receita)\nData: 10/07/2025\nCategoria: Sem categoria\nID: 1\n\n", out)
}

func TestMonthSummary(t *testing.T) {
	h := newHarness(t)
	h.transactions.summary = services.Summary{
		TotalIncome:      decimal.RequireFromString("5000"),
		TotalExpense:     decimal.RequireFromString("1234.5"),
		Balance:          decimal.RequireFromString("3765.5"),
		TransactionCount: 12,
	}
	out, err := h.run(t, "month_summary", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "📊 **Resumo de Julho/2025**\n\n🟢 Total de Receitas: R$ 5.000,00\n🔴 Total de Despesas: R$ 1.234,50\n💰 Saldo: R$ 3.765,50\n📈 Transações: 12", out)
}

func TestDetailedReport(t *testing.T) {
	t.Run("unknown category", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "detailed_report", `{"data_inicio":"01/07/2025","data_fim":"31/07/2025","categoria_nome":"Pets"}`)
		require.NoError(t, err)
		assert.Equal(t, "Categoria 'Pets' não encontrada.", out)
		assert.Empty(t, h.transactions.filters)
	})

	t.Run("empty period", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "detailed_report", `{"data_inicio":"2025-07-01","data_fim":"2025-07-31"}`)
		require.NoError(t, err)
		assert.Equal(t, "Nenhuma transação encontrada no período de 01/07/2025 a 31/07/2025.", out)
	})

	t.Run("bad dates", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "detailed_report", `{"data_inicio":"julho","data_fim":"31/07/2025"}`)
		assert.EqualError(t, err, "Erro ao interpretar datas. Use o formato DD/MM/YYYY ou YYYY-MM-DD.")
		_, err = h.run(t, "detailed_report", `{"data_inicio":"31/07/2025","data_fim":"01/07/2025"}`)
		assert.Error(t, err)
	})

	t.Run("grouped report filtered by category", func(t *testing.T) {
		h := newHarness(t)
		food := strPtr("Alimentação")
		h.transactions.listed = []models.TransactionWithCategory{
			row(3, "Restaurante", "80", models.TransactionExpense, day(2025, 7, 12), food),
			row(2, "Reembolso", "30", models.TransactionIncome, day(2025, 7, 11), food),
		}
		out, err := h.run(t, "detailed_report", `{"data_inicio":"01/07/2025","data_fim":"31/07/2025","categoria_nome":"aliment"}`)
		require.NoError(t, err)
		assert.Equal(t, "📊 **Relatório Financeiro Detalhado**\nPeríodo: 01/07/2025 até 31/07/2025 - Categoria: Alimentação\n\n"+
			"🟢 **RECEITAS:**\n\n• *Reembolso*\n  R$ 30,00 | 11/07/2025 | Alimentação\n\n"+
			"🔴 **DESPESAS:**\n\n• *Restaurante*\n  R$ 80,00 | 12/07/2025 | Alimentação\n\n"+
			"📈 **RESUMO:**\n🟢 Total de Receitas: R$ 30,00\n🔴 Total de Despesas: R$ 80,00\n💰 Saldo do Período: R$ -50,00\n📊 Total de Transações: 2", out)
		require.Len(t, h.transactions.filters, 1)
		require.NotNil(t, h.transactions.filters[0].CategoryID)
		assert.Equal(t, int64(1), *h.transactions.filters[0].CategoryID)
	})
}

func TestInsertReminder(t *testing.T) {
	t.Run("schedules future reminder", func(t *testing.T) {
		h := newHarness(t)
		out, err := h.run(t, "insert_reminder", `{"titulo":"Conta de luz","descricao":"Pagar a conta de luz","data_lembrete":"20/07/2025 14:30"}`)
		require.NoError(t, err)
		assert.Equal(t, "✅ **Lembrete Criado com Sucesso!**\n\n🔔 *Conta de luz*\n📝 Pagar a conta de luz\n📅 Agendado para: 20/07/2025 às 14:30\n🔍 Código: 7\n\nVocê receberá uma mensagem no WhatsApp na data e hora agendadas.", out)
		require.Len(t, h.reminders.created, 1)
		assert.Equal(t, "5511999999999@s.whatsapp.net", h.reminders.created[0].User.RemoteJID)
	})

	t.Run("date only defaults to nine", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "insert_reminder", `{"titulo":"Aluguel","descricao":"Pagar aluguel","data_lembrete":"2025-08-01"}`)
		require.NoError(t, err)
		assert.Equal(t, 9, h.reminders.created[0].ReminderDate.Hour())
	})

	t.Run("past date", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "insert_reminder", `{"titulo":"x","descricao":"y","data_lembrete":"01/01/2020 10:00"}`)
		assert.EqualError(t, err, "Erro: Não é possível criar lembretes para datas passadas.")
	})

	t.Run("unparseable date", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run(t, "insert_reminder", `{"titulo":"x","descricao":"y","data_lembrete":"semana que vem"}`)
		assert.Error(t, err)
		assert.Empty(t, h.reminders.created)
	})
}
