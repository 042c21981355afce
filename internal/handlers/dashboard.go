package handlers

import (
	"net/http"

	"finmec/internal/models"
	"finmec/internal/validator"

	"github.com/shopspring/decimal"
)

type summaryPeriod struct {
	Start string `json:"data_inicio"`
	End   string `json:"data_fim"`
}

type summaryResponse struct {
	Period           summaryPeriod   `json:"periodo"`
	TotalIncome      decimal.Decimal `json:"total_receitas"`
	TotalExpense     decimal.Decimal `json:"total_despesas"`
	Balance          decimal.Decimal `json:"saldo"`
	TransactionCount int             `json:"quantidade_transacoes"`
}

// DashboardSummary defaults to the current month when no range is given.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	start, end, err := queryRange(r.URL.Query(), "data_inicio", "data_fim")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.transactions.Summary(r.Context(), user.ID, start, end)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to build summary")
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{
		Period: summaryPeriod{
			Start: validator.FormatISODate(summary.Start),
			End:   validator.FormatISODate(summary.End),
		},
		TotalIncome:      summary.TotalIncome,
		TotalExpense:     summary.TotalExpense,
		Balance:          summary.Balance,
		TransactionCount: summary.TransactionCount,
	})
}

type chartPeriod struct {
	Start string `json:"inicio"`
	End   string `json:"fim"`
}

type barDay struct {
	Date    string          `json:"data"`
	Income  decimal.Decimal `json:"receitas"`
	Expense decimal.Decimal `json:"despesas"`
	Balance decimal.Decimal `json:"saldo"`
}

type barChartResponse struct {
	Period chartPeriod `json:"periodo"`
	Days   []barDay    `json:"dados"`
}

func (h *Handler) BarChart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	date, err := queryDate(query, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	chart, err := h.analytics.BarChart(r.Context(), user.ID, date, query.Get("descricao"))
	if err != nil {
		h.respondServiceError(w, r, err, "unable to build chart")
		return
	}
	days := make([]barDay, 0, len(chart.Days))
	for _, day := range chart.Days {
		days = append(days, barDay{
			Date:    validator.FormatISODate(day.Date),
			Income:  day.Income,
			Expense: day.Expense,
			Balance: day.Balance,
		})
	}
	respondJSON(w, http.StatusOK, barChartResponse{
		Period: chartPeriod{Start: validator.FormatISODate(chart.Start), End: validator.FormatISODate(chart.End)},
		Days:   days,
	})
}

type pieSlice struct {
	Category string          `json:"categoria"`
	Amount   decimal.Decimal `json:"valor"`
	Percent  decimal.Decimal `json:"percentual"`
}

type pieChartResponse struct {
	Period chartPeriod            `json:"periodo"`
	Type   models.TransactionType `json:"tipo"`
	Total  decimal.Decimal        `json:"total"`
	Slices []pieSlice             `json:"distribuicao"`
}

func (h *Handler) PieChart(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	date, err := queryDate(query, "date")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	parsed, err := queryType(query, "tipo")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txType := models.TransactionExpense
	if parsed != nil {
		txType = *parsed
	}
	chart, err := h.analytics.PieChart(r.Context(), user.ID, date, txType)
	if err != nil {
		h.respondServiceError(w, r, err, "unable to build chart")
		return
	}
	slices := make([]pieSlice, 0, len(chart.Slices))
	for _, slice := range chart.Slices {
		slices = append(slices, pieSlice{Category: slice.Category, Amount: slice.Amount, Percent: slice.Percent})
	}
	respondJSON(w, http.StatusOK, pieChartResponse{
		Period: chartPeriod{Start: validator.FormatISODate(chart.Start), End: validator.FormatISODate(chart.End)},
		Type:   chart.Type,
		Total:  chart.Total,
		Slices: slices,
	})
}
