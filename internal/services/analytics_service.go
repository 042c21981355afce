package services

import (
	"context"
	"sort"
	"time"

	"finmec/internal/models"
	"finmec/internal/store"
	"finmec/internal/validator"

	"github.com/shopspring/decimal"
)

const (
	barChartDays  = 7
	uncategorized = "Sem categoria"
)

type TransactionLister interface {
	List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)
}

type AnalyticsService struct {
	transactions TransactionLister
	loc          *time.Location
	now          func() time.Time
}

// NewAnalyticsService anchors default chart windows on today's date in loc.
func NewAnalyticsService(transactions TransactionLister, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{transactions: transactions, loc: loc, now: time.Now}
}

func (s *AnalyticsService) today() time.Time {
	return validator.DayOf(s.now().In(s.loc))
}

type DayTotals struct {
	Date    time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

type BarChart struct {
	Start time.Time
	End   time.Time
	Days  []DayTotals
}

// BarChart returns one entry per day for the seven days ending at date,
// including days with no transactions.
func (s *AnalyticsService) BarChart(ctx context.Context, userID int64, date *time.Time, titleFilter string) (BarChart, error) {
	end := s.today()
	if date != nil {
		end = validator.DayOf(*date)
	}
	start := end.AddDate(0, 0, -(barChartDays - 1))
	rows, err := s.transactions.List(ctx, userID, store.TransactionFilter{Start: &start, End: &end, TitleLike: titleFilter})
	if err != nil {
		return BarChart{}, err
	}
	days := make([]DayTotals, barChartDays)
	index := make(map[string]int, barChartDays)
	for i := range days {
		day := start.AddDate(0, 0, i)
		days[i] = DayTotals{Date: day, Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}
		index[validator.FormatISODate(day)] = i
	}
	for _, row := range rows {
		i, ok := index[validator.FormatISODate(row.Date)]
		if !ok {
			continue
		}
		if row.Type == models.TransactionIncome {
			days[i].Income = days[i].Income.Add(row.Amount)
		} else {
			days[i].Expense = days[i].Expense.Add(row.Amount)
		}
		days[i].Balance = days[i].Income.Sub(days[i].Expense)
	}
	return BarChart{Start: start, End: end, Days: days}, nil
}

type Slice struct {
	Category string
	Amount   decimal.Decimal
	Percent  decimal.Decimal
}

type PieChart struct {
	Start  time.Time
	End    time.Time
	Type   models.TransactionType
	Total  decimal.Decimal
	Slices []Slice
}

// PieChart groups the month containing date by category name, largest first.
func (s *AnalyticsService) PieChart(ctx context.Context, userID int64, date *time.Time, txType models.TransactionType) (PieChart, error) {
	if txType == "" {
		txType = models.TransactionExpense
	}
	if !txType.Valid() {
		return PieChart{}, ErrInvalidType
	}
	anchor := s.today()
	if date != nil {
		anchor = *date
	}
	start, end := validator.MonthBounds(anchor)
	rows, err := s.transactions.List(ctx, userID, store.TransactionFilter{Start: &start, End: &end, Type: &txType})
	if err != nil {
		return PieChart{}, err
	}
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, row := range rows {
		name := uncategorized
		if row.CategoryName != nil && *row.CategoryName != "" {
			name = *row.CategoryName
		}
		totals[name] = totals[name].Add(row.Amount)
		total = total.Add(row.Amount)
	}
	slices := make([]Slice, 0, len(totals))
	hundred := decimal.NewFromInt(100)
	for name, amount := range totals {
		percent := decimal.Zero
		if total.IsPositive() {
			percent = amount.Div(total).Mul(hundred).Round(2)
		}
		slices = append(slices, Slice{Category: name, Amount: amount, Percent: percent})
	}
	sort.Slice(slices, func(i, j int) bool {
		if !slices[i].Amount.Equal(slices[j].Amount) {
			return slices[i].Amount.GreaterThan(slices[j].Amount)
		}
		return slices[i].Category < slices[j].Category
	})
	return PieChart{Start: start, End: end, Type: txType, Total: total, Slices: slices}, nil
}
