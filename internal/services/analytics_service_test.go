package services

import (
	"context"
	"testing"
	"time"

	"finmec/internal/models"
	"finmec/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listerFunc func(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error)

func (f listerFunc) List(ctx context.Context, userID int64, filter store.TransactionFilter) ([]models.TransactionWithCategory, error) {
	return f(ctx, userID, filter)
}

func row(day string, amount string, txType models.TransactionType, category string) models.TransactionWithCategory {
	date, _ := time.Parse("2006-01-02", day)
	out := models.TransactionWithCategory{Transaction: models.Transaction{Date: date, Amount: dec(amount), Type: txType}}
	if category != "" {
		out.CategoryName = &category
	}
	return out
}

func TestBarChartEmptyWeekHasSevenZeroDays(t *testing.T) {
	var seen store.TransactionFilter
	svc := NewAnalyticsService(listerFunc(func(_ context.Context, _ int64, f store.TransactionFilter) ([]models.TransactionWithCategory, error) {
		seen = f
		return nil, nil
	}), time.UTC)
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	chart, err := svc.BarChart(context.Background(), 1, &date, "")
	require.NoError(t, err)
	require.Len(t, chart.Days, 7)
	assert.Equal(t, "2024-06-04", chart.Days[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-06-10", chart.Days[6].Date.Format("2006-01-02"))
	for _, day := range chart.Days {
		assert.True(t, day.Balance.IsZero())
	}
	assert.Equal(t, "2024-06-04", seen.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-06-10", seen.End.Format("2006-01-02"))
}

func TestBarChartBucketsByDay(t *testing.T) {
	svc := NewAnalyticsService(listerFunc(func(_ context.Context, _ int64, f store.TransactionFilter) ([]models.TransactionWithCategory, error) {
		assert.Equal(t, "uber", f.TitleLike)
		return []models.TransactionWithCategory{
			row("2024-06-09", "100", models.TransactionIncome, ""),
			row("2024-06-09", "30", models.TransactionExpense, ""),
			row("2024-06-10", "20", models.TransactionExpense, ""),
		}, nil
	}), time.UTC)
	svc.now = fixedClock(time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC))
	chart, err := svc.BarChart(context.Background(), 1, nil, "uber")
	require.NoError(t, err)
	require.Len(t, chart.Days, 7)
	assert.True(t, chart.Days[5].Income.Equal(dec("100")))
	assert.True(t, chart.Days[5].Balance.Equal(dec("70")))
	assert.True(t, chart.Days[6].Balance.Equal(dec("-20")))
}

func TestPieChartPercentages(t *testing.T) {
	svc := NewAnalyticsService(listerFunc(func(_ context.Context, _ int64, f store.TransactionFilter) ([]models.TransactionWithCategory, error) {
		require.NotNil(t, f.Type)
		assert.Equal(t, models.TransactionExpense, *f.Type)
		assert.Equal(t, "2024-06-01", f.Start.Format("2006-01-02"))
		assert.Equal(t, "2024-06-30", f.End.Format("2006-01-02"))
		return []models.TransactionWithCategory{
			row("2024-06-02", "100", models.TransactionExpense, "Transporte"),
			row("2024-06-03", "200", models.TransactionExpense, "Alimentação"),
			row("2024-06-04", "100", models.TransactionExpense, "Alimentação"),
		}, nil
	}), time.UTC)
	date := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	chart, err := svc.PieChart(context.Background(), 1, &date, "")
	require.NoError(t, err)
	require.Len(t, chart.Slices, 2)
	assert.Equal(t, "Alimentação", chart.Slices[0].Category)
	assert.True(t, chart.Slices[0].Percent.Equal(dec("75")))
	assert.Equal(t, "Transporte", chart.Slices[1].Category)
	assert.True(t, chart.Slices[1].Percent.Equal(dec("25")))
	assert.True(t, chart.Total.Equal(dec("400")))
}

func TestPieChartUncategorizedAndEmpty(t *testing.T) {
	rows := []models.TransactionWithCategory{row("2024-06-02", "10", models.TransactionIncome, "")}
	svc := NewAnalyticsService(listerFunc(func(_ context.Context, _ int64, _ store.TransactionFilter) ([]models.TransactionWithCategory, error) {
		return rows, nil
	}), time.UTC)
	chart, err := svc.PieChart(context.Background(), 1, nil, models.TransactionIncome)
	require.NoError(t, err)
	require.Len(t, chart.Slices, 1)
	assert.Equal(t, "Sem categoria", chart.Slices[0].Category)
	assert.True(t, chart.Slices[0].Percent.Equal(dec("100")))

	rows = nil
	chart, err = svc.PieChart(context.Background(), 1, nil, models.TransactionIncome)
	require.NoError(t, err)
	assert.Empty(t, chart.Slices)
	assert.True(t, chart.Total.IsZero())

	_, err = svc.PieChart(context.Background(), 1, nil, "bogus")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestChartDefaultsFollowConfiguredTimezone(t *testing.T) {
	var filters []store.TransactionFilter
	svc := NewAnalyticsService(listerFunc(func(_ context.Context, _ int64, f store.TransactionFilter) ([]models.TransactionWithCategory, error) {
		filters = append(filters, f)
		return nil, nil
	}), time.FixedZone("BRT", -3*60*60))
	svc.now = fixedClock(time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC))

	bar, err := svc.BarChart(context.Background(), 1, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-24", bar.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-06-30", bar.End.Format("2006-01-02"))

	pie, err := svc.PieChart(context.Background(), 1, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", pie.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-06-30", pie.End.Format("2006-01-02"))
	require.Len(t, filters, 2)
	assert.Equal(t, "2024-06-30", filters[0].End.Format("2006-01-02"))
}
