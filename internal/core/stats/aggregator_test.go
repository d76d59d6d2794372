package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/money"
)

type staticResolver struct {
	categories map[string]category.Category
}

func (r *staticResolver) Resolve(id string) (category.Category, error) {
	if c, ok := r.categories[id]; ok {
		return c, nil
	}
	return category.Category{}, apperrors.NotFound("category")
}

func newTestAggregator() *Aggregator {
	return New(&staticResolver{categories: map[string]category.Category{
		"sys_1":  {ID: "sys_1", Name: "餐饮", Icon: "food", Type: ledger.DirectionExpense},
		"sys_2":  {ID: "sys_2", Name: "交通", Icon: "transport", Type: ledger.DirectionExpense},
		"sys_10": {ID: "sys_10", Name: "工资", Icon: "salary", Type: ledger.DirectionIncome},
	}})
}

func entry(id string, dir ledger.Direction, cents int64, cat, day string) ledger.Entry {
	return ledger.Entry{
		ID:         id,
		Type:       dir,
		Amount:     money.Amount(cents),
		CategoryID: cat,
		BillDate:   date.MustParse(day),
	}
}

func TestSummarize_TotalsAndBalance(t *testing.T) {
	agg := newTestAggregator()

	summary := agg.Summarize([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 3000, "sys_1", "2025-03-01"),
		entry("2", ledger.DirectionExpense, 1000, "sys_2", "2025-03-02"),
		entry("3", ledger.DirectionIncome, 500000, "sys_10", "2025-03-05"),
	})

	assert.Equal(t, money.Amount(500000), summary.TotalIncome)
	assert.Equal(t, money.Amount(4000), summary.TotalExpense)
	assert.Equal(t, money.Amount(496000), summary.Balance)
}

func TestSummarize_CategoryPercentages(t *testing.T) {
	agg := newTestAggregator()

	summary := agg.Summarize([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 3000, "sys_1", "2025-03-01"),
		entry("2", ledger.DirectionExpense, 1500, "sys_1", "2025-03-02"),
		entry("3", ledger.DirectionExpense, 1500, "sys_2", "2025-03-02"),
		entry("4", ledger.DirectionIncome, 6000, "sys_10", "2025-03-03"),
	})

	require.Len(t, summary.ByCategory, 3)

	// Largest amount first.
	first := summary.ByCategory[0]
	assert.Equal(t, "sys_10", first.CategoryID)
	assert.Equal(t, "工资", first.CategoryName)
	assert.Equal(t, ledger.DirectionIncome, first.Type)
	assert.InDelta(t, 100.0, first.Percentage, 1e-9)

	second := summary.ByCategory[1]
	assert.Equal(t, "sys_1", second.CategoryID)
	assert.Equal(t, money.Amount(4500), second.Amount)
	assert.Equal(t, 2, second.Count)
	assert.InDelta(t, 75.0, second.Percentage, 1e-9)

	third := summary.ByCategory[2]
	assert.Equal(t, "sys_2", third.CategoryID)
	assert.InDelta(t, 25.0, third.Percentage, 1e-9)
}

func TestSummarize_EmptyInput(t *testing.T) {
	agg := newTestAggregator()

	summary := agg.Summarize(nil)

	assert.Zero(t, summary.TotalIncome)
	assert.Zero(t, summary.TotalExpense)
	assert.Zero(t, summary.Balance)
	assert.Empty(t, summary.ByCategory)
}

func TestSummarize_UnknownCategoryFallsBack(t *testing.T) {
	agg := newTestAggregator()

	summary := agg.Summarize([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 1000, "custom_deleted", "2025-03-01"),
	})

	require.Len(t, summary.ByCategory, 1)
	assert.Equal(t, FallbackCategoryName, summary.ByCategory[0].CategoryName)
	assert.Equal(t, category.FallbackGlyph, summary.ByCategory[0].CategoryIcon)
	assert.InDelta(t, 100.0, summary.ByCategory[0].Percentage, 1e-9)
}

func TestSummarize_SameCategoryBothDirections(t *testing.T) {
	agg := newTestAggregator()

	// The "other" bucket exists for both directions in practice; the
	// breakdown must keep them apart.
	summary := agg.Summarize([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 1000, "sys_1", "2025-03-01"),
		entry("2", ledger.DirectionIncome, 2000, "sys_1", "2025-03-01"),
	})

	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, ledger.DirectionIncome, summary.ByCategory[0].Type)
	assert.Equal(t, ledger.DirectionExpense, summary.ByCategory[1].Type)
}

func TestDailySeries_DenseAndZeroFilled(t *testing.T) {
	agg := newTestAggregator()

	series := agg.DailySeries([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 1200, "sys_1", "2025-03-02"),
		entry("2", ledger.DirectionExpense, 800, "sys_1", "2025-03-02"),
		entry("3", ledger.DirectionIncome, 5000, "sys_10", "2025-03-04"),
		entry("4", ledger.DirectionExpense, 100, "sys_1", "2025-02-28"), // outside range
	}, date.MustParse("2025-03-01"), date.MustParse("2025-03-05"))

	require.Len(t, series, 5)

	assert.Equal(t, date.MustParse("2025-03-01"), series[0].Date)
	assert.Zero(t, series[0].Income)
	assert.Zero(t, series[0].Expense)

	assert.Equal(t, money.Amount(2000), series[1].Expense)
	assert.Equal(t, money.Amount(5000), series[3].Income)

	assert.Equal(t, date.MustParse("2025-03-05"), series[4].Date)
}

func TestDailySeries_EmptyBillSet(t *testing.T) {
	agg := newTestAggregator()

	series := agg.DailySeries(nil, date.MustParse("2024-01-01"), date.MustParse("2024-01-05"))

	require.Len(t, series, 5)
	for i, p := range series {
		assert.Equal(t, date.MustParse("2024-01-01").AddDays(i), p.Date)
		assert.Zero(t, p.Income)
		assert.Zero(t, p.Expense)
	}
}

func TestDailySeries_InvertedRange(t *testing.T) {
	agg := newTestAggregator()

	series := agg.DailySeries(nil, date.MustParse("2025-03-05"), date.MustParse("2025-03-01"))

	assert.Empty(t, series)
}

func TestTrend_MonthBuckets(t *testing.T) {
	agg := newTestAggregator()

	series := agg.Trend([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 1000, "sys_1", "2025-01-15"),
		entry("2", ledger.DirectionIncome, 3000, "sys_10", "2025-01-20"),
		entry("3", ledger.DirectionExpense, 500, "sys_1", "2025-03-10"),
	}, GroupByMonth, date.MustParse("2025-01-01"), date.MustParse("2025-03-31"))

	require.Len(t, series, 3)

	assert.Equal(t, "2025-01", series[0].Period)
	assert.Equal(t, money.Amount(3000), series[0].Income)
	assert.Equal(t, money.Amount(1000), series[0].Expense)
	assert.Equal(t, money.Amount(2000), series[0].Balance)

	// February had no activity but is still present.
	assert.Equal(t, "2025-02", series[1].Period)
	assert.Zero(t, series[1].Income)
	assert.Zero(t, series[1].Expense)

	assert.Equal(t, "2025-03", series[2].Period)
	assert.Equal(t, money.Amount(-500), series[2].Balance)
}

func TestTrend_WeekBucketsUseISOWeekYear(t *testing.T) {
	agg := newTestAggregator()

	// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
	series := agg.Trend([]ledger.Entry{
		entry("1", ledger.DirectionExpense, 100, "sys_1", "2024-12-30"),
	}, GroupByWeek, date.MustParse("2024-12-23"), date.MustParse("2025-01-05"))

	require.Len(t, series, 2)
	assert.Equal(t, "2024-W52", series[0].Period)
	assert.Equal(t, "2025-W01", series[1].Period)
	assert.Equal(t, money.Amount(100), series[1].Expense)
}

func TestTrend_DayAndYearKeys(t *testing.T) {
	agg := newTestAggregator()

	days := agg.Trend(nil, GroupByDay, date.MustParse("2025-03-01"), date.MustParse("2025-03-03"))
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-01", days[0].Period)
	assert.Equal(t, "2025-03-03", days[2].Period)

	years := agg.Trend(nil, GroupByYear, date.MustParse("2024-06-01"), date.MustParse("2025-06-01"))
	require.Len(t, years, 2)
	assert.Equal(t, "2024", years[0].Period)
	assert.Equal(t, "2025", years[1].Period)
}

func TestParseGranularity(t *testing.T) {
	assert.Equal(t, GroupByDay, ParseGranularity("day"))
	assert.Equal(t, GroupByWeek, ParseGranularity("week"))
	assert.Equal(t, GroupByYear, ParseGranularity("year"))
	assert.Equal(t, GroupByMonth, ParseGranularity("month"))
	assert.Equal(t, GroupByMonth, ParseGranularity("bogus"))
}
