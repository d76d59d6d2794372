// Package stats computes totals, per-category breakdowns and
// time-bucketed trends over a bill collection. All functions are pure
// over their input; callers pass a merged view filtered to the range
// and direction they care about.
package stats

import (
	"fmt"
	"sort"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/money"
)

// FallbackCategoryName labels bills whose category no longer
// resolves, e.g. after a custom category was deleted.
const FallbackCategoryName = "未知分类"

// CategoryResolver resolves category identity at aggregation time, so
// a rename is reflected retroactively in statistics.
type CategoryResolver interface {
	Resolve(id string) (category.Category, error)
}

// Aggregator computes statistics over bill collections.
type Aggregator struct {
	categories CategoryResolver
}

// New creates an aggregator labeling results through the resolver.
func New(categories CategoryResolver) *Aggregator {
	return &Aggregator{categories: categories}
}

// Summary is the overall income/expense picture of a bill collection.
type Summary struct {
	TotalIncome  money.Amount   `json:"totalIncome"`
	TotalExpense money.Amount   `json:"totalExpense"`
	Balance      money.Amount   `json:"balance"`
	ByCategory   []CategoryStat `json:"byCategory"`
}

// CategoryStat is one category's share within its direction.
type CategoryStat struct {
	CategoryID   string           `json:"categoryId"`
	CategoryName string           `json:"categoryName"`
	CategoryIcon string           `json:"categoryIcon"`
	Type         ledger.Direction `json:"type"`
	Amount       money.Amount     `json:"amount"`
	Count        int              `json:"count"`
	Percentage   float64          `json:"percentage"`
}

// DailyPoint is one day of a dense daily series.
type DailyPoint struct {
	Date    date.Date    `json:"date"`
	Income  money.Amount `json:"income"`
	Expense money.Amount `json:"expense"`
}

// TrendPoint is one calendar bucket of a trend series.
type TrendPoint struct {
	Period  string       `json:"period"`
	Income  money.Amount `json:"income"`
	Expense money.Amount `json:"expense"`
	Balance money.Amount `json:"balance"`
}

// Granularity selects the calendar bucket size for Trend.
type Granularity string

const (
	GroupByDay   Granularity = "day"
	GroupByWeek  Granularity = "week"
	GroupByMonth Granularity = "month"
	GroupByYear  Granularity = "year"
)

// ParseGranularity maps a query-string value to a Granularity,
// defaulting to month for unknown values.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return Granularity(s)
	default:
		return GroupByMonth
	}
}

// Summarize computes totals per direction, the balance, and the
// per-category breakdown. Empty input yields zero totals and an empty
// breakdown; a direction with zero total yields zero percentages for
// every category rather than a division by zero.
func (a *Aggregator) Summarize(entries []ledger.Entry) Summary {
	type key struct {
		dir ledger.Direction
		cat string
	}
	type acc struct {
		amount money.Amount
		count  int
	}

	var totalIncome, totalExpense money.Amount
	groups := make(map[key]*acc)
	var order []key // first-seen order, for deterministic ties

	for _, e := range entries {
		switch e.Type {
		case ledger.DirectionIncome:
			totalIncome += e.Amount
		case ledger.DirectionExpense:
			totalExpense += e.Amount
		default:
			continue
		}

		k := key{dir: e.Type, cat: e.CategoryID}
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
			order = append(order, k)
		}
		g.amount += e.Amount
		g.count++
	}

	byCategory := make([]CategoryStat, 0, len(order))
	for _, k := range order {
		g := groups[k]

		total := totalExpense
		if k.dir == ledger.DirectionIncome {
			total = totalIncome
		}

		percentage := 0.0
		if total > 0 {
			percentage = float64(g.amount) / float64(total) * 100
		}

		name, icon := a.label(k.cat)
		byCategory = append(byCategory, CategoryStat{
			CategoryID:   k.cat,
			CategoryName: name,
			CategoryIcon: icon,
			Type:         k.dir,
			Amount:       g.amount,
			Count:        g.count,
			Percentage:   percentage,
		})
	}

	// Largest share first within the whole breakdown; stable, so
	// equal amounts keep first-seen order.
	sort.SliceStable(byCategory, func(i, j int) bool {
		return byCategory[i].Amount > byCategory[j].Amount
	})

	return Summary{
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Balance:      totalIncome - totalExpense,
		ByCategory:   byCategory,
	}
}

// DailySeries produces one point per calendar day in [start, end]
// inclusive, ascending, zero-filled for days without activity. Bills
// outside the range are ignored. An inverted range yields an empty
// series.
func (a *Aggregator) DailySeries(entries []ledger.Entry, start, end date.Date) []DailyPoint {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return []DailyPoint{}
	}

	index := make(map[date.Date]int)
	var series []DailyPoint
	for d := start; !d.After(end); d = d.AddDays(1) {
		index[d] = len(series)
		series = append(series, DailyPoint{Date: d})
	}

	for _, e := range entries {
		i, ok := index[e.BillDate]
		if !ok {
			continue
		}
		switch e.Type {
		case ledger.DirectionIncome:
			series[i].Income += e.Amount
		case ledger.DirectionExpense:
			series[i].Expense += e.Amount
		}
	}

	return series
}

// Trend buckets bills by calendar day, ISO week, calendar month or
// calendar year. Every bucket covering a day of [start, end] is
// present, zero-valued when empty; ordering is ascending by period
// start. Bucket sizes vary with the calendar (a month spans 28-31
// days).
func (a *Aggregator) Trend(entries []ledger.Entry, groupBy Granularity, start, end date.Date) []TrendPoint {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return []TrendPoint{}
	}

	index := make(map[string]int)
	var series []TrendPoint
	for d := start; !d.After(end); d = d.AddDays(1) {
		key := periodKey(d, groupBy)
		if _, ok := index[key]; !ok {
			index[key] = len(series)
			series = append(series, TrendPoint{Period: key})
		}
	}

	for _, e := range entries {
		if e.BillDate.Before(start) || e.BillDate.After(end) {
			continue
		}
		i := index[periodKey(e.BillDate, groupBy)]
		switch e.Type {
		case ledger.DirectionIncome:
			series[i].Income += e.Amount
		case ledger.DirectionExpense:
			series[i].Expense += e.Amount
		}
	}

	for i := range series {
		series[i].Balance = series[i].Income - series[i].Expense
	}

	return series
}

// periodKey formats the bucket label for a day. Week keys use the ISO
// week-numbering year, which can differ from the calendar year around
// January 1st.
func periodKey(d date.Date, groupBy Granularity) string {
	switch groupBy {
	case GroupByDay:
		return d.String()
	case GroupByWeek:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GroupByYear:
		return fmt.Sprintf("%04d", d.Year())
	default: // month
		return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
	}
}

// label resolves a category's display name and glyph, degrading to
// the documented fallback instead of propagating a lookup failure.
func (a *Aggregator) label(categoryID string) (name, icon string) {
	c, err := a.categories.Resolve(categoryID)
	if err != nil {
		return FallbackCategoryName, category.FallbackGlyph
	}
	return c.Name, category.IconGlyph(c.Icon)
}
