package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/core/stats"
	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/logger"
	"github.com/jlzm/MoneyNotes/pkg/money"
)

// newStatsHandler pins the handler's clock so period derivation is
// deterministic.
func newStatsHandler(t *testing.T, today string, bills []ledger.Bill) *StatsHandler {
	t.Helper()
	log := logger.New("development", io.Discard)
	memory := kv.NewMemory()

	store := ledger.NewStore(memory, log)
	require.NoError(t, store.Load(context.Background()))
	store.SetConfirmed(bills)

	registry := category.NewRegistry(memory, log)
	require.NoError(t, registry.Load(context.Background()))

	h := NewStatsHandler(store, stats.New(registry), log)
	h.today = func() date.Date { return date.MustParse(today) }
	return h
}

func getStats(t *testing.T, h http.HandlerFunc, target string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec.Code, envelope
}

func marchBills() []ledger.Bill {
	return []ledger.Bill{
		{ID: "srv_1", Type: ledger.DirectionExpense, Amount: money.Amount(3000),
			CategoryID: "sys_1", BillDate: date.MustParse("2025-03-02")},
		{ID: "srv_2", Type: ledger.DirectionExpense, Amount: money.Amount(1000),
			CategoryID: "sys_2", BillDate: date.MustParse("2025-03-10")},
		{ID: "srv_3", Type: ledger.DirectionIncome, Amount: money.Amount(500000),
			CategoryID: "sys_10", BillDate: date.MustParse("2025-03-05")},
		// Outside the March-so-far window.
		{ID: "srv_4", Type: ledger.DirectionExpense, Amount: money.Amount(9999),
			CategoryID: "sys_1", BillDate: date.MustParse("2025-02-20")},
	}
}

func TestGetStatistics_MonthSoFar(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", marchBills())

	status, resp := getStats(t, h.GetStatistics, "/bills/statistics?period=month")
	require.Equal(t, http.StatusOK, status)

	data := resp["data"].(map[string]any)
	summary := data["summary"].(map[string]any)
	assert.InDelta(t, 5000.0, summary["totalIncome"], 1e-9)
	assert.InDelta(t, 40.0, summary["totalExpense"], 1e-9)
	assert.InDelta(t, 4960.0, summary["balance"], 1e-9)

	// Dense daily series: March 1st through the 15th.
	daily := data["daily"].([]any)
	require.Len(t, daily, 15)
	first := daily[0].(map[string]any)
	assert.Equal(t, "2025-03-01", first["date"])
	assert.InDelta(t, 0.0, first["expense"], 1e-9)

	trend := data["trend"].([]any)
	require.Len(t, trend, 1)
	assert.Equal(t, "2025-03", trend[0].(map[string]any)["period"])
}

func TestGetStatistics_DayPeriodGetsDailyBuckets(t *testing.T) {
	h := newStatsHandler(t, "2025-03-02", marchBills())

	status, resp := getStats(t, h.GetStatistics, "/bills/statistics?period=day")
	require.Equal(t, http.StatusOK, status)

	data := resp["data"].(map[string]any)
	trend := data["trend"].([]any)
	require.Len(t, trend, 1)

	point := trend[0].(map[string]any)
	assert.Equal(t, "2025-03-02", point["period"])
	assert.InDelta(t, 30.0, point["expense"], 1e-9)
}

func TestGetStatistics_ExplicitRangeWins(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", marchBills())

	status, resp := getStats(t, h.GetStatistics,
		"/bills/statistics?period=month&startDate=2025-02-01&endDate=2025-02-28")
	require.Equal(t, http.StatusOK, status)

	summary := resp["data"].(map[string]any)["summary"].(map[string]any)
	assert.InDelta(t, 99.99, summary["totalExpense"], 1e-9)
}

func TestGetStatistics_InvalidPeriod(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", nil)

	status, resp := getStats(t, h.GetStatistics, "/bills/statistics?period=quarter")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, codeBadRequest, resp["code"])
}

func TestGetCategoryStatistics_DefaultsToExpense(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", marchBills())

	status, resp := getStats(t, h.GetCategoryStatistics, "/bills/statistics/category")
	require.Equal(t, http.StatusOK, status)

	items := resp["data"].([]any)
	require.Len(t, items, 2)
	top := items[0].(map[string]any)
	assert.Equal(t, "sys_1", top["categoryId"])
	assert.Equal(t, "餐饮", top["categoryName"])
	assert.Equal(t, "expense", top["type"])
	assert.InDelta(t, 75.0, top["percentage"], 1e-9)
}

func TestGetTrendStatistics_RequiresRange(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", nil)

	status, resp := getStats(t, h.GetTrendStatistics, "/bills/statistics/trend?groupBy=month")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp["message"], "required")
}

func TestGetTrendStatistics_WeekBuckets(t *testing.T) {
	h := newStatsHandler(t, "2025-03-15", marchBills())

	status, resp := getStats(t, h.GetTrendStatistics,
		"/bills/statistics/trend?startDate=2025-03-03&endDate=2025-03-16&groupBy=week")
	require.Equal(t, http.StatusOK, status)

	trend := resp["data"].([]any)
	require.Len(t, trend, 2)
	assert.Equal(t, "2025-W10", trend[0].(map[string]any)["period"])
	assert.Equal(t, "2025-W11", trend[1].(map[string]any)["period"])
}
