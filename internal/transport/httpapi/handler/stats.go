package handler

import (
	"net/http"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/core/stats"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// StatsHandler serves the statistics endpoints over the merged view.
type StatsHandler struct {
	store      *ledger.Store
	aggregator *stats.Aggregator
	logger     *logger.Logger
	today      func() date.Date
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(store *ledger.Store, agg *stats.Aggregator, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		store:      store,
		aggregator: agg,
		logger:     log.WithField("handler", "stats"),
		today:      date.Today,
	}
}

// fullStatistics is the GET /bills/statistics payload.
type fullStatistics struct {
	Summary stats.Summary      `json:"summary"`
	Daily   []stats.DailyPoint `json:"daily"`
	Trend   []stats.TrendPoint `json:"trend"`
}

// GetStatistics handles GET /bills/statistics. Without explicit dates
// the range is derived from the period parameter: the current day,
// the ISO week so far, the month so far or the year so far. Day and
// week periods get daily trend buckets; month and year keep their own
// granularity.
func (h *StatsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period := q.Get("period")
	if period == "" {
		period = "month"
	}

	start, end, err := h.resolveRange(period, q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		respondError(w, err)
		return
	}

	filter := ledger.EntryFilter{Start: start, End: end}
	if t := q.Get("billType"); t != "" {
		d := ledger.Direction(t)
		if !d.Valid() {
			respondError(w, apperrors.BadRequest("billType must be income or expense"))
			return
		}
		filter.Type = d
	}
	entries := ledger.FilterEntries(h.store.MergedView(), filter)

	groupBy := stats.ParseGranularity(period)
	if groupBy == stats.GroupByDay || groupBy == stats.GroupByWeek {
		groupBy = stats.GroupByDay
	}

	respondData(w, http.StatusOK, fullStatistics{
		Summary: h.aggregator.Summarize(entries),
		Daily:   h.aggregator.DailySeries(entries, start, end),
		Trend:   h.aggregator.Trend(entries, groupBy, start, end),
	})
}

// GetCategoryStatistics handles GET /bills/statistics/category. The
// breakdown defaults to expenses, matching the UI's category ring.
func (h *StatsHandler) GetCategoryStatistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	billType := ledger.Direction(q.Get("billType"))
	if billType == "" {
		billType = ledger.DirectionExpense
	}
	if !billType.Valid() {
		respondError(w, apperrors.BadRequest("billType must be income or expense"))
		return
	}

	start, end, err := h.resolveRange("month", q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		respondError(w, err)
		return
	}

	entries := ledger.FilterEntries(h.store.MergedView(), ledger.EntryFilter{
		Start: start,
		End:   end,
		Type:  billType,
	})

	respondData(w, http.StatusOK, h.aggregator.Summarize(entries).ByCategory)
}

// GetTrendStatistics handles GET /bills/statistics/trend. The range
// is explicit here; the UI's trend chart always sends it.
func (h *StatsHandler) GetTrendStatistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	startStr, endStr := q.Get("startDate"), q.Get("endDate")
	if startStr == "" || endStr == "" {
		respondError(w, apperrors.BadRequest("startDate and endDate are required"))
		return
	}
	start, err := date.Parse(startStr)
	if err != nil {
		respondError(w, apperrors.BadRequest("invalid startDate"))
		return
	}
	end, err := date.Parse(endStr)
	if err != nil {
		respondError(w, apperrors.BadRequest("invalid endDate"))
		return
	}
	if start.After(end) {
		respondError(w, apperrors.BadRequest("startDate must not be after endDate"))
		return
	}

	entries := ledger.FilterEntries(h.store.MergedView(), ledger.EntryFilter{Start: start, End: end})
	groupBy := stats.ParseGranularity(q.Get("groupBy"))

	respondData(w, http.StatusOK, h.aggregator.Trend(entries, groupBy, start, end))
}

// resolveRange derives [start, end] from the period when explicit
// dates are absent. Explicit dates win over the period.
func (h *StatsHandler) resolveRange(period, startStr, endStr string) (date.Date, date.Date, error) {
	today := h.today()

	var start, end date.Date
	switch period {
	case "day":
		start, end = today, today
	case "week":
		start, end = today.StartOfWeek(), today
	case "month":
		start, end = today.StartOfMonth(), today
	case "year":
		start, end = today.StartOfYear(), today
	default:
		return date.Date{}, date.Date{}, apperrors.BadRequest("period must be day, week, month or year")
	}

	var err error
	if startStr != "" {
		if start, err = date.Parse(startStr); err != nil {
			return date.Date{}, date.Date{}, apperrors.BadRequest("invalid startDate")
		}
	}
	if endStr != "" {
		if end, err = date.Parse(endStr); err != nil {
			return date.Date{}, date.Date{}, apperrors.BadRequest("invalid endDate")
		}
	}
	if start.After(end) {
		return date.Date{}, date.Date{}, apperrors.BadRequest("startDate must not be after endDate")
	}
	return start, end, nil
}
