package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/remote"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

const (
	localIDPrefix   = "local_"
	defaultPageSize = 20
	maxPageSize     = 100
)

// BillHandler serves the bill endpoints over the merged local view.
type BillHandler struct {
	store  *ledger.Store
	remote *remote.Client
	logger *logger.Logger
}

// NewBillHandler creates a new bill handler
func NewBillHandler(store *ledger.Store, client *remote.Client, log *logger.Logger) *BillHandler {
	return &BillHandler{
		store:  store,
		remote: client,
		logger: log.WithField("handler", "bill"),
	}
}

// billListPage mirrors the server's paginated bill listing.
type billListPage struct {
	Items      []ledger.Entry    `json:"items"`
	Pagination remote.Pagination `json:"pagination"`
}

// ListBills handles GET /bills. Filters apply before pagination; the
// page is cut from the merged date-descending view, so page 1 holds
// the newest bills and pending entries appear alongside confirmed
// ones.
func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter ledger.EntryFilter
	var err error
	if s := q.Get("startDate"); s != "" {
		if filter.Start, err = date.Parse(s); err != nil {
			respondError(w, apperrors.BadRequest("invalid startDate"))
			return
		}
	}
	if s := q.Get("endDate"); s != "" {
		if filter.End, err = date.Parse(s); err != nil {
			respondError(w, apperrors.BadRequest("invalid endDate"))
			return
		}
	}
	if s := q.Get("type"); s != "" {
		d := ledger.Direction(s)
		if !d.Valid() {
			respondError(w, apperrors.BadRequest("type must be income or expense"))
			return
		}
		filter.Type = d
	}
	filter.CategoryID = q.Get("categoryId")

	entries := ledger.FilterEntries(h.store.MergedView(), filter)

	page, pageSize := parsePaging(q.Get("page"), q.Get("pageSize"))
	total := len(entries)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}

	respondData(w, http.StatusOK, billListPage{
		Items: entries[from:to],
		Pagination: remote.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// GetBill handles GET /bills/{id}
func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, e := range h.store.MergedView() {
		if e.ID == id {
			respondData(w, http.StatusOK, e)
			return
		}
	}
	respondError(w, apperrors.NotFound("bill"))
}

// CreateBill handles POST /bills. The bill enters the pending queue
// and is visible immediately; the background sync pushes it to the
// server. A failed local persist still accepts the bill: the entry is
// kept in memory and flushed on the next cycle.
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var spec ledger.BillSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if err := spec.Validate(); err != nil {
		respondError(w, err)
		return
	}

	pending, err := h.store.AddPending(r.Context(), spec)
	if err != nil {
		h.logger.Warn("bill accepted without durable persist",
			"local_id", pending.LocalID, "error", err)
	}

	respondData(w, http.StatusCreated, pending)
}

// UpdateBill handles PUT /bills/{id}. Pending bills are never edited
// in place; the UI discards and re-enters instead.
func (h *BillHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.HasPrefix(id, localIDPrefix) {
		respondError(w, apperrors.Conflict("pending bills cannot be edited; discard and re-enter"))
		return
	}

	var upd remote.UpdateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if upd.Type != nil {
		if d := ledger.Direction(*upd.Type); !d.Valid() {
			respondError(w, apperrors.BadRequest("type must be income or expense"))
			return
		}
	}

	bill, err := h.remote.UpdateBill(r.Context(), id, upd)
	if err != nil {
		respondError(w, err)
		return
	}
	h.store.UpsertConfirmed(bill)

	respondData(w, http.StatusOK, bill)
}

// DeleteBill handles DELETE /bills/{id}. Temporary IDs are discarded
// locally; server IDs are deleted remotely and then dropped from the
// confirmed set.
func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if strings.HasPrefix(id, localIDPrefix) {
		if err := h.store.DiscardPending(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusOK, nil)
		return
	}

	if err := h.remote.DeleteBill(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.store.RemoveConfirmed(id)

	respondData(w, http.StatusOK, nil)
}

func parsePaging(pageStr, sizeStr string) (page, pageSize int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(sizeStr)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
