package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/core/stats"
	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	"github.com/jlzm/MoneyNotes/internal/remote"
	"github.com/jlzm/MoneyNotes/internal/session"
	"github.com/jlzm/MoneyNotes/internal/transport/httpapi"
	"github.com/jlzm/MoneyNotes/internal/transport/httpapi/handler"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/logger"
	"github.com/jlzm/MoneyNotes/pkg/money"
)

type testEnv struct {
	router  http.Handler
	store   *ledger.Store
	session *session.Session
	// upstream captures requests the gateway forwards to the remote
	// API
	upstream *httptest.Server
	deleted  []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("development", io.Discard)
	memory := kv.NewMemory()
	ctx := context.Background()

	env := &testEnv{}
	env.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/bills/"):
			env.deleted = append(env.deleted, strings.TrimPrefix(r.URL.Path, "/bills/"))
			writeUpstreamEnvelope(w, 0, nil)
		case r.Method == http.MethodGet && r.URL.Path == "/ledgers":
			writeUpstreamEnvelope(w, 0, map[string]any{
				"items": []map[string]any{{"id": "l1", "name": "我的账本", "type": "personal", "currency": "CNY"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(env.upstream.Close)

	env.store = ledger.NewStore(memory, log)
	require.NoError(t, env.store.Load(ctx))

	registry := category.NewRegistry(memory, log)
	require.NoError(t, registry.Load(ctx))

	env.session = session.New(memory, log)
	require.NoError(t, env.session.Load(ctx))
	require.NoError(t, env.session.SetTokens(ctx, "tok", "ref"))

	client := remote.NewClient("http://unused", env.session, log)
	client.SetBaseURL(env.upstream.URL)

	env.router = httpapi.NewRouter(httpapi.Config{
		Logger:          log,
		AllowedOrigins:  []string{"*"},
		AuthHandler:     handler.NewAuthHandler(client, env.session, log),
		BillHandler:     handler.NewBillHandler(env.store, client, log),
		CategoryHandler: handler.NewCategoryHandler(registry, log),
		StatsHandler:    handler.NewStatsHandler(env.store, stats.New(registry), log),
		HealthHandler:   handler.NewHealthHandler(memory),
	})
	return env
}

func writeUpstreamEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": code, "message": "", "data": data})
}

// doJSON performs a request against the gateway and decodes the
// envelope.
func (env *testEnv) doJSON(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope),
		"body: %s", rec.Body.String())
	return rec.Code, envelope
}

func TestCreateBill_AppearsInListing(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, http.MethodPost, "/api/v1/bills",
		`{"type":"expense","amount":12.50,"categoryId":"sys_1","billDate":"2025-03-01","note":"午餐"}`)
	require.Equal(t, http.StatusCreated, status)
	require.EqualValues(t, 0, resp["code"])

	created := resp["data"].(map[string]any)
	localID := created["localId"].(string)
	assert.True(t, strings.HasPrefix(localID, "local_"))
	assert.Equal(t, false, created["synced"])

	status, resp = env.doJSON(t, http.MethodGet, "/api/v1/bills", "")
	require.Equal(t, http.StatusOK, status)

	data := resp["data"].(map[string]any)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, localID, items[0].(map[string]any)["id"])

	pagination := data["pagination"].(map[string]any)
	assert.EqualValues(t, 1, pagination["total"])
}

func TestCreateBill_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, http.MethodPost, "/api/v1/bills",
		`{"type":"transfer","amount":1,"categoryId":"sys_1","billDate":"2025-03-01"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 40000, resp["code"])
	assert.Contains(t, resp["message"], "income or expense")
}

func TestListBills_FilterAndPagination(t *testing.T) {
	env := newTestEnv(t)

	var bills []ledger.Bill
	for i := 1; i <= 5; i++ {
		bills = append(bills, ledger.Bill{
			ID:         fmt.Sprintf("srv_%d", i),
			Type:       ledger.DirectionExpense,
			Amount:     money.Amount(int64(i * 100)),
			CategoryID: "sys_1",
			BillDate:   date.MustParse(fmt.Sprintf("2025-03-%02d", i)),
		})
	}
	bills[4].Type = ledger.DirectionIncome
	bills[4].CategoryID = "sys_10"
	env.store.SetConfirmed(bills)

	status, resp := env.doJSON(t, http.MethodGet, "/api/v1/bills?type=expense&page=1&pageSize=3", "")
	require.Equal(t, http.StatusOK, status)

	data := resp["data"].(map[string]any)
	items := data["items"].([]any)
	require.Len(t, items, 3)
	// Date descending: srv_4 is the newest expense.
	assert.Equal(t, "srv_4", items[0].(map[string]any)["id"])

	pagination := data["pagination"].(map[string]any)
	assert.EqualValues(t, 4, pagination["total"])
	assert.EqualValues(t, 2, pagination["totalPages"])
}

func TestDeleteBill_LocalIDDiscardsPending(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.doJSON(t, http.MethodPost, "/api/v1/bills",
		`{"type":"expense","amount":5,"categoryId":"sys_1","billDate":"2025-03-01"}`)
	localID := resp["data"].(map[string]any)["localId"].(string)

	status, _ := env.doJSON(t, http.MethodDelete, "/api/v1/bills/"+localID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, env.store.Pending())
	assert.Empty(t, env.deleted, "no remote call for a pending bill")

	status, resp = env.doJSON(t, http.MethodDelete, "/api/v1/bills/"+localID, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 40400, resp["code"])
}

func TestDeleteBill_ServerIDGoesRemote(t *testing.T) {
	env := newTestEnv(t)

	env.store.SetConfirmed([]ledger.Bill{
		{ID: "srv_9", Type: ledger.DirectionExpense, Amount: money.Amount(100),
			CategoryID: "sys_1", BillDate: date.MustParse("2025-03-01")},
	})

	status, _ := env.doJSON(t, http.MethodDelete, "/api/v1/bills/srv_9", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"srv_9"}, env.deleted)
	assert.Empty(t, env.store.MergedView())
}

func TestUpdateBill_PendingIsConflict(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.doJSON(t, http.MethodPost, "/api/v1/bills",
		`{"type":"expense","amount":5,"categoryId":"sys_1","billDate":"2025-03-01"}`)
	localID := resp["data"].(map[string]any)["localId"].(string)

	status, resp := env.doJSON(t, http.MethodPut, "/api/v1/bills/"+localID, `{"note":"x"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.EqualValues(t, 40900, resp["code"])
}

func TestCategories_SystemReadOnlyOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, http.MethodGet, "/api/v1/categories?type=expense", "")
	require.Equal(t, http.StatusOK, status)
	items := resp["data"].([]any)
	require.NotEmpty(t, items)
	assert.Equal(t, "sys_1", items[0].(map[string]any)["id"])

	status, _ = env.doJSON(t, http.MethodDelete, "/api/v1/categories/sys_1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCategories_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, http.MethodPost, "/api/v1/categories",
		`{"name":"宠物","icon":"pet","type":"expense","sortOrder":3}`)
	require.Equal(t, http.StatusCreated, status)
	created := resp["data"].(map[string]any)
	assert.Equal(t, true, created["isCustom"])

	status, resp = env.doJSON(t, http.MethodGet, "/api/v1/categories?type=expense", "")
	require.Equal(t, http.StatusOK, status)
	found := false
	for _, item := range resp["data"].([]any) {
		if item.(map[string]any)["id"] == created["id"] {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLedgers_SelectionRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.doJSON(t, http.MethodGet, "/api/v1/ledgers", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp["data"], 1)

	status, _ = env.doJSON(t, http.MethodPut, "/api/v1/ledgers/current", `{"ledgerId":"l1"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "l1", env.session.CurrentLedgerID())

	status, resp = env.doJSON(t, http.MethodGet, "/api/v1/ledgers/current", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "l1", resp["data"].(map[string]any)["ledgerId"])
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		status, resp := env.doJSON(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "ok", resp["data"].(map[string]any)["status"], path)
	}
}
