// Package remote is the HTTP client for the MoneyNotes server API.
// Every response arrives in a {code, message, data} envelope; code 0
// is success and codes 10002/20003 mean the access token must be
// refreshed before retrying.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

const (
	requestTimeout  = 30 * time.Second
	defaultPageSize = 50

	// The server allows bursts; steady state stays well under its
	// per-client limit.
	requestsPerSecond = 10
	requestBurst      = 20

	maxConcurrentPageFetches = 4
)

// TokenSource supplies the bearer token for authenticated requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to a MoneyNotes server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
	pageSize   int
	logger     *logger.Logger
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "https://notes.example.com/api/v1").
func NewClient(baseURL string, tokens TokenSource, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		tokens:   tokens,
		pageSize: defaultPageSize,
		logger:   log.WithField("component", "remote"),
	}
}

// SetBaseURL overrides the base URL (useful for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetPageSize overrides the page size used by full fetches.
func (c *Client) SetPageSize(n int) {
	if n > 0 {
		c.pageSize = n
	}
}

// do performs one API request and decodes the envelope. Extra headers
// are applied after the defaults, so callers can add idempotency keys.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, headers map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Network("rate limiter interrupted", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return apperrors.Internal("failed to encode request body", err)
		}
		body = bytes.NewReader(encoded)
	}

	start := time.Now()
	c.logger.Debug("API request", "method", method, "path", path)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return apperrors.Internal("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Network("request failed", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return apperrors.Network("failed to read response body", readErr)
	}

	c.logger.Debug("API response",
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			return apperrors.Unauthorized("access token rejected")
		}
		return apperrors.Network(fmt.Sprintf("API error: status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperrors.Network("failed to decode response envelope", err)
	}

	switch env.Code {
	case codeOK:
	case codeTokenExpired, codeRefreshExpired:
		return apperrors.Unauthorized(env.Message)
	default:
		return apperrors.Network(fmt.Sprintf("API error %d: %s", env.Code, env.Message), nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.Network("failed to decode response data", err)
		}
	}
	return nil
}

// SubmitBill creates the pending bill on the server and returns the
// confirmed bill with its server-assigned ID. The temporary local ID
// travels as the Idempotency-Key header, so a retried submission after
// a lost response does not create a duplicate.
func (c *Client) SubmitBill(ctx context.Context, ledgerID string, p ledger.PendingBill) (ledger.Bill, error) {
	payload := createBillRequest{
		LedgerID:   ledgerID,
		CategoryID: p.CategoryID,
		Type:       string(p.Type),
		Amount:     p.Amount,
		Note:       p.Note,
		BillDate:   p.BillDate,
	}

	var w wireBill
	err := c.do(ctx, http.MethodPost, "/bills", nil, payload,
		map[string]string{"Idempotency-Key": p.LocalID}, &w)
	if err != nil {
		return ledger.Bill{}, fmt.Errorf("submit bill %s: %w", p.LocalID, err)
	}

	c.logger.Info("bill submitted", "local_id", p.LocalID, "server_id", w.ID)
	return w.toBill(), nil
}

// FetchBills fetches one page of bills matching the query.
func (c *Client) FetchBills(ctx context.Context, q BillQuery) ([]ledger.Bill, Pagination, error) {
	params := url.Values{}
	params.Set("ledgerId", q.LedgerID)
	if !q.StartDate.IsZero() {
		params.Set("startDate", q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", q.EndDate.String())
	}
	if q.Type != "" {
		params.Set("type", string(q.Type))
	}
	if q.CategoryID != "" {
		params.Set("categoryId", q.CategoryID)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	var resp billListResponse
	if err := c.do(ctx, http.MethodGet, "/bills", params, nil, nil, &resp); err != nil {
		return nil, Pagination{}, fmt.Errorf("fetch bills: %w", err)
	}

	bills := make([]ledger.Bill, 0, len(resp.Items))
	for _, w := range resp.Items {
		bills = append(bills, w.toBill())
	}
	return bills, resp.Pagination, nil
}

// FetchAllBills fetches every bill of a ledger. The first page tells
// the total page count; remaining pages are fetched concurrently and
// reassembled in page order, so the server's date-descending ordering
// is preserved.
func (c *Client) FetchAllBills(ctx context.Context, ledgerID string) ([]ledger.Bill, error) {
	q := BillQuery{LedgerID: ledgerID, Page: 1, PageSize: c.pageSize}

	first, pg, err := c.FetchBills(ctx, q)
	if err != nil {
		return nil, err
	}
	if pg.TotalPages <= 1 {
		return first, nil
	}

	pages := make([][]ledger.Bill, pg.TotalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPageFetches)
	for page := 2; page <= pg.TotalPages; page++ {
		g.Go(func() error {
			pq := q
			pq.Page = page
			bills, _, err := c.FetchBills(gctx, pq)
			if err != nil {
				return err
			}
			pages[page-1] = bills
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]ledger.Bill, 0, pg.Total)
	for _, p := range pages {
		all = append(all, p...)
	}
	c.logger.Info("bills fetched", "ledger_id", ledgerID, "count", len(all), "pages", pg.TotalPages)
	return all, nil
}

// UpdateBill updates a confirmed bill and returns the server's view
// of it.
func (c *Client) UpdateBill(ctx context.Context, billID string, upd UpdateBillRequest) (ledger.Bill, error) {
	var w wireBill
	err := c.do(ctx, http.MethodPut, "/bills/"+billID, nil, upd, nil, &w)
	if err != nil {
		return ledger.Bill{}, fmt.Errorf("update bill %s: %w", billID, err)
	}
	return w.toBill(), nil
}

// DeleteBill deletes a confirmed bill on the server.
func (c *Client) DeleteBill(ctx context.Context, billID string) error {
	if err := c.do(ctx, http.MethodDelete, "/bills/"+billID, nil, nil, nil, nil); err != nil {
		return fmt.Errorf("delete bill %s: %w", billID, err)
	}
	return nil
}

// ListLedgers lists the ledgers the authenticated user belongs to.
func (c *Client) ListLedgers(ctx context.Context) ([]Ledger, error) {
	var resp ledgerListResponse
	if err := c.do(ctx, http.MethodGet, "/ledgers", nil, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	return resp.Items, nil
}

// Login authenticates with email and password. The caller is
// responsible for storing the returned tokens.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, payload, nil, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("login: %w", err)
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (RefreshResponse, error) {
	payload := map[string]string{"refreshToken": refreshToken}

	var resp RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, payload, nil, &resp); err != nil {
		return RefreshResponse{}, fmt.Errorf("refresh: %w", err)
	}
	return resp, nil
}
