// Package fintrack is a typed client for the fintrack REST API.
//
// Every method issues exactly one request and never retries. Failures are
// reported as *RequestError.
package fintrack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// DefaultBaseURL is where a locally started backend listens.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 4 << 10

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *applog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Client) {
		c.logger = l.WithComponent(applog.ComponentAPI)
	}
}

// NewClient validates baseURL and returns a ready client.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: newHTTPClientWithPooling(timeout),
		logger:     applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and transport level timeouts.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// CreateExpense posts a new expense. A rejected payload surfaces the
// backend's response body in the error message.
func (c *Client) CreateExpense(ctx context.Context, req core.CreateExpenseRequest) (core.Expense, error) {
	const op = "create expense"
	var out core.Expense

	body, err := json.Marshal(req)
	if err != nil {
		return out, &RequestError{Op: op, Message: "Failed to create expense", Err: err}
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/expenses", nil, body)
	if err != nil {
		return out, &RequestError{Op: op, Message: "Failed to create expense", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		text := readErrorBody(resp.Body)
		msg := "Failed to create expense"
		if text != "" {
			msg += ": " + text
		}
		return out, &RequestError{Op: op, StatusCode: resp.StatusCode, Body: text, Message: msg}
	}

	if err := decode(resp.Body, &out); err != nil {
		return out, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: "Failed to create expense", Err: err}
	}
	return out, nil
}

// GetExpenses returns the whole unpaged expense set.
func (c *Client) GetExpenses(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	err := c.getJSON(ctx, "list expenses", "/expenses", nil, "Failed to load expenses", &out)
	return out, err
}

// SearchExpenses returns one page of expenses. Absent parameters are not sent.
func (c *Client) SearchExpenses(ctx context.Context, params core.SearchParams) (core.Page[core.Expense], error) {
	q := url.Values{}
	if v := strings.TrimSpace(params.From); v != "" {
		q.Set("from", v)
	}
	if v := strings.TrimSpace(params.To); v != "" {
		q.Set("to", v)
	}
	if params.Page != nil {
		q.Set("page", strconv.Itoa(*params.Page))
	}
	if params.Size != nil {
		q.Set("size", strconv.Itoa(*params.Size))
	}

	var out core.Page[core.Expense]
	err := c.getJSON(ctx, "search expenses", "/expenses/search", q, "Failed to search expenses", &out)
	return out, err
}

// SearchCategories lists categories, narrowed by prefix when it is not blank.
func (c *Client) SearchCategories(ctx context.Context, prefix string) ([]core.Category, error) {
	var out []core.Category
	err := c.getJSON(ctx, "search categories", "/categories", prefixQuery(prefix), "Failed to load categories", &out)
	return out, err
}

// SearchMerchants lists merchants, narrowed by prefix when it is not blank.
func (c *Client) SearchMerchants(ctx context.Context, prefix string) ([]core.Merchant, error) {
	var out []core.Merchant
	err := c.getJSON(ctx, "search merchants", "/merchants", prefixQuery(prefix), "Failed to load merchants", &out)
	return out, err
}

// GetMonthlyAnalytics returns the backend's current-month totals.
func (c *Client) GetMonthlyAnalytics(ctx context.Context) (core.MonthlyAnalytics, error) {
	var out core.MonthlyAnalytics
	err := c.getJSON(ctx, "monthly analytics", "/expenses/analytics/monthly", nil, "Failed to load monthly analytics", &out)
	return out, err
}

func prefixQuery(prefix string) url.Values {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil
	}
	return url.Values{"prefix": {prefix}}
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, failMsg string, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return &RequestError{Op: op, Message: failMsg, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body), Message: failMsg}
	}
	if err := decode(resp.Body, out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.StatusCode, Message: failMsg, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := c.endpoint(path, query)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed",
			applog.FieldOperation, op,
			applog.FieldMethod, method,
			applog.FieldPath, path,
			applog.FieldDuration, elapsed,
			applog.FieldError, err)
		return nil, err
	}

	c.logger.DebugContext(ctx, "Backend request completed",
		applog.FieldOperation, op,
		applog.FieldMethod, method,
		applog.FieldPath, path,
		applog.FieldStatusCode, resp.StatusCode,
		applog.FieldDuration, elapsed)
	return resp, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func decode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty response body")
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
