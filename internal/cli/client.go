package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"supply_go/internal/api"
	"supply_go/internal/domain"
	"supply_go/internal/service"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Client talks to a running ledger server.
type Client struct {
	baseURL        string
	identityHeader string
	httpClient     *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, identityHeader string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		identityHeader: identityHeader,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Status(ctx context.Context) (service.Status, error) {
	var st service.Status
	err := c.do(ctx, http.MethodGet, "/v1/supply", "", nil, &st)
	return st, err
}

func (c *Client) Order(ctx context.Context, account string, quantity uint32) (service.OrderReceipt, error) {
	var receipt service.OrderReceipt
	err := c.do(ctx, http.MethodPost, "/v1/orders", account, api.OrderRequest{Quantity: quantity}, &receipt)
	return receipt, err
}

func (c *Client) Reset(ctx context.Context) (service.ResetResult, error) {
	var res service.ResetResult
	err := c.do(ctx, http.MethodPost, "/v1/supply/reset", "", nil, &res)
	return res, err
}

func (c *Client) Account(ctx context.Context, id string) (service.AccountView, error) {
	var view service.AccountView
	err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(id), "", nil, &view)
	return view, err
}

func (c *Client) Orders(ctx context.Context, afterSeq uint64, limit int) ([]domain.OrderEntry, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatUint(afterSeq, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var body struct {
		Orders []domain.OrderEntry `json:"orders"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/orders?"+q.Encode(), "", nil, &body)
	return body.Orders, err
}

func (c *Client) do(ctx context.Context, method, path, account string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set(c.identityHeader, account)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError(method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError("read response", err)
	}

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(data))}
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
