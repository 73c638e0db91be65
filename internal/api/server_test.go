package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"supply_go/internal/domain"
	"supply_go/internal/engine"
	"supply_go/internal/event"
	"supply_go/internal/infra"
	"supply_go/internal/infra/storage"
	"supply_go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = domain.Timestamp(1_700_000_000_000)

type staticHistory struct {
	items []event.Envelope
	err   error
}

func (h staticHistory) Recent(_ context.Context, limit int) ([]event.Envelope, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.items) {
		return h.items[:limit], nil
	}
	return h.items, nil
}

func newTestServer(t *testing.T, opts Options) (*Server, *engine.ManualClock) {
	t.Helper()
	clock := engine.NewManualClock(t0)
	seq := engine.NewSequencer(domain.NewLedger(5, t0), 0, engine.Options{Clock: clock})
	ctx, cancel := context.WithCancel(context.Background())
	go seq.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-seq.Done()
	})

	opts.Mode = gin.TestMode
	return NewServer(service.NewLedgerService(seq, false), opts), clock
}

func do(t *testing.T, s *Server, method, path, account, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != "" {
		req.Header.Set(infra.DefaultIdentityHeader, account)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	w := do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateOrder(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	w := do(t, s, http.MethodPost, "/v1/orders", "alice", `{"quantity":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt service.OrderReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, domain.AccountID("alice"), receipt.Account)
	assert.Equal(t, uint32(2), receipt.NewTotal)
	assert.Equal(t, uint32(48), receipt.Remaining)
	assert.Equal(t, uint64(1), receipt.Seq)

	w = do(t, s, http.MethodGet, "/v1/supply", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st service.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, uint32(48), st.Remaining)
	assert.Equal(t, "4.00", st.Utilization)
}

func TestCreateOrder_Errors(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/orders", "alice", `{"quantity":5}`).Code)

	tests := []struct {
		name    string
		account string
		body    string
		status  int
		code    string
	}{
		{"missing identity", "", `{"quantity":1}`, http.StatusUnauthorized, CodeMissingIdentity},
		{"invalid account", "has space", `{"quantity":1}`, http.StatusBadRequest, CodeInvalidAccount},
		{"zero quantity", "bob", `{"quantity":0}`, http.StatusBadRequest, "ZERO_QUANTITY"},
		{"account limit", "alice", `{"quantity":1}`, http.StatusConflict, "ACCOUNT_LIMIT_EXCEEDED"},
		{"negative quantity", "bob", `{"quantity":-1}`, http.StatusBadRequest, CodeInvalidRequest},
		{"malformed body", "bob", `{`, http.StatusBadRequest, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/orders", tt.account, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestCreateOrder_SupplyExhausted(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	for i := 0; i < 10; i++ {
		account := "acct" + string(rune('a'+i))
		require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/orders", account, `{"quantity":5}`).Code)
	}

	w := do(t, s, http.MethodPost, "/v1/orders", "late", `{"quantity":1}`)
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "SUPPLY_EXHAUSTED", resp.Code)
	require.NotNil(t, resp.Available)
	assert.Equal(t, uint32(0), *resp.Available)
	require.NotNil(t, resp.Requested)
	assert.Equal(t, uint32(1), *resp.Requested)
}

func TestCustomIdentityHeader(t *testing.T) {
	s, _ := newTestServer(t, Options{IdentityHeader: "X-Caller"})

	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(`{"quantity":1}`))
	req.Header.Set("X-Caller", "alice")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// The default header is ignored once another one is configured.
	w = do(t, s, http.MethodPost, "/v1/orders", "bob", `{"quantity":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetAccount(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/orders", "alice", `{"quantity":3}`).Code)

	w := do(t, s, http.MethodGet, "/v1/accounts/alice", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.AccountView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, uint32(3), view.Total)
	assert.Equal(t, uint32(2), view.Allowance)
}

func TestResetSupply(t *testing.T) {
	s, clock := newTestServer(t, Options{})
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/orders", "alice", `{"quantity":3}`).Code)

	w := do(t, s, http.MethodPost, "/v1/supply/reset", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res service.ResetResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Applied)
	assert.Equal(t, uint32(47), res.Remaining)

	clock.Advance(domain.WindowDuration)
	w = do(t, s, http.MethodPost, "/v1/supply/reset", "", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Applied)
	assert.Equal(t, uint32(50), res.Remaining)
}

func TestOptionalRoutes(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/metrics", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/notifications", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/feed", "", "").Code)
}

func TestOrdersRoute(t *testing.T) {
	repo := storage.NewMemoryRepository()
	seq := engine.NewSequencer(domain.NewLedger(5, t0), 0, engine.Options{
		Clock: engine.NewManualClock(t0),
		Store: repo,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go seq.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-seq.Done()
	})
	s := NewServer(service.NewLedgerService(seq, false), Options{Mode: gin.TestMode, Orders: repo})

	for _, account := range []string{"alice", "bob", "alice"} {
		require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/v1/orders", account, `{"quantity":1}`).Code)
	}

	w := do(t, s, http.MethodGet, "/v1/orders?after=1&limit=10", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Orders []domain.OrderEntry `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Orders, 2)
	assert.Equal(t, uint64(2), body.Orders[0].Seq)
	assert.Equal(t, domain.AccountID("bob"), body.Orders[0].Account)
	assert.Equal(t, uint32(2), body.Orders[1].NewTotal)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/v1/orders?after=x", "", "").Code)
}

func TestMetricsRoute(t *testing.T) {
	m := &infra.Metrics{}
	m.ObserveOrderRejected(domain.KindSupplyExhausted)
	s, _ := newTestServer(t, Options{Metrics: m})

	w := do(t, s, http.MethodGet, "/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap infra.MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, uint64(1), snap.OrdersRejected["SUPPLY_EXHAUSTED"])
}

func TestNotificationsRoute(t *testing.T) {
	items := []event.Envelope{
		{Version: event.EnvelopeVersion, ID: "b", Type: event.TypeSupplyReset, Seq: 2, Payload: json.RawMessage(`{}`)},
		{Version: event.EnvelopeVersion, ID: "a", Type: event.TypeOrderAccepted, Seq: 1, Payload: json.RawMessage(`{}`)},
	}
	s, _ := newTestServer(t, Options{History: staticHistory{items: items}})

	w := do(t, s, http.MethodGet, "/v1/notifications?limit=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Notifications []event.Envelope `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, uint64(2), body.Notifications[0].Seq)

	w = do(t, s, http.MethodGet, "/v1/notifications?limit=zero", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s, _ = newTestServer(t, Options{History: staticHistory{err: errors.New("redis down")}})
	w = do(t, s, http.MethodGet, "/v1/notifications", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, decodeError(t, w).Code)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrSequencerStopped, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{&domain.OrderError{Kind: domain.KindSupplyExhausted, Requested: 3}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusOf(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
