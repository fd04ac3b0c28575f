package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seumarket/campus-market/internal/fault"
	"github.com/seumarket/campus-market/internal/order/application"
	"github.com/seumarket/campus-market/internal/order/domain"
)

type stubRepo struct {
	conf      domain.OrderConfirmation
	createErr error
	cancelErr error
	detail    domain.OrderDetail
	getErr    error
}

func (s *stubRepo) Create(ctx context.Context, buyerID int64, lines []domain.LineRequest, addressID int64) (domain.OrderConfirmation, error) {
	return s.conf, s.createErr
}

func (s *stubRepo) Cancel(ctx context.Context, orderID, buyerID int64) error { return s.cancelErr }

func (s *stubRepo) Transition(ctx context.Context, orderID int64, next domain.OrderStatus) error {
	return nil
}

func (s *stubRepo) Get(ctx context.Context, orderID int64) (domain.OrderDetail, error) {
	return s.detail, s.getErr
}

func (s *stubRepo) List(ctx context.Context, buyerID int64, page, pageSize int) ([]domain.OrderSummary, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) Statistics(ctx context.Context, buyerID int64) (domain.OrderStatistics, error) {
	return domain.OrderStatistics{TotalSpent: decimal.Zero}, nil
}

func newTestServer(repo *stubRepo) *httptest.Server {
	svc := application.NewService(slog.Default(), repo)
	return httptest.NewServer(NewHandler(slog.Default(), svc).Routes())
}

func doJSON(t *testing.T, method, url, userID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestCreateOrderEndpoint(t *testing.T) {
	repo := &stubRepo{conf: domain.OrderConfirmation{
		OrderID:     7,
		OrderNumber: "ORD1700000000ABCDEF",
		TotalAmount: decimal.RequireFromString("39.98"),
		Status:      domain.StatusPending,
		LineCount:   1,
	}}
	srv := newTestServer(repo)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders", "3",
		`{"lines":[{"listing_id":1,"quantity":2}],"address_id":4}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body orderConfirmationResp
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(7), body.OrderID)
	assert.Equal(t, "pending", body.Status)
	assert.True(t, body.TotalAmount.Equal(decimal.RequireFromString("39.98")))
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders", "",
		`{"lines":[{"listing_id":1,"quantity":1}],"address_id":1}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateOrderBadBody(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders", "3", `{not json`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderStockConflict(t *testing.T) {
	repo := &stubRepo{createErr: fault.InsufficientStock("listing \"mug\" has only 1 left")}
	srv := newTestServer(repo)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders", "3",
		`{"lines":[{"listing_id":1,"quantity":2}],"address_id":4}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCancelOrderEndpoint(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders/5/cancel", "3", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelOrderDoubleCancelConflict(t *testing.T) {
	repo := &stubRepo{cancelErr: fault.InvalidTransition("only pending orders can be cancelled, order 5 is cancelled")}
	srv := newTestServer(repo)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/orders/5/cancel", "3", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateStatusOnlyAllowsCancel(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodPatch, srv.URL+"/orders/5/status", "3", `{"status":"paid"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/orders/5/status", "3", `{"status":"cancelled"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetOrderHidesOtherBuyers(t *testing.T) {
	repo := &stubRepo{detail: domain.OrderDetail{Order: domain.Order{
		ID:          5,
		BuyerID:     3,
		TotalAmount: decimal.Zero,
		Status:      domain.StatusPending,
	}}}
	srv := newTestServer(repo)
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/orders/5", "3", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/orders/5", "4", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInvalidOrderIDInPath(t *testing.T) {
	srv := newTestServer(&stubRepo{})
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/orders/abc", "3", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
