package plisio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/lostmedia/payments/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &cfgpkg.Config{}
	cfg.Plisio.APIKey = "test-key"
	cfg.Plisio.BaseURL = srv.URL
	return NewClient(cfg, zap.NewNop().Sugar())
}

func TestCreateInvoice_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invoices/new", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		require.Equal(t, "ord-1", r.URL.Query().Get("order_number"))
		w.Write([]byte(`{"status":"success","data":{"txn_id":"txn-1","invoice_url":"https://plisio.net/invoice/txn-1","status":"new"}}`))
	})

	inv, err := c.CreateInvoice(context.Background(), &CreateInvoiceRequest{
		OrderNumber:    "ord-1",
		SourceCurrency: "USD",
		SourceAmount:   "97.50",
		Currency:       "BTC",
	})
	require.NoError(t, err)
	require.Equal(t, "txn-1", inv.TxnID)
	require.Equal(t, "https://plisio.net/invoice/txn-1", inv.URL())
	require.NotEmpty(t, inv.Raw)
}

func TestCreateInvoice_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","data":{"message":"invalid currency"}}`))
	})

	_, err := c.CreateInvoice(context.Background(), &CreateInvoiceRequest{OrderNumber: "ord-1"})
	require.ErrorIs(t, err, ErrGatewayRejected)
	require.Contains(t, err.Error(), "invalid currency")
}

func TestCreateInvoice_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreateInvoice(context.Background(), &CreateInvoiceRequest{OrderNumber: "ord-1"})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestGetOperation_Found(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/operations", r.URL.Path)
		require.Equal(t, "txn-1", r.URL.Query().Get("txn_id"))
		w.Write([]byte(`{"status":"success","data":[{"txn_id":"txn-1","status":"completed","order_number":"ord-1","paid_at":1735689600}]}`))
	})

	op, err := c.GetOperation(context.Background(), "txn-1")
	require.NoError(t, err)
	require.Equal(t, "completed", op.Status)
	require.Equal(t, int64(1735689600), op.PaidAt)
}

func TestGetOperation_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":[]}`))
	})

	_, err := c.GetOperation(context.Background(), "txn-missing")
	require.ErrorIs(t, err, ErrOperationNotFound)
}

func TestCurrencies_PassThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/currencies", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":[{"cid":"BTC","name":"Bitcoin"}]}`))
	})

	data, err := c.Currencies(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `[{"cid":"BTC","name":"Bitcoin"}]`, string(data))
}
