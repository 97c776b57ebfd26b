package plisio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/lostmedia/payments/pkg/config"
)

// Client talks to the Plisio REST API. It performs outbound calls only and
// never touches persistence.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewClient(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		apiKey:     cfg.Plisio.APIKey,
		baseURL:    strings.TrimSuffix(cfg.Plisio.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*apiEnvelope, error) {
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	return &env, nil
}

// rejectionMessage digs the human-readable error out of a non-success
// envelope; the gateway reports it either at the top level or under data.
func rejectionMessage(env *apiEnvelope) string {
	if len(env.Data) > 0 {
		var e apiError
		if err := json.Unmarshal(env.Data, &e); err == nil && e.Message != "" {
			return e.Message
		}
	}
	if env.Message != "" {
		return env.Message
	}
	return "unknown gateway error"
}

// CreateInvoice issues an invoice-creation request. The gateway uses GET with
// query parameters for this endpoint.
func (c *Client) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	params := url.Values{}
	params.Set("order_name", req.OrderName)
	params.Set("order_number", req.OrderNumber)
	params.Set("source_currency", req.SourceCurrency)
	params.Set("source_amount", req.SourceAmount)
	params.Set("currency", req.Currency)
	params.Set("callback_url", req.CallbackURL)
	params.Set("success_callback_url", req.CallbackURL)
	params.Set("fail_callback_url", req.CallbackURL)
	params.Set("success_invoice_url", req.SuccessInvoiceURL)
	params.Set("fail_invoice_url", req.FailInvoiceURL)
	params.Set("email", req.Email)
	params.Set("description", req.Description)
	params.Set("expire_min", strconv.Itoa(req.ExpireMinutes))

	env, err := c.get(ctx, "/invoices/new", params)
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, rejectionMessage(env))
	}

	var inv Invoice
	if err := json.Unmarshal(env.Data, &inv); err != nil {
		return nil, fmt.Errorf("%w: decode invoice: %v", ErrGatewayUnavailable, err)
	}
	inv.Raw = env.Data
	return &inv, nil
}

// GetOperation polls the gateway for the current state of a transaction.
func (c *Client) GetOperation(ctx context.Context, txnID string) (*Operation, error) {
	params := url.Values{}
	params.Set("txn_id", txnID)

	env, err := c.get(ctx, "/operations", params)
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, rejectionMessage(env))
	}

	var ops []json.RawMessage
	if err := json.Unmarshal(env.Data, &ops); err != nil {
		return nil, fmt.Errorf("%w: decode operations: %v", ErrGatewayUnavailable, err)
	}
	if len(ops) == 0 {
		return nil, ErrOperationNotFound
	}

	var op Operation
	if err := json.Unmarshal(ops[0], &op); err != nil {
		return nil, fmt.Errorf("%w: decode operation: %v", ErrGatewayUnavailable, err)
	}
	op.Raw = ops[0]
	return &op, nil
}

// Currencies returns the gateway's supported cryptocurrency list verbatim.
func (c *Client) Currencies(ctx context.Context) (json.RawMessage, error) {
	env, err := c.get(ctx, "/currencies", url.Values{})
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, rejectionMessage(env))
	}
	return env.Data, nil
}
