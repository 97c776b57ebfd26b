package plisio

import "encoding/json"

// Gateway-native status vocabulary. The gateway may introduce values outside
// this set; the reconcile engine maps unknown values fail-open to PENDING.
const (
	StatusNew       = "new"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusFailed    = "failed"
	StatusError     = "error"
	StatusMismatch  = "mismatch"
)

// CreateInvoiceRequest carries the purchase intent to the gateway.
type CreateInvoiceRequest struct {
	OrderName         string
	OrderNumber       string
	SourceCurrency    string
	SourceAmount      string
	Currency          string
	Email             string
	Description       string
	CallbackURL       string
	SuccessInvoiceURL string
	FailInvoiceURL    string
	ExpireMinutes     int
}

// Invoice is the gateway's view of a freshly created payment request.
type Invoice struct {
	TxnID      string `json:"txn_id"`
	InvoiceURL string `json:"invoice_url"`
	HostedURL  string `json:"hosted_url"`
	Status     string `json:"status"`

	Raw json.RawMessage `json:"-"`
}

// URL returns the hosted payment page, whichever field the gateway populated.
func (i *Invoice) URL() string {
	if i.InvoiceURL != "" {
		return i.InvoiceURL
	}
	return i.HostedURL
}

// Operation is one entry of the gateway's /operations listing.
type Operation struct {
	TxnID       string `json:"txn_id"`
	Status      string `json:"status"`
	OrderNumber string `json:"order_number"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PaidAt      int64  `json:"paid_at"`

	Raw json.RawMessage `json:"-"`
}

// apiEnvelope is the outer {status, data, message} wrapper of every response.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
}
