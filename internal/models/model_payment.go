package models

import (
	"time"

	"github.com/lostmedia/payments/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Payment is one purchase attempt (role purchase or star upgrade).
// OrderID is caller-generated and immutable; GatewayTxnID is assigned by the
// gateway once the invoice exists.
type Payment struct {
	ID           string  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID      string  `gorm:"column:order_id;type:varchar(128);not null;uniqueIndex:unique_order_id" json:"order_id"`
	GatewayTxnID *string `gorm:"column:gateway_txn_id;type:varchar(128);index:idx_gateway_txn_id" json:"gateway_txn_id"`
	UserID       string  `gorm:"column:user_id;type:varchar(64);not null;index:idx_payment_user_id" json:"user_id"`

	Kind       types.PaymentKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	TargetRole *types.Role       `gorm:"column:target_role;type:varchar(32)" json:"target_role"`
	TargetStar *int              `gorm:"column:target_star;type:smallint" json:"target_star"`

	// Pricing snapshot at invoice-creation time. Immutable after creation.
	AmountIDR      int64           `gorm:"column:amount_idr;type:bigint;not null" json:"amount_idr"`
	AmountUSD      decimal.Decimal `gorm:"column:amount_usd;type:numeric(20,8)" json:"amount_usd"`
	AmountCrypto   decimal.Decimal `gorm:"column:amount_crypto;type:numeric(30,18)" json:"amount_crypto"`
	CryptoCurrency string          `gorm:"column:crypto_currency;type:varchar(16)" json:"crypto_currency"`

	Status    types.PaymentStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	HostedURL string              `gorm:"column:hosted_url;type:text" json:"hosted_url"`
	// Last-seen raw payload from the gateway, overwritten on each update.
	RawGatewayResponse datatypes.JSON `gorm:"column:raw_gateway_response;type:jsonb" json:"raw_gateway_response"`

	// PaidAt is set exactly once, when status first reaches SUCCESS.
	PaidAt    *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

// Cancellable reports whether a user-initiated cancel may apply.
func (p *Payment) Cancellable() bool {
	return p != nil && p.Status == types.PaymentStatusPending
}
