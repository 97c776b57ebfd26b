package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentCallbackLogStatus string

const (
	PaymentCallbackLogStatusReceived     PaymentCallbackLogStatus = "received"
	PaymentCallbackLogStatusHandled      PaymentCallbackLogStatus = "handled"
	PaymentCallbackLogStatusHandleFailed PaymentCallbackLogStatus = "handle_failed"
)

// PaymentCallbackLog is the audit trail of gateway webhook deliveries. Every
// delivery is logged as received and again as handled/handle_failed with the
// reconcile result.
type PaymentCallbackLog struct {
	ID           string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TraceID      string                   `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderID      string                   `gorm:"column:order_id;type:varchar(128);index:idx_callback_log_order_id" json:"order_id"`
	GatewayTxnID string                   `gorm:"column:gateway_txn_id;type:varchar(128)" json:"gateway_txn_id"`
	ReceivedAt   time.Time                `gorm:"column:received_at" json:"received_at"`
	Data         datatypes.JSON           `gorm:"column:data;type:jsonb" json:"data"`
	Result       *datatypes.JSON          `gorm:"column:result;type:jsonb" json:"result"`
	Status       PaymentCallbackLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func (PaymentCallbackLog) TableName() string { return "payment_callback_log" }
