package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/types"
)

// ErrPaymentNotFound is returned when neither identifier matches a record.
var ErrPaymentNotFound = errors.New("payment not found")

// Identifier disambiguates a payment by gateway transaction id or order id.
// Lookup tries the gateway id first and falls back to the order id, because
// different call paths populate different identifiers first.
type Identifier struct {
	GatewayTxnID string
	OrderID      string
}

// Result describes the outcome of one reconcile attempt.
type Result struct {
	Payment       *models.Payment     `json:"payment"`
	Status        types.PaymentStatus `json:"status"`
	GatewayStatus string              `json:"gateway_status"`
	// EffectApplied is true when this call performed the entitlement grant.
	EffectApplied bool `json:"effect_applied"`
	// AlreadyProcessed is true when a SUCCESS report arrived for a payment
	// whose effect had already been applied (duplicate gateway delivery).
	AlreadyProcessed bool `json:"already_processed"`
}

// GrantResult is what the effect applier reports back to the engine.
type GrantResult struct {
	Applied          bool
	AlreadyProcessed bool
	User             *models.User
}

// EffectApplier applies the entitlement effect of a successful payment.
// Grant runs inside the reconcile transaction; Announce runs after commit and
// must swallow its own failures.
type EffectApplier interface {
	Grant(ctx context.Context, s Stores, p *models.Payment) (*GrantResult, error)
	Announce(ctx context.Context, s Stores, p *models.Payment, user *models.User)
}

// Engine merges gateway status reports into payment records and applies the
// consequent entitlement effects exactly once per order.
type Engine struct {
	stores  Stores
	effects EffectApplier
	log     *zap.SugaredLogger
}

func NewEngine(stores Stores, effects EffectApplier, log *zap.SugaredLogger) *Engine {
	return &Engine{stores: stores, effects: effects, log: log}
}

func lookupPayment(ctx context.Context, s Stores, id Identifier) (*models.Payment, error) {
	if id.GatewayTxnID != "" {
		p, err := s.Payments().GetByGatewayTxnID(ctx, id.GatewayTxnID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("lookup by gateway txn id: %w", err)
		}
	}
	if id.OrderID != "" {
		p, err := s.Payments().GetByOrderID(ctx, id.OrderID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("lookup by order id: %w", err)
		}
	}
	return nil, ErrPaymentNotFound
}

// Reconcile merges one gateway status report into the matching payment
// record. Duplicate deliveries and stale reports are tolerated: a record in a
// terminal state only has its raw payload refreshed for audit, never its
// status, and the entitlement effect fires only on the transition that newly
// reaches SUCCESS.
func (e *Engine) Reconcile(ctx context.Context, id Identifier, gatewayStatus string, rawPayload []byte, paidAt *time.Time) (*Result, error) {
	mapped := MapStatus(gatewayStatus)
	res := &Result{GatewayStatus: gatewayStatus}

	var payment *models.Payment
	var grantedUser *models.User

	err := e.stores.Transaction(ctx, func(s Stores) error {
		p, err := lookupPayment(ctx, s, id)
		if err != nil {
			return err
		}

		if p.Status.Terminal() {
			// Audit refresh only. Skipping the effect step here is the first
			// of the two guards against double-granting on duplicate
			// deliveries; the notification recency check is the second.
			p.RawGatewayResponse = datatypes.JSON(rawPayload)
			if err := s.Payments().Save(ctx, p); err != nil {
				return fmt.Errorf("persist audit refresh: %w", err)
			}
			res.AlreadyProcessed = p.Status == types.PaymentStatusSuccess && mapped == types.PaymentStatusSuccess
			payment = p
			return nil
		}

		newlySuccess := mapped == types.PaymentStatusSuccess
		p.Status = mapped
		p.RawGatewayResponse = datatypes.JSON(rawPayload)
		if newlySuccess && p.PaidAt == nil {
			t := time.Now()
			if paidAt != nil {
				t = *paidAt
			}
			p.PaidAt = &t
		}
		if err := s.Payments().Save(ctx, p); err != nil {
			return fmt.Errorf("persist payment update: %w", err)
		}

		if newlySuccess && p.UserID != "" {
			grant, err := e.effects.Grant(ctx, s, p)
			if err != nil {
				return fmt.Errorf("apply entitlement: %w", err)
			}
			res.EffectApplied = grant.Applied
			res.AlreadyProcessed = grant.AlreadyProcessed
			grantedUser = grant.User
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Payment = payment
	res.Status = payment.Status

	logctx.FromCtx(ctx, e.log).Infow("payment_reconciled",
		"order_id", payment.OrderID,
		"gateway_status", gatewayStatus,
		"status", payment.Status,
		"effect_applied", res.EffectApplied,
		"already_processed", res.AlreadyProcessed,
	)

	// Notification and admin email are best-effort and must never fail the
	// reconciliation, so they run outside the transaction.
	if res.EffectApplied {
		e.effects.Announce(ctx, e.stores, payment, grantedUser)
	}

	return res, nil
}
