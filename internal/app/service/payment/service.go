package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/lostmedia/payments/internal/app/service/reconcile"
	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/internal/platform/plisio"
	cfgpkg "github.com/lostmedia/payments/pkg/config"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/tool"
	"github.com/lostmedia/payments/pkg/types"
)

var (
	// ErrRoleNotPurchasable rejects roles missing from the price catalog.
	ErrRoleNotPurchasable = errors.New("role is not purchasable")
	// ErrUnsupportedCurrency rejects crypto currencies without a configured rate.
	ErrUnsupportedCurrency = errors.New("unsupported crypto currency")
	// ErrMaxStarReached rejects star upgrades for users already at the cap.
	ErrMaxStarReached = errors.New("star level is already at maximum")
	// ErrUserNotFound is returned when the purchasing user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Gateway is the outbound surface of the crypto payment provider the service
// depends on. *plisio.Client satisfies it.
type Gateway interface {
	CreateInvoice(ctx context.Context, req *plisio.CreateInvoiceRequest) (*plisio.Invoice, error)
	GetOperation(ctx context.Context, txnID string) (*plisio.Operation, error)
	Currencies(ctx context.Context) (json.RawMessage, error)
}

// Service owns payment initiation, user-facing status polling and
// cancellation. Status transitions always go through the reconcile engine.
type Service struct {
	stores  reconcile.Stores
	gateway Gateway
	engine  *reconcile.Engine
	cfg     *cfgpkg.Config
	log     *zap.SugaredLogger
}

func New(stores reconcile.Stores, gateway Gateway, engine *reconcile.Engine, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Service {
	return &Service{stores: stores, gateway: gateway, engine: engine, cfg: cfg, log: log}
}

// quote is the price snapshot taken at invoice-creation time.
type quote struct {
	amountIDR    int64
	amountUSD    decimal.Decimal
	amountCrypto decimal.Decimal
	currency     string
}

func (s *Service) quoteFor(amountIDR int64, currency string) (*quote, error) {
	coinRate, ok := s.cfg.USDPerCoinRate(currency)
	if !ok || coinRate.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	usd := decimal.NewFromInt(amountIDR).Mul(s.cfg.USDPerIDRRate())
	return &quote{
		amountIDR:    amountIDR,
		amountUSD:    usd.Round(2),
		amountCrypto: usd.Div(coinRate).Round(8),
		currency:     currency,
	}, nil
}

// CreateRolePayment creates a pending payment plus the gateway invoice for a
// role purchase. The price snapshot is immutable after this point.
func (s *Service) CreateRolePayment(ctx context.Context, userID string, role types.Role, currency string) (*models.Payment, error) {
	rp := s.cfg.GetRolePrice(role)
	if rp == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotPurchasable, role)
	}
	q, err := s.quoteFor(rp.PriceIDR, currency)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	orderID := tool.NewRoleOrderID()
	p := &models.Payment{
		ID:         tool.GenerateUUIDV7(),
		OrderID:    orderID,
		UserID:     userID,
		Kind:       types.PaymentKindRole,
		TargetRole: &role,
		Status:     types.PaymentStatusPending,
	}
	return s.createInvoice(ctx, p, q, user, fmt.Sprintf("Role %s", role),
		fmt.Sprintf("Pembelian role %s untuk user %s", role, user.Username))
}

// CreateStarPayment creates a pending payment for the next star level. The
// target is always current+1 capped at the maximum, so a user at the cap is
// refused rather than re-sold the same level.
func (s *Service) CreateStarPayment(ctx context.Context, userID string, currency string) (*models.Payment, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Star >= types.MaxStarLevel {
		return nil, ErrMaxStarReached
	}
	target := user.Star + 1
	if target > types.MaxStarLevel {
		target = types.MaxStarLevel
	}

	q, err := s.quoteFor(starPriceIDR(target), currency)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:         tool.GenerateUUIDV7(),
		OrderID:    tool.NewStarOrderID(userID),
		UserID:     userID,
		Kind:       types.PaymentKindStar,
		TargetStar: &target,
		Status:     types.PaymentStatusPending,
	}
	return s.createInvoice(ctx, p, q, user, fmt.Sprintf("Star Level %d", target),
		fmt.Sprintf("Upgrade star ke level %d untuk user %s", target, user.Username))
}

func (s *Service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.stores.Users().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *Service) createInvoice(ctx context.Context, p *models.Payment, q *quote, user *models.User, orderName, description string) (*models.Payment, error) {
	p.AmountIDR = q.amountIDR
	p.AmountUSD = q.amountUSD
	p.AmountCrypto = q.amountCrypto
	p.CryptoCurrency = q.currency

	// The record is persisted before the gateway call: a rejected or
	// unreachable gateway leaves a PENDING record with no gateway id, which
	// keeps the pending lookup and user cancel flow reachable.
	if err := s.stores.Payments().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	inv, err := s.gateway.CreateInvoice(ctx, &plisio.CreateInvoiceRequest{
		OrderName:         orderName,
		OrderNumber:       p.OrderID,
		SourceCurrency:    "USD",
		SourceAmount:      q.amountUSD.StringFixed(2),
		Currency:          q.currency,
		Email:             user.Email,
		Description:       description,
		CallbackURL:       s.cfg.URLs.Backend + "/api/v1/payment/webhook",
		SuccessInvoiceURL: s.cfg.URLs.Frontend + "/payment/success",
		FailInvoiceURL:    s.cfg.URLs.Frontend + "/payment/failed",
		ExpireMinutes:     s.cfg.Plisio.ExpireMinutes,
	})
	if err != nil {
		return nil, err
	}

	p.HostedURL = inv.URL()
	p.RawGatewayResponse = datatypes.JSON(inv.Raw)
	if inv.TxnID != "" {
		txn := inv.TxnID
		p.GatewayTxnID = &txn
	}

	if err := s.stores.Payments().Save(ctx, p); err != nil {
		return nil, fmt.Errorf("persist gateway fields: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_created",
		"order_id", p.OrderID, "kind", p.Kind, "user_id", p.UserID,
		"amount_idr", p.AmountIDR, "currency", p.CryptoCurrency)
	return p, nil
}

// starPriceIDR is the catalog rule for star upgrades: each level costs ten
// times the previous one, starting at Rp 1.000 for level 1.
func starPriceIDR(target int) int64 {
	price := int64(1000)
	for i := 1; i < target; i++ {
		price *= 10
	}
	return price
}

// PollStatus refreshes one payment from the gateway on behalf of its owner.
// Terminal records and records without a gateway transaction are returned
// as-is; otherwise the gateway's answer is merged through the engine.
func (s *Service) PollStatus(ctx context.Context, userID, orderID string) (*reconcile.Result, error) {
	p, err := s.ownedPayment(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if p.Status.Terminal() || p.GatewayTxnID == nil || *p.GatewayTxnID == "" {
		return &reconcile.Result{
			Payment:          p,
			Status:           p.Status,
			AlreadyProcessed: p.Status == types.PaymentStatusSuccess,
		}, nil
	}

	op, err := s.gateway.GetOperation(ctx, *p.GatewayTxnID)
	if err != nil {
		if errors.Is(err, plisio.ErrOperationNotFound) {
			// The gateway has no record yet; keep our pending view.
			return &reconcile.Result{Payment: p, Status: p.Status, GatewayStatus: ""}, nil
		}
		return nil, err
	}

	var paidAt *time.Time
	if op.PaidAt > 0 {
		t := time.Unix(op.PaidAt, 0)
		paidAt = &t
	}
	return s.engine.Reconcile(ctx, reconcile.Identifier{GatewayTxnID: op.TxnID, OrderID: orderID}, op.Status, op.Raw, paidAt)
}

// Cancel marks a pending payment CANCELLED. Non-pending or foreign orders are
// indistinguishable from missing ones.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*models.Payment, error) {
	var out *models.Payment
	err := s.stores.Transaction(ctx, func(tx reconcile.Stores) error {
		p, err := tx.Payments().GetByOrderID(ctx, orderID)
		if err != nil {
			if errors.Is(err, reconcile.ErrNotFound) {
				return reconcile.ErrPaymentNotFound
			}
			return err
		}
		if p.UserID != userID || !p.Cancellable() {
			return reconcile.ErrPaymentNotFound
		}
		p.Status = types.PaymentStatusCancelled
		if err := tx.Payments().Save(ctx, p); err != nil {
			return fmt.Errorf("persist cancel: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("payment_cancelled", "order_id", orderID, "user_id", userID)
	return out, nil
}

// Pending returns the user's most recent pending payment, or nil when none
// exists.
func (s *Service) Pending(ctx context.Context, userID string) (*models.Payment, error) {
	p, err := s.stores.Payments().FirstPendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListByUser returns the user's payment history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	return s.stores.Payments().ListByUser(ctx, userID)
}

// Roles exposes the purchasable role catalog.
func (s *Service) Roles() []*cfgpkg.RolePrice {
	return s.cfg.Pricing.Roles
}

// Currencies proxies the gateway's supported currency list.
func (s *Service) Currencies(ctx context.Context) (json.RawMessage, error) {
	return s.gateway.Currencies(ctx)
}

func (s *Service) ownedPayment(ctx context.Context, userID, orderID string) (*models.Payment, error) {
	p, err := s.stores.Payments().GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			return nil, reconcile.ErrPaymentNotFound
		}
		return nil, err
	}
	if userID != "" && p.UserID != userID {
		return nil, reconcile.ErrPaymentNotFound
	}
	return p, nil
}
