package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lostmedia/payments/internal/app/service/reconcile"
	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/tool"
	"github.com/lostmedia/payments/pkg/types"
)

// dedupWindow bounds the recency check for an existing success notification.
// It is the secondary guard against duplicate grants; the primary guard is
// the status transition itself.
const dedupWindow = 24 * time.Hour

// AdminPaymentEmail carries the details of a successful purchase to the
// admin mailbox.
type AdminPaymentEmail struct {
	Kind          types.PaymentKind
	Username      string
	Email         string
	Role          types.Role
	Star          int
	AmountIDR     int64
	OrderID       string
	PaymentMethod string
}

// Mailer dispatches the admin notification email. Implementations must treat
// delivery as best-effort.
type Mailer interface {
	SendAdminPaymentSuccess(ctx context.Context, m *AdminPaymentEmail) error
}

// Applier mutates User.role / User.star for successful payments and emits
// the user notification plus the admin email.
type Applier struct {
	mailer Mailer
	log    *zap.SugaredLogger
}

func NewApplier(mailer Mailer, log *zap.SugaredLogger) *Applier {
	return &Applier{mailer: mailer, log: log}
}

// Grant applies the entitlement for a payment that newly reached SUCCESS.
// It runs inside the reconcile transaction. The grant is skipped, reporting
// AlreadyProcessed, when a matching success notification already exists in
// the recency window.
func (a *Applier) Grant(ctx context.Context, s reconcile.Stores, p *models.Payment) (*reconcile.GrantResult, error) {
	log := logctx.FromCtx(ctx, a.log)

	typ, marker, ok := notificationKey(p)
	if !ok {
		log.Warnw("entitlement_skipped_incomplete_payment", "order_id", p.OrderID, "kind", p.Kind)
		return &reconcile.GrantResult{}, nil
	}

	exists, err := s.Notifications().ExistsRecent(ctx, p.UserID, typ, marker, time.Now().Add(-dedupWindow))
	if err != nil {
		return nil, fmt.Errorf("check existing notification: %w", err)
	}
	if exists {
		log.Infow("entitlement_already_processed", "order_id", p.OrderID, "user_id", p.UserID)
		return &reconcile.GrantResult{AlreadyProcessed: true}, nil
	}

	user, err := s.Users().Get(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			log.Warnw("entitlement_skipped_unknown_user", "order_id", p.OrderID, "user_id", p.UserID)
			return &reconcile.GrantResult{}, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// The set is unconditional: the purchase-initiation step guarantees the
	// value is an upgrade, so no comparison happens here.
	switch p.Kind {
	case types.PaymentKindRole:
		if err := s.Users().SetRole(ctx, p.UserID, *p.TargetRole); err != nil {
			return nil, fmt.Errorf("set role: %w", err)
		}
		user.Role = *p.TargetRole
	case types.PaymentKindStar:
		if err := s.Users().SetStar(ctx, p.UserID, *p.TargetStar); err != nil {
			return nil, fmt.Errorf("set star: %w", err)
		}
		user.Star = *p.TargetStar
	}

	log.Infow("entitlement_granted", "order_id", p.OrderID, "user_id", p.UserID, "kind", p.Kind)
	return &reconcile.GrantResult{Applied: true, User: user}, nil
}

// Announce creates the user notification and sends the admin email. Both are
// best-effort: failures are logged and swallowed, the payment's terminal
// status is the source of truth.
func (a *Applier) Announce(ctx context.Context, s reconcile.Stores, p *models.Payment, user *models.User) {
	log := logctx.FromCtx(ctx, a.log)

	typ, _, ok := notificationKey(p)
	if !ok {
		return
	}

	n := &models.Notification{
		ID:        tool.GenerateUUIDV7(),
		UserID:    p.UserID,
		ActorID:   p.UserID, // self notification
		Type:      typ,
		Content:   notificationContent(p),
		ActionURL: "/profile/" + p.UserID,
	}
	if err := s.Notifications().Create(ctx, n); err != nil {
		log.Errorw("purchase_notification_failed", "order_id", p.OrderID, "error", err.Error())
	}

	email := &AdminPaymentEmail{
		Kind:          p.Kind,
		AmountIDR:     p.AmountIDR,
		OrderID:       p.OrderID,
		PaymentMethod: "Crypto (Plisio)",
	}
	if user != nil {
		email.Username = user.Username
		email.Email = user.Email
	}
	if p.TargetRole != nil {
		email.Role = *p.TargetRole
	}
	if p.TargetStar != nil {
		email.Star = *p.TargetStar
	}
	if err := a.mailer.SendAdminPaymentSuccess(ctx, email); err != nil {
		log.Errorw("admin_email_failed", "order_id", p.OrderID, "error", err.Error())
	}
}

// notificationKey returns the notification type and the dedup content marker
// for a payment, or ok=false when the payment lacks its entitlement target.
func notificationKey(p *models.Payment) (types.NotificationType, string, bool) {
	switch p.Kind {
	case types.PaymentKindRole:
		if p.TargetRole == nil {
			return "", "", false
		}
		return types.NotificationTypeRolePurchased, fmt.Sprintf("Pembelian role %s berhasil", *p.TargetRole), true
	case types.PaymentKindStar:
		if p.TargetStar == nil {
			return "", "", false
		}
		return types.NotificationTypeStarUpgraded, fmt.Sprintf("Upgrade star ke level %d berhasil", *p.TargetStar), true
	}
	return "", "", false
}

func notificationContent(p *models.Payment) string {
	_, marker, _ := notificationKey(p)
	return fmt.Sprintf("Selamat! %s. Anda telah membayar Rp %s. (Order: %s)",
		marker, formatRupiah(p.AmountIDR), p.OrderID)
}

// formatRupiah renders an IDR amount with id-ID thousand separators,
// e.g. 1500000 -> "1.500.000".
func formatRupiah(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
