package reconcile

import (
	"context"
	"strings"
	"time"

	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/types"
)

// memStores is an in-memory Stores used by the engine tests. Reads hand out
// copies so a caller mutating a record without Save does not leak into the
// store, mirroring database semantics.
type memStores struct {
	payments      map[string]*models.Payment // keyed by order id
	users         map[string]*models.User
	notifications []*models.Notification
}

func newMemStores() *memStores {
	return &memStores{
		payments: map[string]*models.Payment{},
		users:    map[string]*models.User{},
	}
}

func (m *memStores) Payments() PaymentStore           { return (*memPayments)(m) }
func (m *memStores) Users() UserStore                 { return (*memUsers)(m) }
func (m *memStores) Notifications() NotificationStore { return (*memNotifications)(m) }

func (m *memStores) Transaction(_ context.Context, fn func(Stores) error) error {
	return fn(m)
}

type memPayments memStores

func (m *memPayments) GetByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	p, ok := m.payments[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) GetByGatewayTxnID(_ context.Context, txnID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.GatewayTxnID != nil && *p.GatewayTxnID == txnID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memPayments) FirstPendingByUser(_ context.Context, userID string) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range m.payments {
		if p.UserID != userID || p.Status != types.PaymentStatusPending {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memPayments) ListByUser(_ context.Context, userID string) ([]*models.Payment, error) {
	var out []*models.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	cp := *p
	m.payments[p.OrderID] = &cp
	return nil
}

func (m *memPayments) Save(_ context.Context, p *models.Payment) error {
	cp := *p
	m.payments[p.OrderID] = &cp
	return nil
}

type memUsers memStores

func (m *memUsers) Get(_ context.Context, userID string) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetRole(_ context.Context, userID string, role types.Role) error {
	if u, ok := m.users[userID]; ok {
		u.Role = role
	}
	return nil
}

func (m *memUsers) SetStar(_ context.Context, userID string, star int) error {
	if u, ok := m.users[userID]; ok {
		u.Star = star
	}
	return nil
}

type memNotifications memStores

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	cp := *n
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	ms := (*memStores)(m)
	ms.notifications = append(ms.notifications, &cp)
	return nil
}

func (m *memNotifications) ExistsRecent(_ context.Context, userID string, typ types.NotificationType, contains string, since time.Time) (bool, error) {
	for _, n := range m.notifications {
		if n.UserID == userID && n.Type == typ && strings.Contains(n.Content, contains) && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
