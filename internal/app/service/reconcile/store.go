package reconcile

import (
	"context"
	"errors"
	"time"

	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/types"
)

// ErrNotFound is returned by stores when no row matches. Implementations
// translate their driver's not-found error to this sentinel.
var ErrNotFound = errors.New("record not found")

type PaymentStore interface {
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	GetByGatewayTxnID(ctx context.Context, txnID string) (*models.Payment, error)
	FirstPendingByUser(ctx context.Context, userID string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Payment, error)
	Create(ctx context.Context, p *models.Payment) error
	Save(ctx context.Context, p *models.Payment) error
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	SetRole(ctx context.Context, userID string, role types.Role) error
	SetStar(ctx context.Context, userID string, star int) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	// ExistsRecent reports whether a notification of the given type whose
	// content contains the marker was created for the user since the cutoff.
	ExistsRecent(ctx context.Context, userID string, typ types.NotificationType, contains string, since time.Time) (bool, error)
}

// Stores groups the persistence collaborators behind one transaction
// boundary, so the engine can run its read-check-write as a single atomic
// unit and tests can substitute an in-memory fake.
type Stores interface {
	Payments() PaymentStore
	Users() UserStore
	Notifications() NotificationStore
	// Transaction runs fn with stores bound to one database transaction.
	// fn returning an error rolls the transaction back.
	Transaction(ctx context.Context, fn func(Stores) error) error
}
