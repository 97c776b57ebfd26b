package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lostmedia/payments/internal/app/service/reconcile"
	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/types"
)

// Stores is the gorm-backed implementation of reconcile.Stores. Payment
// lookups take a row lock so that two concurrent reconcile attempts for the
// same order serialize instead of both observing "not yet processed".
type Stores struct {
	db *gorm.DB
}

func NewStores(db *gorm.DB) reconcile.Stores { return &Stores{db: db} }

func (s *Stores) Payments() reconcile.PaymentStore          { return &paymentStore{db: s.db} }
func (s *Stores) Users() reconcile.UserStore                { return &userStore{db: s.db} }
func (s *Stores) Notifications() reconcile.NotificationStore { return &notificationStore{db: s.db} }

func (s *Stores) Transaction(ctx context.Context, fn func(reconcile.Stores) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Stores{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reconcile.ErrNotFound
	}
	return err
}

type paymentStore struct {
	db *gorm.DB
}

func (p *paymentStore) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var m models.Payment
	if err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (p *paymentStore) GetByGatewayTxnID(ctx context.Context, txnID string) (*models.Payment, error) {
	var m models.Payment
	if err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_txn_id = ?", txnID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (p *paymentStore) FirstPendingByUser(ctx context.Context, userID string) (*models.Payment, error) {
	var m models.Payment
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, types.PaymentStatusPending).
		Order("created_at desc").
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (p *paymentStore) ListByUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	var items []*models.Payment
	if err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (p *paymentStore) Create(ctx context.Context, m *models.Payment) error {
	return p.db.WithContext(ctx).Create(m).Error
}

func (p *paymentStore) Save(ctx context.Context, m *models.Payment) error {
	return p.db.WithContext(ctx).Save(m).Error
}

type userStore struct {
	db *gorm.DB
}

func (u *userStore) Get(ctx context.Context, userID string) (*models.User, error) {
	var m models.User
	if err := u.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (u *userStore) SetRole(ctx context.Context, userID string, role types.Role) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("role", role).Error
}

func (u *userStore) SetStar(ctx context.Context, userID string, star int) error {
	return u.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("star", star).Error
}

type notificationStore struct {
	db *gorm.DB
}

func (n *notificationStore) Create(ctx context.Context, m *models.Notification) error {
	return n.db.WithContext(ctx).Create(m).Error
}

func (n *notificationStore) ExistsRecent(ctx context.Context, userID string, typ types.NotificationType, contains string, since time.Time) (bool, error) {
	var count int64
	if err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND content LIKE ? AND created_at >= ?",
			userID, typ, "%"+contains+"%", since).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
