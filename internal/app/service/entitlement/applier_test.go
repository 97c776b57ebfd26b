package entitlement

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lostmedia/payments/internal/app/service/reconcile"
	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/types"
)

type fakeStores struct {
	users         map[string]*models.User
	notifications []*models.Notification
}

func (f *fakeStores) Payments() reconcile.PaymentStore           { panic("not used") }
func (f *fakeStores) Users() reconcile.UserStore                 { return (*fakeUsers)(f) }
func (f *fakeStores) Notifications() reconcile.NotificationStore { return (*fakeNotifications)(f) }
func (f *fakeStores) Transaction(_ context.Context, fn func(reconcile.Stores) error) error {
	return fn(f)
}

type fakeUsers fakeStores

func (f *fakeUsers) Get(_ context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, reconcile.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetRole(_ context.Context, userID string, role types.Role) error {
	f.users[userID].Role = role
	return nil
}

func (f *fakeUsers) SetStar(_ context.Context, userID string, star int) error {
	f.users[userID].Star = star
	return nil
}

type fakeNotifications fakeStores

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	cp := *n
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	fs := (*fakeStores)(f)
	fs.notifications = append(fs.notifications, &cp)
	return nil
}

func (f *fakeNotifications) ExistsRecent(_ context.Context, userID string, typ types.NotificationType, contains string, since time.Time) (bool, error) {
	for _, n := range f.notifications {
		if n.UserID == userID && n.Type == typ && strings.Contains(n.Content, contains) && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type captureMailer struct {
	sent []*AdminPaymentEmail
	err  error
}

func (m *captureMailer) SendAdminPaymentSuccess(_ context.Context, e *AdminPaymentEmail) error {
	m.sent = append(m.sent, e)
	return m.err
}

func rolePayment(userID string, role types.Role) *models.Payment {
	return &models.Payment{
		ID:         "pay-1",
		OrderID:    "plisio-1717000000000-a1b2c3d4e",
		UserID:     userID,
		Kind:       types.PaymentKindRole,
		TargetRole: &role,
		AmountIDR:  1500000,
		Status:     types.PaymentStatusSuccess,
	}
}

func starPayment(userID string, star int) *models.Payment {
	return &models.Payment{
		ID:         "pay-2",
		OrderID:    "plisio-star-user-1-000000-aaaaa",
		UserID:     userID,
		Kind:       types.PaymentKindStar,
		TargetStar: &star,
		AmountIDR:  10000,
		Status:     types.PaymentStatusSuccess,
	}
}

func newTestApplier(m Mailer) *Applier {
	return NewApplier(m, zap.NewNop().Sugar())
}

func TestGrant_RolePurchase(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{
		"user-1": {UserID: "user-1", Username: "budi", Role: types.RoleMember},
	}}
	a := newTestApplier(&captureMailer{})

	res, err := a.Grant(context.Background(), stores, rolePayment("user-1", types.RoleVIP))
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.False(t, res.AlreadyProcessed)
	require.Equal(t, types.RoleVIP, stores.users["user-1"].Role)
	require.Equal(t, types.RoleVIP, res.User.Role)
}

func TestGrant_StarUpgrade(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{
		"user-1": {UserID: "user-1", Username: "budi", Star: 2},
	}}
	a := newTestApplier(&captureMailer{})

	res, err := a.Grant(context.Background(), stores, starPayment("user-1", 3))
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, 3, stores.users["user-1"].Star)
}

func TestGrant_DedupOnRecentNotification(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{
		"user-1": {UserID: "user-1", Role: types.RoleMember},
	}}
	stores.notifications = append(stores.notifications, &models.Notification{
		UserID:    "user-1",
		Type:      types.NotificationTypeRolePurchased,
		Content:   "Selamat! Pembelian role vip berhasil. Anda telah membayar Rp 1.500.000. (Order: x)",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	a := newTestApplier(&captureMailer{})

	res, err := a.Grant(context.Background(), stores, rolePayment("user-1", types.RoleVIP))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.True(t, res.AlreadyProcessed)
	require.Equal(t, types.RoleMember, stores.users["user-1"].Role)
}

func TestGrant_UnknownUserSkips(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{}}
	a := newTestApplier(&captureMailer{})

	res, err := a.Grant(context.Background(), stores, rolePayment("ghost", types.RoleVIP))
	require.NoError(t, err)
	require.False(t, res.Applied)
	require.False(t, res.AlreadyProcessed)
}

func TestAnnounce_NotificationAndEmail(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{}}
	mailer := &captureMailer{}
	a := newTestApplier(mailer)

	user := &models.User{UserID: "user-1", Username: "budi", Email: "budi@example.com"}
	a.Announce(context.Background(), stores, rolePayment("user-1", types.RoleVIP), user)

	require.Len(t, stores.notifications, 1)
	n := stores.notifications[0]
	require.Equal(t, types.NotificationTypeRolePurchased, n.Type)
	require.Equal(t, "/profile/user-1", n.ActionURL)
	require.Contains(t, n.Content, "Pembelian role vip berhasil")
	require.Contains(t, n.Content, "Rp 1.500.000")

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "budi", mailer.sent[0].Username)
	require.Equal(t, types.RoleVIP, mailer.sent[0].Role)
	require.Equal(t, "Crypto (Plisio)", mailer.sent[0].PaymentMethod)
}

func TestAnnounce_MailerFailureIsSwallowed(t *testing.T) {
	stores := &fakeStores{users: map[string]*models.User{}}
	a := newTestApplier(&captureMailer{err: context.DeadlineExceeded})

	require.NotPanics(t, func() {
		a.Announce(context.Background(), stores, starPayment("user-1", 3), nil)
	})
	require.Len(t, stores.notifications, 1)
	require.Contains(t, stores.notifications[0].Content, "Upgrade star ke level 3 berhasil")
}

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		1500000:  "1.500.000",
		10000000: "10.000.000",
		-25000:   "-25.000",
	}
	for in, want := range cases {
		require.Equal(t, want, formatRupiah(in))
	}
}
