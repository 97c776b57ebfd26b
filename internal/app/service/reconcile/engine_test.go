package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/lostmedia/payments/internal/models"
	"github.com/lostmedia/payments/pkg/types"
)

// stubApplier records grant invocations. Announce is counted to assert it
// only fires when the effect was applied.
type stubApplier struct {
	grants    int
	announces int
	user      *models.User
}

func (s *stubApplier) Grant(_ context.Context, _ Stores, _ *models.Payment) (*GrantResult, error) {
	s.grants++
	return &GrantResult{Applied: true, User: s.user}, nil
}

func (s *stubApplier) Announce(_ context.Context, _ Stores, _ *models.Payment, _ *models.User) {
	s.announces++
}

func newTestEngine(stores Stores, applier EffectApplier) *Engine {
	return NewEngine(stores, applier, zap.NewNop().Sugar())
}

func pendingPayment(orderID, userID string) *models.Payment {
	role := types.RoleVIP
	txn := "txn-" + orderID
	return &models.Payment{
		ID:           "id-" + orderID,
		OrderID:      orderID,
		GatewayTxnID: &txn,
		UserID:       userID,
		Kind:         types.PaymentKindRole,
		TargetRole:   &role,
		AmountIDR:    1500000,
		Status:       types.PaymentStatusPending,
	}
}

func TestReconcile_CompletedGrantsExactlyOnce(t *testing.T) {
	stores := newMemStores()
	require.NoError(t, stores.Payments().Create(context.Background(), pendingPayment("ord-1", "user-1")))

	applier := &stubApplier{}
	e := newTestEngine(stores, applier)

	res, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-1"}, "completed", []byte(`{"status":"completed"}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, res.Status)
	require.True(t, res.EffectApplied)
	require.False(t, res.AlreadyProcessed)
	require.NotNil(t, res.Payment.PaidAt)
	require.Equal(t, 1, applier.grants)
	require.Equal(t, 1, applier.announces)

	firstPaidAt := *res.Payment.PaidAt

	// A duplicate delivery must not grant again nor move paid_at.
	res2, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-1"}, "completed", []byte(`{"status":"completed","retry":true}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, res2.Status)
	require.False(t, res2.EffectApplied)
	require.True(t, res2.AlreadyProcessed)
	require.Equal(t, firstPaidAt, *res2.Payment.PaidAt)
	require.Equal(t, 1, applier.grants)
	require.Equal(t, 1, applier.announces)
}

func TestReconcile_TerminalStateAbsorbsLaterReports(t *testing.T) {
	stores := newMemStores()
	require.NoError(t, stores.Payments().Create(context.Background(), pendingPayment("ord-2", "user-1")))

	applier := &stubApplier{}
	e := newTestEngine(stores, applier)

	res, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-2"}, "cancelled", []byte(`{"status":"cancelled"}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCancelled, res.Status)

	// A late SUCCESS for a cancelled order only refreshes the audit payload.
	res2, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-2"}, "completed", []byte(`{"status":"completed"}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusCancelled, res2.Status)
	require.False(t, res2.EffectApplied)
	require.False(t, res2.AlreadyProcessed)
	require.Nil(t, res2.Payment.PaidAt)
	require.Equal(t, 0, applier.grants)
	require.JSONEq(t, `{"status":"completed"}`, string(res2.Payment.RawGatewayResponse))
}

func TestReconcile_UnknownStatusKeepsPending(t *testing.T) {
	stores := newMemStores()
	require.NoError(t, stores.Payments().Create(context.Background(), pendingPayment("ord-3", "user-1")))

	e := newTestEngine(stores, &stubApplier{})
	res, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-3"}, "mismatch", []byte(`{"status":"mismatch"}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusPending, res.Status)
	require.False(t, res.EffectApplied)

	// Still reconcilable afterwards.
	res2, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-3"}, "completed", []byte(`{"status":"completed"}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, res2.Status)
	require.True(t, res2.EffectApplied)
}

func TestReconcile_LookupFallsBackToOrderID(t *testing.T) {
	stores := newMemStores()
	require.NoError(t, stores.Payments().Create(context.Background(), pendingPayment("ord-4", "user-1")))

	e := newTestEngine(stores, &stubApplier{})
	res, err := e.Reconcile(context.Background(),
		Identifier{GatewayTxnID: "unknown-txn", OrderID: "ord-4"},
		"completed", []byte(`{}`), nil)
	require.NoError(t, err)
	require.Equal(t, "ord-4", res.Payment.OrderID)
}

func TestReconcile_UnknownOrder(t *testing.T) {
	e := newTestEngine(newMemStores(), &stubApplier{})
	_, err := e.Reconcile(context.Background(), Identifier{OrderID: "nope"}, "completed", []byte(`{}`), nil)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestReconcile_PaidAtTakenFromGateway(t *testing.T) {
	stores := newMemStores()
	require.NoError(t, stores.Payments().Create(context.Background(), pendingPayment("ord-5", "user-1")))

	paid := time.Unix(1735689600, 0)
	e := newTestEngine(stores, &stubApplier{})
	res, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-5"}, "completed", []byte(`{}`), &paid)
	require.NoError(t, err)
	require.NotNil(t, res.Payment.PaidAt)
	require.True(t, res.Payment.PaidAt.Equal(paid))
}

func TestReconcile_NoUserSkipsGrant(t *testing.T) {
	stores := newMemStores()
	p := pendingPayment("ord-6", "")
	require.NoError(t, stores.Payments().Create(context.Background(), p))

	applier := &stubApplier{}
	e := newTestEngine(stores, applier)
	res, err := e.Reconcile(context.Background(), Identifier{OrderID: "ord-6"}, "completed", []byte(`{}`), nil)
	require.NoError(t, err)
	require.Equal(t, types.PaymentStatusSuccess, res.Status)
	require.False(t, res.EffectApplied)
	require.Equal(t, 0, applier.grants)
	require.Equal(t, 0, applier.announces)
}
