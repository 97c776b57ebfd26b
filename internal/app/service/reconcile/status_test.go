package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lostmedia/payments/pkg/types"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		gateway string
		want    types.PaymentStatus
	}{
		{"pending", types.PaymentStatusPending},
		{"new", types.PaymentStatusPending},
		{"completed", types.PaymentStatusSuccess},
		{"cancelled", types.PaymentStatusCancelled},
		{"expired", types.PaymentStatusExpired},
		{"failed", types.PaymentStatusFailed},
		// Unknown vocabulary must never resolve to a terminal state.
		{"mismatch", types.PaymentStatusPending},
		{"error", types.PaymentStatusPending},
		{"something_new", types.PaymentStatusPending},
		{"", types.PaymentStatusPending},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MapStatus(tc.gateway), "gateway status %q", tc.gateway)
	}
}
