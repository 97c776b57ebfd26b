package reconcile

import (
	"github.com/lostmedia/payments/internal/platform/plisio"
	"github.com/lostmedia/payments/pkg/types"
)

// MapStatus maps the gateway's native status vocabulary onto the internal
// enum. The function is total: unrecognized values map to PENDING, never to a
// terminal state, so a vocabulary change on the gateway side can delay but
// never corrupt a record.
func MapStatus(gatewayStatus string) types.PaymentStatus {
	switch gatewayStatus {
	case plisio.StatusPending:
		return types.PaymentStatusPending
	case plisio.StatusCompleted:
		return types.PaymentStatusSuccess
	case plisio.StatusCancelled:
		return types.PaymentStatusCancelled
	case plisio.StatusExpired:
		return types.PaymentStatusExpired
	case plisio.StatusFailed:
		return types.PaymentStatusFailed
	default:
		return types.PaymentStatusPending
	}
}
