package types

// PaymentStatus is the internal lifecycle status of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Terminal reports whether no further status transition is permitted.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusCancelled, PaymentStatusExpired, PaymentStatusFailed:
		return true
	}
	return false
}

// PaymentKind selects which entitlement a successful payment grants.
type PaymentKind string

const (
	PaymentKindRole PaymentKind = "role"
	PaymentKindStar PaymentKind = "star"
)

type NotificationType string

const (
	NotificationTypeRolePurchased NotificationType = "role_purchased"
	NotificationTypeStarUpgraded  NotificationType = "star_upgraded"
)
