package models

import (
	"time"

	"github.com/lostmedia/payments/pkg/types"
)

// Notification is an append-only record consumed by a separate delivery/read
// subsystem. The reconciliation core creates at most one per successful
// payment.
type Notification struct {
	ID        string                 `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID    string                 `gorm:"column:user_id;type:varchar(64);not null;index:idx_notification_user_id" json:"user_id"`
	ActorID   string                 `gorm:"column:actor_id;type:varchar(64)" json:"actor_id"`
	Type      types.NotificationType `gorm:"column:type;type:varchar(64);not null" json:"type"`
	Content   string                 `gorm:"column:content;type:text" json:"content"`
	ActionURL string                 `gorm:"column:action_url;type:text" json:"action_url"`
	CreatedAt time.Time              `json:"created_at"`
}

func (Notification) TableName() string { return "notification" }
