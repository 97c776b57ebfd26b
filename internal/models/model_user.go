package models

import (
	"time"

	"github.com/lostmedia/payments/pkg/types"
)

// User is owned by the identity subsystem; this service only reads it and
// mutates role/star through the entitlement applier.
type User struct {
	UserID    string     `gorm:"column:user_id;primary_key;type:varchar(64)" json:"user_id"`
	Username  string     `gorm:"column:username;type:varchar(128)" json:"username"`
	Email     string     `gorm:"column:email;type:varchar(255)" json:"email"`
	Role      types.Role `gorm:"column:role;type:varchar(32);not null;default:'member'" json:"role"`
	Star      int        `gorm:"column:star;type:smallint;not null;default:0" json:"star"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }
