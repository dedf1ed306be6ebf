package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/meadowcart/storefront-backend/pkg/enums"
)

// Order is the immutable result of a checkout. Everything except Status and
// NextTransitionAt is write-once; totals and line prices snapshot the catalog
// price at purchase time.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents       int               `gorm:"column:total_cents;not null"`
	DeliveryAddress  string            `gorm:"column:delivery_address;not null"`
	PaymentName      string            `gorm:"column:payment_name;not null"`
	PaymentCard      string            `gorm:"column:payment_card;not null"`
	PaymentExpiry    string            `gorm:"column:payment_expiry;not null"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'processing'"`
	NextTransitionAt *time.Time        `gorm:"column:next_transition_at;index"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
