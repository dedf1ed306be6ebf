package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the stock-relevant catalog view. QuantityInStock is the stock
// ledger: it never goes negative and only the checkout transaction decrements it.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Description     *string   `gorm:"column:description"`
	ImageURL        *string   `gorm:"column:image_url"`
	PriceCents      int       `gorm:"column:price_cents;not null"`
	QuantityInStock int       `gorm:"column:quantity_in_stock;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
