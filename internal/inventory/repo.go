package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/internal/repo"
	"github.com/meadowcart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
)

// Repository applies stock movements against the products ledger.
type Repository struct {
	repo.Base
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// Decrement atomically subtracts qty from the product's stock. The guard in
// the WHERE clause makes the update a no-op when stock is insufficient, so
// the ledger can never go negative regardless of concurrent checkouts.
func (r *Repository) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity_in_stock >= ?", productID, qty).
		UpdateColumn("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  qty,
			})
	}
	return nil
}
