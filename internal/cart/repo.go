package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/internal/repo"
	"github.com/meadowcart/storefront-backend/pkg/db"
	"github.com/meadowcart/storefront-backend/pkg/db/models"
	"github.com/meadowcart/storefront-backend/pkg/types"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{Base: repo.NewBase(tx)}
}

// FindByOwner loads the cart for the identity, items included.
func (r *Repository) FindByOwner(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	var record models.Cart
	err := r.ownerScope(ctx, owner).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOrCreate returns the identity's cart, creating an empty one on first use.
// A concurrent create racing on the owner's unique index degrades to a re-fetch.
func (r *Repository) GetOrCreate(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	record, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := models.Cart{ID: uuid.New()}
	if owner.IsUser() {
		userID := owner.UserID
		fresh.UserID = &userID
	} else {
		sessionID := owner.SessionID
		fresh.SessionID = &sessionID
	}

	if err := r.DB(ctx).Create(&fresh).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return r.FindByOwner(ctx, owner)
		}
		return nil, err
	}
	fresh.Items = []models.CartItem{}
	return &fresh, nil
}

// FindItem returns the cart line for the product, if any.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.DB(ctx).Create(item).Error
}

// UpdateItemQuantity sets the line's quantity outright.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItem removes one line from the cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// ClearItems removes every line from the cart. The cart row itself stays.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.DB(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *Repository) ownerScope(ctx context.Context, owner types.Identity) *gorm.DB {
	q := r.DB(ctx)
	if owner.IsUser() {
		return q.Where("user_id = ?", owner.UserID)
	}
	return q.Where("session_id = ?", owner.SessionID)
}
