package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
	"github.com/meadowcart/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations keyed by caller identity. Every operation
// resolves the cart through the identity, so one caller can never reach
// another caller's cart.
type Service interface {
	Get(ctx context.Context, owner types.Identity) (*models.Cart, error)
	AddItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner types.Identity, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, owner types.Identity) error
	MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) (*models.Cart, error)
}

type service struct {
	tx       txRunner
	repo     *Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(tx txRunner, repo *Repository, productRepo productLoader) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{tx: tx, repo: repo, products: productRepo}, nil
}

func (s *service) Get(ctx context.Context, owner types.Identity) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return s.repo.GetOrCreate(ctx, owner)
}

// AddItem merges the quantity into an existing line for the same product
// instead of creating a second line.
func (s *service) AddItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := validateLine(owner, productID, quantity); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.GetOrCreate(ctx, owner)
		if err != nil {
			return err
		}

		existing, err := repo.FindItem(ctx, record.ID, productID)
		switch {
		case err == nil:
			// read-through check only; checkout re-asserts stock on the write
			if err := checkStock(product, existing.Quantity+quantity); err != nil {
				return err
			}
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(product, quantity); err != nil {
				return err
			}
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:    record.ID,
				ProductID: productID,
				Quantity:  quantity,
			})
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByOwner(ctx, owner)
}

// UpdateItem sets the line's quantity outright. The line must already exist.
func (s *service) UpdateItem(ctx context.Context, owner types.Identity, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := validateLine(owner, productID, quantity); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cartLineNotFound(productID)
			}
			return err
		}
		existing, err := repo.FindItem(ctx, record.ID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cartLineNotFound(productID)
			}
			return err
		}
		return repo.UpdateItemQuantity(ctx, existing.ID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByOwner(ctx, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner types.Identity, productID uuid.UUID) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	record, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cartLineNotFound(productID)
		}
		return nil, err
	}
	removed, err := s.repo.DeleteItem(ctx, record.ID, productID)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, cartLineNotFound(productID)
	}
	return s.repo.FindByOwner(ctx, owner)
}

func (s *service) Clear(ctx context.Context, owner types.Identity) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	record, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.repo.ClearItems(ctx, record.ID)
}

func validateLine(owner types.Identity, productID uuid.UUID, quantity int) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

func checkStock(product *models.Product, requested int) error {
	if requested > product.QuantityInStock {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": product.ID.String(),
				"requested":  requested,
				"available":  product.QuantityInStock,
			})
	}
	return nil
}

func cartLineNotFound(productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart").
		WithDetails(map[string]any{"product_id": productID.String()})
}
