package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/internal/cart"
	"github.com/meadowcart/storefront-backend/internal/inventory"
	"github.com/meadowcart/storefront-backend/internal/orders"
	"github.com/meadowcart/storefront-backend/internal/products"
	"github.com/meadowcart/storefront-backend/pkg/db/models"
	"github.com/meadowcart/storefront-backend/pkg/enums"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
	"github.com/meadowcart/storefront-backend/pkg/logger"
	"github.com/meadowcart/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutItem is one line of the point-in-time cart snapshot the caller
// assembled just before submitting. The order is built from exactly these
// lines; cart mutations after assembly do not leak into the purchase.
type CheckoutItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// Input captures everything the buyer submits at checkout.
type Input struct {
	Items           []CheckoutItem
	DeliveryAddress string
	Payment         PaymentDetails
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*orders.OrderDTO, error)
}

type service struct {
	tx        txRunner
	carts     *cart.Repository
	products  *products.Repository
	inventory *inventory.Repository
	orders    orders.Repository
	schedule  orders.TransitionSchedule
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	productRepo *products.Repository,
	inventoryRepo *inventory.Repository,
	ordersRepo orders.Repository,
	schedule orders.TransitionSchedule,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if inventoryRepo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:        tx,
		carts:     cartRepo,
		products:  productRepo,
		inventory: inventoryRepo,
		orders:    ordersRepo,
		schedule:  schedule,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Execute turns the submitted cart snapshot into an order. Stock and price
// are re-read inside the transaction; the snapshot only fixes which lines
// and quantities are being bought. The stock check, order insert and stock
// decrements commit or roll back as one unit; the cart clear runs after
// commit and is allowed to fail without voiding the purchase.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if err := input.Payment.Validate(); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range input.Items {
		if line.ProductID == uuid.Nil || line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart line").
				WithDetails(map[string]any{
					"product_id": line.ProductID.String(),
					"quantity":   line.Quantity,
				})
		}
	}

	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.products.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		inventoryRepo := s.inventory.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, line := range input.Items {
			ids = append(ids, line.ProductID)
		}
		catalog, err := productsRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		// authoritative stock and price read inside the transaction; the
		// prices the buyer saw while browsing carry no weight here
		totalCents := 0
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			product, ok := catalog[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available").
					WithDetails(map[string]any{"product_id": line.ProductID.String()})
			}
			if product.QuantityInStock < line.Quantity {
				return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"requested":  line.Quantity,
						"available":  product.QuantityInStock,
					})
			}
			totalCents += product.PriceCents * line.Quantity
			items = append(items, models.OrderItem{
				ProductID:            product.ID,
				Quantity:             line.Quantity,
				PriceAtPurchaseCents: product.PriceCents,
			})
		}

		now := s.now()
		order := &models.Order{
			UserID:           userID,
			TotalCents:       totalCents,
			DeliveryAddress:  strings.TrimSpace(input.DeliveryAddress),
			PaymentName:      strings.TrimSpace(input.Payment.Name),
			PaymentCard:      MaskCardNumber(input.Payment.CardNumber),
			PaymentExpiry:    input.Payment.Expiry,
			Status:           enums.OrderStatusProcessing,
			NextTransitionAt: s.schedule.NextAfter(enums.OrderStatusProcessing, now),
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return err
		}

		for _, item := range items {
			if err := inventoryRepo.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.Items = items
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.clearCart(ctx, types.UserIdentity(userID), placed.ID)

	dto := orders.ToDTO(*placed)
	return &dto, nil
}

// clearCart is best effort: a failed clear leaves a stale cart, never a
// failed order.
func (s *service) clearCart(ctx context.Context, owner types.Identity, orderID uuid.UUID) {
	record, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && s.logg != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "cart lookup after checkout failed")
		}
		return
	}
	if err := s.carts.ClearItems(ctx, record.ID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()), "cart clear after checkout failed")
	}
}
