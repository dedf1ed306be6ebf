package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
	"github.com/meadowcart/storefront-backend/pkg/types"
)

// MergeOnLogin folds the anonymous session cart into the user's cart.
// Quantities for the same product are summed, session-only lines move over,
// and the session cart is left empty. The whole merge runs in one
// transaction so a failure leaves both carts as they were.
//
// Replaying the merge with a replenished session cart adds quantities again;
// callers are expected to invoke it once per login.
func (s *service) MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	userOwner := types.UserIdentity(userID)
	sessionOwner := types.SessionIdentity(sessionID)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sessionCart, err := repo.FindByOwner(ctx, sessionOwner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// nothing to merge
				return nil
			}
			return err
		}
		if len(sessionCart.Items) == 0 {
			return nil
		}

		userCart, err := repo.GetOrCreate(ctx, userOwner)
		if err != nil {
			return err
		}

		existing := make(map[uuid.UUID]models.CartItem, len(userCart.Items))
		for _, item := range userCart.Items {
			existing[item.ProductID] = item
		}

		for _, line := range sessionCart.Items {
			if current, ok := existing[line.ProductID]; ok {
				if err := repo.UpdateItemQuantity(ctx, current.ID, current.Quantity+line.Quantity); err != nil {
					return err
				}
				continue
			}
			if err := repo.CreateItem(ctx, &models.CartItem{
				CartID:    userCart.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			}); err != nil {
				return err
			}
		}

		return repo.ClearItems(ctx, sessionCart.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userOwner)
}
