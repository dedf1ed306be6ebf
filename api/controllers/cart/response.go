package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meadowcart/storefront-backend/pkg/db/models"
)

type cartView struct {
	ID        uuid.UUID      `json:"id"`
	Items     []cartLineView `json:"items"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type cartLineView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   productSnapshot `json:"product"`
}

// productSnapshot is the catalog view embedded in a cart line. Price reflects
// the current catalog price, not a locked-in one; checkout snapshots prices.
type productSnapshot struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Description *string         `json:"description,omitempty"`
}

func newCartView(record *models.Cart) cartView {
	items := make([]cartLineView, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartLineView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product: productSnapshot{
				Name:        item.Product.Name,
				Price:       decimal.New(int64(item.Product.PriceCents), -2),
				ImageURL:    item.Product.ImageURL,
				Description: item.Product.Description,
			},
		})
	}
	return cartView{
		ID:        record.ID,
		Items:     items,
		UpdatedAt: record.UpdatedAt,
	}
}
