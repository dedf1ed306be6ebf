package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meadowcart/storefront-backend/pkg/db/models"
	"github.com/meadowcart/storefront-backend/pkg/enums"
)

// OrderDTO is the API-facing order shape. Money amounts render as decimal
// strings (dollars) while the ledger stays in integer cents.
type OrderDTO struct {
	ID               uuid.UUID         `json:"id"`
	Status           enums.OrderStatus `json:"status"`
	Total            decimal.Decimal   `json:"total"`
	DeliveryAddress  string            `json:"delivery_address"`
	PaymentName      string            `json:"payment_name"`
	PaymentCard      string            `json:"payment_card"`
	PaymentExpiry    string            `json:"payment_expiry"`
	NextTransitionAt *time.Time        `json:"next_transition_at,omitempty"`
	Items            []OrderItemDTO    `json:"items"`
	CreatedAt        time.Time         `json:"created_at"`
}

// OrderItemDTO is one purchased line with its snapshot price.
type OrderItemDTO struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// ToDTO converts a persisted order into its API shape.
func ToDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: centsToDecimal(item.PriceAtPurchaseCents),
		})
	}
	return OrderDTO{
		ID:               order.ID,
		Status:           order.Status,
		Total:            centsToDecimal(order.TotalCents),
		DeliveryAddress:  order.DeliveryAddress,
		PaymentName:      order.PaymentName,
		PaymentCard:      order.PaymentCard,
		PaymentExpiry:    order.PaymentExpiry,
		NextTransitionAt: order.NextTransitionAt,
		Items:            items,
		CreatedAt:        order.CreatedAt,
	}
}

// ToDTOs maps a slice of persisted orders.
func ToDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToDTO(row))
	}
	return out
}

func centsToDecimal(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}
