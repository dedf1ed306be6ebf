package orders

import (
	"time"

	"github.com/meadowcart/storefront-backend/pkg/enums"
)

// TransitionSchedule maps each non-terminal status to the delay before its
// automatic forward transition.
type TransitionSchedule struct {
	Transit  time.Duration // processing -> in-transit
	Delivery time.Duration // in-transit -> delivered
}

// NextAfter returns when the order should leave the given status, or nil for
// terminal statuses.
func (s TransitionSchedule) NextAfter(status enums.OrderStatus, from time.Time) *time.Time {
	var delay time.Duration
	switch status {
	case enums.OrderStatusProcessing:
		delay = s.Transit
	case enums.OrderStatusInTransit:
		delay = s.Delivery
	default:
		return nil
	}
	due := from.Add(delay)
	return &due
}
