package lifecycle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/internal/orders"
	"github.com/meadowcart/storefront-backend/pkg/db/models"
	"github.com/meadowcart/storefront-backend/pkg/enums"
	"github.com/meadowcart/storefront-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:lifecycle_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "lifecycle-test", Output: os.Stderr})
}

func seedOrder(t *testing.T, conn *gorm.DB, status enums.OrderStatus, due *time.Time) uuid.UUID {
	t.Helper()
	order := models.Order{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		TotalCents:       1000,
		DeliveryAddress:  "12 Main St",
		PaymentName:      "Jordan Smith",
		PaymentCard:      "4111********1111",
		PaymentExpiry:    "08/27",
		Status:           status,
		NextTransitionAt: due,
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order.ID
}

func newAdvanceJob(t *testing.T, conn *gorm.DB, now time.Time) Job {
	t.Helper()
	job, err := NewAdvanceJob(AdvanceJobParams{
		Logger:   testLogger(),
		Orders:   orders.NewRepository(conn),
		Schedule: orders.TransitionSchedule{Transit: 30 * time.Second, Delivery: 20 * time.Second},
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	return job
}

func TestAdvanceJobMovesDueOrdersOneStep(t *testing.T) {
	conn := newTestDB(t)
	now := time.Now().UTC()
	past := now.Add(-time.Second)

	processing := seedOrder(t, conn, enums.OrderStatusProcessing, &past)
	inTransit := seedOrder(t, conn, enums.OrderStatusInTransit, &past)

	job := newAdvanceJob(t, conn, now)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var first, second models.Order
	if err := conn.First(&first, "id = ?", processing).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if err := conn.First(&second, "id = ?", inTransit).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}

	if first.Status != enums.OrderStatusInTransit {
		t.Fatalf("expected in-transit, got %s", first.Status)
	}
	if first.NextTransitionAt == nil {
		t.Fatalf("expected a delivery transition scheduled")
	}
	if got := first.NextTransitionAt.Sub(now); got != 20*time.Second {
		t.Fatalf("expected delivery due in 20s, got %s", got)
	}

	if second.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", second.Status)
	}
	if second.NextTransitionAt != nil {
		t.Fatalf("delivered orders must not stay scheduled")
	}
}

func TestAdvanceJobSkipsFutureOrders(t *testing.T) {
	conn := newTestDB(t)
	now := time.Now().UTC()
	future := now.Add(time.Minute)

	id := seedOrder(t, conn, enums.OrderStatusProcessing, &future)

	job := newAdvanceJob(t, conn, now)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var order models.Order
	if err := conn.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusProcessing {
		t.Fatalf("future order must not advance, got %s", order.Status)
	}
}

func TestAdvanceJobOperatorOverrideWins(t *testing.T) {
	conn := newTestDB(t)
	now := time.Now().UTC()
	past := now.Add(-time.Second)

	id := seedOrder(t, conn, enums.OrderStatusProcessing, &past)

	repo := orders.NewRepository(conn)
	job, err := NewAdvanceJob(AdvanceJobParams{
		Logger:   testLogger(),
		Orders:   overrideBetweenReadAndWrite{Repository: repo, conn: conn, orderID: id},
		Schedule: orders.TransitionSchedule{Transit: 30 * time.Second, Delivery: 20 * time.Second},
		Now:      func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var order models.Order
	if err := conn.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("operator cancel must win over the scheduled advance, got %s", order.Status)
	}
}

func TestAdvanceJobClearsStaleTerminalSchedules(t *testing.T) {
	conn := newTestDB(t)
	now := time.Now().UTC()
	past := now.Add(-time.Second)

	id := seedOrder(t, conn, enums.OrderStatusCancelled, &past)

	job := newAdvanceJob(t, conn, now)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var order models.Order
	if err := conn.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status must stay cancelled, got %s", order.Status)
	}
	if order.NextTransitionAt != nil {
		t.Fatalf("stale schedule should be cleared")
	}
}

// overrideBetweenReadAndWrite simulates an operator cancelling the order after
// the worker reads it but before the guarded advance lands.
type overrideBetweenReadAndWrite struct {
	orders.Repository
	conn    *gorm.DB
	orderID uuid.UUID
}

func (o overrideBetweenReadAndWrite) FindDueForTransition(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	due, err := o.Repository.FindDueForTransition(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	err = o.conn.Model(&models.Order{}).
		Where("id = ?", o.orderID).
		Updates(map[string]any{"status": enums.OrderStatusCancelled, "next_transition_at": nil}).Error
	if err != nil {
		return nil, err
	}
	return due, nil
}
