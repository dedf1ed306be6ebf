package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meadowcart/storefront-backend/pkg/enums"
	pkgerrors "github.com/meadowcart/storefront-backend/pkg/errors"
)

// Service exposes order reads and the operator status override.
type Service interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	SetStatus(ctx context.Context, input SetStatusInput) (*OrderDTO, error)
}

// SetStatusInput carries the operator override request.
type SetStatusInput struct {
	OrderID   uuid.UUID
	Status    string
	ActorRole enums.UserRole
}

type service struct {
	repo     Repository
	schedule TransitionSchedule
}

// NewService builds the orders service.
func NewService(repo Repository, schedule TransitionSchedule) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, schedule: schedule}, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToDTOs(rows), nil
}

// SetStatus lets an operator force any valid status. The override clears the
// scheduled transition unless the new status itself schedules one.
func (s *service) SetStatus(ctx context.Context, input SetStatusInput) (*OrderDTO, error) {
	if !input.ActorRole.CanManageOrders() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "operator role required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"status": input.Status})
	}

	if _, err := s.repo.FindByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}

	// an override to a non-terminal status re-enters the automatic pipeline
	next := s.schedule.NextAfter(status, time.Now().UTC())

	if _, err := s.repo.UpdateStatus(ctx, input.OrderID, status, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*updated)
	return &dto, nil
}
