package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/internal/pricing"
	"github.com/stantonsupply/backoffice/internal/stock"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/events"
	"github.com/stantonsupply/backoffice/pkg/logger"
	"github.com/stantonsupply/backoffice/pkg/metrics"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// Service drives the order lifecycle: creation with stock reservation,
// item edits while pending, role-gated status transitions, per-line
// collection flags, and deletion with stock release.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, pagination.Meta, error)
	UpdateItems(ctx context.Context, input UpdateItemsInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CollectItem(ctx context.Context, input CollectItemInput) (*models.Order, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

// txRunner runs fn inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo      Repository
	runner    txRunner
	publisher events.Publisher
	domain    *metrics.DomainMetrics
	logg      *logger.Logger
}

// NewService wires an order service with its dependencies.
func NewService(repo Repository, runner txRunner, publisher events.Publisher, domain *metrics.DomainMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, runner: runner, publisher: publisher, domain: domain, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if input.DiscountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	for _, payment := range input.Payments {
		if !payment.Mode.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment mode %q", payment.Mode))
		}
		if payment.AmountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
		}
	}

	var (
		order        *models.Order
		stockChanges []stock.StockChange
	)
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		exists, err := repo.ClientExists(ctx, input.ClientID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking client")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "client not found")
		}

		items, reservations, err := s.buildItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}

		stockChanges, err = stock.Reserve(ctx, tx, reservations)
		if err != nil {
			return err
		}

		maxSuffix, err := repo.MaxCodeSuffix(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading order codes")
		}

		payments := make([]models.OrderPayment, 0, len(input.Payments))
		paymentCents := make([]int, 0, len(input.Payments))
		for _, payment := range input.Payments {
			payments = append(payments, models.OrderPayment{
				Mode:        payment.Mode,
				AmountCents: payment.AmountCents,
				Reference:   payment.Reference,
				RecordedBy:  &input.Actor.UserID,
			})
			paymentCents = append(paymentCents, payment.AmountCents)
		}

		lines := make([]pricing.Line, len(items))
		for i, item := range items {
			lines[i] = pricing.Line{Quantity: item.Quantity, UnitPriceCents: item.UnitPriceCents}
		}
		priced := pricing.Compute(lines, input.DiscountCents, paymentCents)

		order = &models.Order{
			Code:           nextCode(maxSuffix),
			ClientID:       input.ClientID,
			DeliveryUserID: input.DeliveryUserID,
			Status:         enums.OrderStatusPending,
			PaymentStatus:  priced.PaymentStatus,
			TotalCents:     priced.TotalCents,
			DiscountCents:  priced.DiscountCents,
			PaidCents:      priced.PaidCents,
			Notes:          input.Notes,
			Items:          items,
			Payments:       payments,
		}
		if input.DeliveryUserID != nil {
			order.AssignedByID = &input.Actor.UserID
		}

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.domain.IncReservationFailed()
		}
		return nil, err
	}

	s.domain.IncOrderCreated(order.PaymentStatus.String())
	s.publishStockChanges(ctx, stockChanges)
	s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeOrderCreated, map[string]any{
		"order_id":  order.ID.String(),
		"code":      order.Code,
		"client_id": order.ClientID.String(),
	}))

	return order, nil
}

// buildItems resolves catalog prices and shapes reservation requests.
func (s *service) buildItems(ctx context.Context, repo Repository, inputs []ItemInput) ([]models.OrderItem, []stock.Reservation, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	reservations := make([]stock.Reservation, 0, len(inputs))
	for _, in := range inputs {
		if in.ProductID == uuid.Nil || in.WarehouseID == uuid.Nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item product and warehouse are required")
		}
		if in.Quantity <= 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}

		unitPrice := 0
		if in.UnitPriceCents != nil {
			if *in.UnitPriceCents < 0 {
				return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "item unit price must not be negative")
			}
			unitPrice = *in.UnitPriceCents
		} else {
			product, err := repo.GetProduct(ctx, in.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", in.ProductID))
			}
			if err != nil {
				return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
			}
			unitPrice = product.UnitPriceCents
		}

		items = append(items, models.OrderItem{
			ProductID:      in.ProductID,
			WarehouseID:    in.WarehouseID,
			Quantity:       in.Quantity,
			UnitPriceCents: unitPrice,
		})
		reservations = append(reservations, stock.Reservation{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
		})
	}
	return items, reservations, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, pagination.Meta, error) {
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return rows, pagination.NewMeta(params, total), nil
}

func (s *service) UpdateItems(ctx context.Context, input UpdateItemsInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if input.DiscountCents != nil && *input.DiscountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}

	var (
		order        *models.Order
		stockChanges []stock.StockChange
	)
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if current.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "items are editable only while pending").
				WithDetails(map[string]string{"status": current.Status.String()})
		}

		// Release the old lines, then reserve the new set as one batch.
		for _, item := range current.Items {
			change, err := stock.Release(ctx, tx, item.ProductID, item.WarehouseID, item.Quantity)
			if err != nil {
				return err
			}
			if change != nil {
				stockChanges = append(stockChanges, *change)
			}
		}

		items, reservations, err := s.buildItems(ctx, repo, input.Items)
		if err != nil {
			return err
		}
		reserved, err := stock.Reserve(ctx, tx, reservations)
		if err != nil {
			return err
		}
		stockChanges = append(stockChanges, reserved...)

		if err := repo.ReplaceItems(ctx, current.ID, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replacing order items")
		}

		discount := current.DiscountCents
		if input.DiscountCents != nil {
			discount = *input.DiscountCents
		}
		total := 0
		for _, item := range items {
			total += item.SubtotalCents()
		}
		priced := pricing.Recompute(total, discount, current.PaidCents)

		current.TotalCents = priced.TotalCents
		current.DiscountCents = discount
		current.PaymentStatus = priced.PaymentStatus
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order")
		}
		current.Items = items
		order = current
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.domain.IncReservationFailed()
		}
		return nil, err
	}

	s.publishStockChanges(ctx, stockChanges)
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}

		from = current.Status
		if err := checkTransition(input.Actor.Role, current.Status, input.Status); err != nil {
			return err
		}

		current.Status = input.Status
		if input.DeliveryUserID != nil {
			current.DeliveryUserID = input.DeliveryUserID
			current.AssignedByID = &input.Actor.UserID
		}
		if err := repo.Update(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.domain.IncOrderTransition(from.String(), order.Status.String())
	s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeOrderStatusChanged, map[string]any{
		"order_id": order.ID.String(),
		"code":     order.Code,
		"from":     from.String(),
		"to":       order.Status.String(),
	}))

	return order, nil
}

func (s *service) CollectItem(ctx context.Context, input CollectItemInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and item ids are required")
	}

	var order *models.Order
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}

		if current.Status != enums.OrderStatusShipped && current.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "items can be collected only while shipped or delivered").
				WithDetails(map[string]string{"status": current.Status.String()})
		}
		if input.Actor.Role != enums.ActorRoleAdmin {
			if current.DeliveryUserID == nil || *current.DeliveryUserID != input.Actor.UserID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned delivery user may collect items")
			}
		}

		var target *models.OrderItem
		for i := range current.Items {
			if current.Items[i].ID == input.ItemID {
				target = &current.Items[i]
				break
			}
		}
		if target == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}

		target.Collected = input.Collected
		if err := repo.UpdateItem(ctx, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order item")
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var (
		code         string
		stockChanges []stock.StockChange
	)
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}
		if current.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be deleted")
		}

		for _, item := range current.Items {
			change, err := stock.Release(ctx, tx, item.ProductID, item.WarehouseID, item.Quantity)
			if err != nil {
				return err
			}
			if change != nil {
				stockChanges = append(stockChanges, *change)
			}
		}

		code = current.Code
		if err := repo.Delete(ctx, current.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishStockChanges(ctx, stockChanges)
	s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeOrderDeleted, map[string]any{
		"order_id": id.String(),
		"code":     code,
	}))
	return nil
}

func (s *service) publishStockChanges(ctx context.Context, changes []stock.StockChange) {
	for _, change := range changes {
		s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeStockChanged, change))
	}
}
