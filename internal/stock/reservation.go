package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
)

// Reservation asks for qty units of a product at a warehouse.
type Reservation struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
}

// StockChange reports the on-hand quantity of a warehouse row after an
// applied mutation. All emitters of stock_changed carry the same shape,
// so consumers can refresh displays without a follow-up read.
type StockChange struct {
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
}

type stockKey struct {
	productID   uuid.UUID
	warehouseID uuid.UUID
}

// Reserve validates the whole batch against current quantities and then
// applies each request as an atomic conditional decrement. Any failure
// aborts the batch with an error; the surrounding transaction is
// expected to roll back decrements already applied.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Reservation) ([]StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if len(requests) == 0 {
		return nil, nil
	}

	demand := map[stockKey]int{}
	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.WarehouseID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
		}
		if req.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
		demand[stockKey{req.ProductID, req.WarehouseID}] += req.Quantity
	}

	// Phase one: check aggregated demand so a batch that oversubscribes a
	// single row fails before any decrement is applied.
	for key, quantity := range demand {
		var row models.WarehouseStock
		err := tx.WithContext(ctx).
			Where("product_id = ? AND warehouse_id = ?", key.productID, key.warehouseID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, insufficientStock(key.productID, key.warehouseID, 0, quantity)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading warehouse stock")
		}
		if row.Quantity < quantity {
			return nil, insufficientStock(key.productID, key.warehouseID, row.Quantity, quantity)
		}
	}

	// Phase two: conditional decrements guard against concurrent writers
	// that slipped in after the check.
	changes := make([]StockChange, 0, len(requests))
	for _, req := range requests {
		result := tx.WithContext(ctx).
			Model(&models.WarehouseStock{}).
			Where("product_id = ? AND warehouse_id = ? AND quantity >= ?", req.ProductID, req.WarehouseID, req.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", req.Quantity))
		if result.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reserving warehouse stock")
		}
		if result.RowsAffected == 0 {
			// A concurrent writer drained the row between the check and
			// the decrement; report what is left.
			available, readErr := currentQuantity(ctx, tx, req.ProductID, req.WarehouseID)
			if readErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "loading warehouse stock")
			}
			return nil, insufficientStock(req.ProductID, req.WarehouseID, available, req.Quantity)
		}
		remaining, readErr := currentQuantity(ctx, tx, req.ProductID, req.WarehouseID)
		if readErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "loading warehouse stock")
		}
		changes = append(changes, StockChange{
			ProductID:   req.ProductID,
			WarehouseID: req.WarehouseID,
			Quantity:    remaining,
		})
	}

	return changes, nil
}

// Release returns qty units of a product to a warehouse. A zero qty is
// a no-op; negative quantities are rejected.
func Release(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, qty int) (*StockChange, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must not be negative")
	}
	if qty == 0 {
		return nil, nil
	}

	result := tx.WithContext(ctx).
		Model(&models.WarehouseStock{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "releasing warehouse stock")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse stock row not found")
	}

	onHand, err := currentQuantity(ctx, tx, productID, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading warehouse stock")
	}

	return &StockChange{ProductID: productID, WarehouseID: warehouseID, Quantity: onHand}, nil
}

func currentQuantity(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) (int, error) {
	var row models.WarehouseStock
	err := tx.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

func insufficientStock(productID, warehouseID uuid.UUID, available, requested int) error {
	details := map[string]any{
		"product_id":   productID.String(),
		"warehouse_id": warehouseID.String(),
		"available":    available,
		"requested":    requested,
	}
	msg := fmt.Sprintf("insufficient stock for product %s at warehouse %s", productID, warehouseID)
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(details)
}
