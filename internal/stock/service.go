package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/events"
	"github.com/stantonsupply/backoffice/pkg/logger"
)

// Service exposes stock provisioning and reads for the API layer.
// Reservations inside order transactions go through Reserve/Release
// directly.
type Service interface {
	Provision(ctx context.Context, input ProvisionInput) (*models.WarehouseStock, error)
	GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*models.WarehouseStock, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.WarehouseStock, error)
}

// ProvisionInput sets the absolute on-hand quantity for a product at a
// warehouse.
type ProvisionInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
}

type service struct {
	repo      Repository
	publisher events.Publisher
	logg      *logger.Logger
}

// NewService wires a stock service with its dependencies.
func NewService(repo Repository, publisher events.Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, publisher: publisher, logg: logg}, nil
}

func (s *service) Provision(ctx context.Context, input ProvisionInput) (*models.WarehouseStock, error) {
	if input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	row := &models.WarehouseStock{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Quantity:    input.Quantity,
	}
	if err := s.repo.UpsertStock(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provisioning warehouse stock")
	}

	s.publisher.Publish(ctx, events.NewEvent(enums.EventTypeStockChanged, StockChange{
		ProductID:   input.ProductID,
		WarehouseID: input.WarehouseID,
		Quantity:    input.Quantity,
	}))

	return row, nil
}

func (s *service) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*models.WarehouseStock, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}
	row, err := s.repo.GetStock(ctx, productID, warehouseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse stock row not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading warehouse stock")
	}
	return row, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.WarehouseStock, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing warehouse stock")
	}
	return rows, nil
}
