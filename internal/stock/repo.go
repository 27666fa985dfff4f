package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stantonsupply/backoffice/pkg/db/models"
)

// Repository manages persistence for warehouse stock rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertStock(ctx context.Context, row *models.WarehouseStock) error
	GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*models.WarehouseStock, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.WarehouseStock, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertStock(ctx context.Context, row *models.WarehouseStock) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(row).Error
}

func (r *repository) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*models.WarehouseStock, error) {
	var row models.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.WarehouseStock, error) {
	var rows []models.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("warehouse_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
