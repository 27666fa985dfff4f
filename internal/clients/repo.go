package clients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// Repository manages persistence for clients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, client *models.Client) error
	CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, params pagination.Params) ([]models.Client, int, error)
	Update(ctx context.Context, client *models.Client) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a client repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *repository) CreateLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Client, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Client{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Client
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, int(total), nil
}

func (r *repository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}
