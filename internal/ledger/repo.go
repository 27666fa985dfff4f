package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	LastEntry(ctx context.Context, clientID uuid.UUID) (*models.LedgerEntry, error)
	List(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, int, error)
	Totals(ctx context.Context, clientID uuid.UUID) (debitCents, creditCents int, err error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	UpdateClientBalance(ctx context.Context, clientID uuid.UUID, balanceCents int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) LastEntry(ctx context.Context, clientID uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, clientID uuid.UUID, params pagination.Params) ([]models.LedgerEntry, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("client_id = ?", clientID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, int(total), nil
}

func (r *repository) Totals(ctx context.Context, clientID uuid.UUID) (int, int, error) {
	var row struct {
		Debit  int
		Credit int
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(debit_cents), 0) AS debit, COALESCE(SUM(credit_cents), 0) AS credit").
		Where("client_id = ?", clientID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Debit, row.Credit, nil
}

func (r *repository) GetClient(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repository) UpdateClientBalance(ctx context.Context, clientID uuid.UUID, balanceCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", clientID).
		UpdateColumn("balance_cents", balanceCents).Error
}
