package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// Repository manages persistence for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, int, error)
	Update(ctx context.Context, order *models.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	UpdateItem(ctx context.Context, item *models.OrderItem) error
	AddPayment(ctx context.Context, payment *models.OrderPayment) error
	Delete(ctx context.Context, id uuid.UUID) error
	MaxCodeSuffix(ctx context.Context) (int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ClientExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListOutstandingByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	for i := range order.Payments {
		if order.Payments[i].ID == uuid.Nil {
			order.Payments[i].ID = uuid.New()
		}
		order.Payments[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, int, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	if err := query.
		Preload("Items").
		Preload("Payments").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, int(total), nil
}

func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items", "Payments").
		Save(order).Error
}

func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) AddPayment(ctx context.Context, payment *models.OrderPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	// Children carry ON DELETE CASCADE in postgres; sqlite test DBs need
	// the explicit deletes.
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Delete(&models.OrderPayment{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}

func (r *repository) MaxCodeSuffix(ctx context.Context) (int, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("code LIKE ?", codePrefix+"%").
		Pluck("code", &codes).Error; err != nil {
		return 0, err
	}
	maxSuffix := 0
	for _, code := range codes {
		if suffix := codeSuffix(code); suffix > maxSuffix {
			maxSuffix = suffix
		}
	}
	return maxSuffix, nil
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ClientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListOutstandingByClient returns the client's unpaid and partially paid
// orders oldest-first, the order the payment allocator walks them in.
func (r *repository) ListOutstandingByClient(ctx context.Context, clientID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND payment_status IN ?", clientID, []enums.PaymentStatus{
			enums.PaymentStatusUnpaid,
			enums.PaymentStatusPartial,
		}).
		Order("created_at ASC, code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
