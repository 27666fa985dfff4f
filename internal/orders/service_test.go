package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stantonsupply/backoffice/internal/stock"
	"github.com/stantonsupply/backoffice/pkg/db"
	"github.com/stantonsupply/backoffice/pkg/db/models"
	"github.com/stantonsupply/backoffice/pkg/enums"
	pkgerrors "github.com/stantonsupply/backoffice/pkg/errors"
	"github.com/stantonsupply/backoffice/pkg/events"
	"github.com/stantonsupply/backoffice/pkg/pagination"
)

// recordingPublisher captures events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) byType(eventType enums.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []events.Event
	for _, event := range p.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type fixture struct {
	conn      *gorm.DB
	svc       Service
	publisher *recordingPublisher
	client    *models.Client
	product   *models.Product
	warehouse uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Client{}, &models.Product{}, &models.WarehouseStock{},
		&models.Order{}, &models.OrderItem{}, &models.OrderPayment{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	publisher := &recordingPublisher{}
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn), publisher, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	client := &models.Client{ID: uuid.New(), Name: "Harbor Mart"}
	if err := conn.Create(client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	product := &models.Product{ID: uuid.New(), Name: "Rice 25kg", SKU: "RICE-25", UnitPriceCents: 150000}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	warehouse := uuid.New()
	if err := conn.Create(&models.WarehouseStock{
		ProductID: product.ID, WarehouseID: warehouse, Quantity: 20,
	}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	return &fixture{
		conn:      conn,
		svc:       svc,
		publisher: publisher,
		client:    client,
		product:   product,
		warehouse: warehouse,
	}
}

func (f *fixture) stockQuantity(t *testing.T) int {
	t.Helper()
	var row models.WarehouseStock
	if err := f.conn.First(&row, "product_id = ? AND warehouse_id = ?", f.product.ID, f.warehouse).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return row.Quantity
}

func (f *fixture) createOrder(t *testing.T, qty int, payments []PaymentInput) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateOrderInput{
		Actor:    Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		ClientID: f.client.ID,
		Items: []ItemInput{
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: qty},
		},
		Payments: payments,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateReservesStockAndPrices(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 3, []PaymentInput{{Mode: enums.PaymentModeCash, AmountCents: 100000}})

	if order.Code != "STN00001" {
		t.Fatalf("code = %q", order.Code)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("status = %s", order.Status)
	}
	if order.TotalCents != 450000 {
		t.Fatalf("total = %d", order.TotalCents)
	}
	if order.PaidCents != 100000 || order.PaymentStatus != enums.PaymentStatusPartial {
		t.Fatalf("paid=%d status=%s", order.PaidCents, order.PaymentStatus)
	}
	if order.Items[0].UnitPriceCents != 150000 {
		t.Fatalf("frozen price = %d", order.Items[0].UnitPriceCents)
	}
	if got := f.stockQuantity(t); got != 17 {
		t.Fatalf("stock = %d, want 17", got)
	}

	if created := f.publisher.byType(enums.EventTypeOrderCreated); len(created) != 1 {
		t.Fatalf("order_created events = %d", len(created))
	}
	changes := f.publisher.byType(enums.EventTypeStockChanged)
	if len(changes) != 1 {
		t.Fatalf("stock_changed events = %d", len(changes))
	}
	if change, ok := changes[0].Data.(stock.StockChange); !ok || change.Quantity != 17 {
		t.Fatalf("stock_changed payload = %+v", changes[0].Data)
	}
}

func TestCreateSequentialCodes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.createOrder(t, 1, nil)
	second := f.createOrder(t, 1, nil)
	if first.Code != "STN00001" || second.Code != "STN00002" {
		t.Fatalf("codes = %q, %q", first.Code, second.Code)
	}
}

func TestCreateInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		Actor:    Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		ClientID: f.client.ID,
		Items: []ItemInput{
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: 21},
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.stockQuantity(t); got != 20 {
		t.Fatalf("stock = %d, want 20", got)
	}

	var count int64
	if err := f.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("orders = %d, want 0", count)
	}
}

func TestCreateUnknownClient(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateOrderInput{
		Actor:    Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		ClientID: uuid.New(),
		Items: []ItemInput{
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: 1},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateItemsSwapsReservations(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 5, nil)
	if got := f.stockQuantity(t); got != 15 {
		t.Fatalf("stock after create = %d", got)
	}

	price := 120000
	updated, err := f.svc.UpdateItems(context.Background(), UpdateItemsInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		OrderID: order.ID,
		Items: []ItemInput{
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: 2, UnitPriceCents: &price},
		},
	})
	if err != nil {
		t.Fatalf("update items: %v", err)
	}
	if updated.TotalCents != 240000 {
		t.Fatalf("total = %d", updated.TotalCents)
	}
	if len(updated.Items) != 1 || updated.Items[0].Quantity != 2 {
		t.Fatalf("items = %+v", updated.Items)
	}
	// 20 - 2 now reserved.
	if got := f.stockQuantity(t); got != 18 {
		t.Fatalf("stock after edit = %d, want 18", got)
	}
}

func TestUpdateItemsInsufficientStockKeepsOldReservation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 5, nil)

	_, err := f.svc.UpdateItems(context.Background(), UpdateItemsInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		OrderID: order.ID,
		Items: []ItemInput{
			// 15 on hand plus the 5 released: 21 does not fit.
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: 21},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	// Rollback restores the original reservation.
	if got := f.stockQuantity(t); got != 15 {
		t.Fatalf("stock = %d, want 15", got)
	}
}

func TestUpdateItemsRequiresPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 1, nil)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		OrderID: order.ID,
		Status:  enums.OrderStatusShipped,
	})
	if err != nil {
		t.Fatalf("ship: %v", err)
	}

	_, err = f.svc.UpdateItems(context.Background(), UpdateItemsInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin},
		OrderID: order.ID,
		Items: []ItemInput{
			{ProductID: f.product.ID, WarehouseID: f.warehouse, Quantity: 2},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateStatusRoleGating(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 1, nil)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleDelivery},
		OrderID: order.ID,
		Status:  enums.OrderStatusCancelled,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleDelivery},
		OrderID: order.ID,
		Status:  enums.OrderStatusShipped,
	})
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("status = %s", updated.Status)
	}

	if changed := f.publisher.byType(enums.EventTypeOrderStatusChanged); len(changed) != 1 {
		t.Fatalf("order_status_changed events = %d", len(changed))
	}
}

func TestUpdateStatusAssignsDeliveryUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 1, nil)
	admin := uuid.New()
	courier := uuid.New()

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:          Actor{UserID: admin, Role: enums.ActorRoleAdmin},
		OrderID:        order.ID,
		Status:         enums.OrderStatusShipped,
		DeliveryUserID: &courier,
	})
	if err != nil {
		t.Fatalf("ship: %v", err)
	}
	if updated.DeliveryUserID == nil || *updated.DeliveryUserID != courier {
		t.Fatal("delivery user not assigned")
	}
	if updated.AssignedByID == nil || *updated.AssignedByID != admin {
		t.Fatal("assigning admin not recorded")
	}
}

func TestCompletedOrderIsTerminal(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 1, nil)
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	ctx := context.Background()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCompleted,
	} {
		if _, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{Actor: admin, OrderID: order.ID, Status: status}); err != nil {
			t.Fatalf("move to %s: %v", status, err)
		}
	}

	_, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{Actor: admin, OrderID: order.ID, Status: enums.OrderStatusPending})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	err = f.svc.Delete(ctx, admin, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCollectItemRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 2, nil)
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	courier := uuid.New()
	ctx := context.Background()

	// Not collectable while pending.
	_, err := f.svc.CollectItem(ctx, CollectItemInput{
		Actor: admin, OrderID: order.ID, ItemID: order.Items[0].ID, Collected: true,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, UpdateStatusInput{
		Actor: admin, OrderID: order.ID, Status: enums.OrderStatusShipped, DeliveryUserID: &courier,
	}); err != nil {
		t.Fatalf("ship: %v", err)
	}

	// A different delivery user may not collect.
	_, err = f.svc.CollectItem(ctx, CollectItemInput{
		Actor:   Actor{UserID: uuid.New(), Role: enums.ActorRoleDelivery},
		OrderID: order.ID, ItemID: order.Items[0].ID, Collected: true,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	// The assigned courier may.
	updated, err := f.svc.CollectItem(ctx, CollectItemInput{
		Actor:   Actor{UserID: courier, Role: enums.ActorRoleDelivery},
		OrderID: order.ID, ItemID: order.Items[0].ID, Collected: true,
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !updated.Items[0].Collected {
		t.Fatal("item not marked collected")
	}
}

func TestDeleteReleasesStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 4, nil)
	if got := f.stockQuantity(t); got != 16 {
		t.Fatalf("stock after create = %d", got)
	}

	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}
	if err := f.svc.Delete(context.Background(), admin, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := f.stockQuantity(t); got != 20 {
		t.Fatalf("stock after delete = %d, want 20", got)
	}

	var count int64
	if err := f.conn.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Fatalf("items = %d, want 0", count)
	}
	if deleted := f.publisher.byType(enums.EventTypeOrderDeleted); len(deleted) != 1 {
		t.Fatalf("order_deleted events = %d", len(deleted))
	}
}

func TestCancelKeepsReservation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := f.createOrder(t, 4, nil)
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	if _, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor: admin, OrderID: order.ID, Status: enums.OrderStatusCancelled,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// Cancel is a status change only; stock returns via delete.
	if got := f.stockQuantity(t); got != 16 {
		t.Fatalf("stock after cancel = %d, want 16", got)
	}
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.createOrder(t, 1, nil)
	f.createOrder(t, 1, []PaymentInput{{Mode: enums.PaymentModeCash, AmountCents: 150000}})
	admin := Actor{UserID: uuid.New(), Role: enums.ActorRoleAdmin}

	if _, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor: admin, OrderID: first.ID, Status: enums.OrderStatusShipped,
	}); err != nil {
		t.Fatalf("ship: %v", err)
	}

	shipped := enums.OrderStatusShipped
	rows, meta, err := f.svc.List(context.Background(), ListFilter{Status: &shipped}, pagination.Params{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || meta.Total != 1 {
		t.Fatalf("rows=%d meta=%+v", len(rows), meta)
	}
	if rows[0].ID != first.ID {
		t.Fatal("wrong order returned")
	}

	paid := enums.PaymentStatusPaid
	rows, _, err = f.svc.List(context.Background(), ListFilter{PaymentStatus: &paid}, pagination.Params{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if len(rows) != 1 || rows[0].PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("paid rows = %+v", rows)
	}
}
