package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

type fixture struct {
	store    *memory.Store
	products domain.ProductRepository
	orders   domain.OrderRepository
	outbox   domain.OutboxRepository
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	f := &fixture{
		store:    store,
		products: memory.NewProductRepository(store),
		orders:   memory.NewOrderRepository(store),
		outbox:   outbox,
	}
	f.service = NewServiceWithoutMetrics(
		memory.NewOrderUnitOfWork(store, outbox),
		f.orders,
		memory.NewTimelineRepository(),
		nil,
	)
	return f
}

func (f *fixture) seedUser(t *testing.T) int64 {
	t.Helper()

	user := domain.User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
	}
	if err := memory.NewUserRepository(f.store).Create(&user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func (f *fixture) seedProduct(t *testing.T, name string, price float64, stock int32) int64 {
	t.Helper()

	product := domain.Product{Name: name, Price: price, Stock: stock}
	if err := f.products.Create(&product); err != nil {
		t.Fatalf("seed product %q: %v", name, err)
	}
	return product.ID
}

func (f *fixture) productStock(t *testing.T, id int64) int32 {
	t.Helper()

	product, err := f.products.Get(id)
	if err != nil {
		t.Fatalf("get product %d: %v", id, err)
	}
	return product.Stock
}

func TestPlaceOrderReservesStockAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 99.99, 10)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if placed.Status != domain.OrderStatusPending {
		t.Errorf("status = %s, want %s", placed.Status, domain.OrderStatusPending)
	}
	if placed.ID == 0 {
		t.Error("expected assigned order ID")
	}
	if len(placed.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(placed.Items))
	}
	if placed.Items[0].Price != 99.99 {
		t.Errorf("item price = %v, want 99.99", placed.Items[0].Price)
	}
	if got := f.productStock(t, productID); got != 8 {
		t.Errorf("stock after placement = %d, want 8", got)
	}

	stored, err := f.orders.Get(placed.ID)
	if err != nil {
		t.Fatalf("fetch stored order: %v", err)
	}
	if stored.Items[0].Quantity != 2 {
		t.Errorf("stored quantity = %d, want 2", stored.Items[0].Quantity)
	}

	events, err := f.service.Timeline(placed.ID)
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(events) != 1 || events[0].Type != domain.TimelineEventOrderPlaced {
		t.Errorf("timeline = %+v, want single placed event", events)
	}
}

// Цена товара меняется после оформления; в заказе остаётся цена на момент
// покупки.
func TestPlaceOrderPriceSnapshotSurvivesCatalogUpdate(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 50.00, 5)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	product, err := f.products.Get(productID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	product.Price = 75.00
	if err := f.products.Update(product); err != nil {
		t.Fatalf("update product: %v", err)
	}

	stored, err := f.orders.Get(placed.ID)
	if err != nil {
		t.Fatalf("fetch stored order: %v", err)
	}
	if stored.Items[0].Price != 50.00 {
		t.Errorf("snapshot price = %v, want 50.00", stored.Items[0].Price)
	}
}

func TestPlaceOrderInsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 10)

	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 20}},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	if got := f.productStock(t, productID); got != 10 {
		t.Errorf("stock after rejection = %d, want 10", got)
	}
	orders, err := f.orders.List()
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("orders persisted = %d, want 0", len(orders))
	}
}

// Несколько позиций одного товара в одном заказе: резервирование видит
// уже уменьшенный остаток.
func TestPlaceOrderRepeatedItemsShareReservation(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 5.00, 5)

	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items: []PlaceOrderItem{
			{ProductID: productID, Quantity: 3},
			{ProductID: productID, Quantity: 3},
		},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := f.productStock(t, productID); got != 5 {
		t.Errorf("stock = %d, want 5", got)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 5.00, 5)

	tests := []struct {
		name    string
		req     PlaceOrderRequest
		wantErr error
	}{
		{
			name:    "missing user",
			req:     PlaceOrderRequest{Items: []PlaceOrderItem{{ProductID: productID, Quantity: 1}}},
			wantErr: domain.ErrUserIDRequired,
		},
		{
			name:    "empty items",
			req:     PlaceOrderRequest{UserID: userID},
			wantErr: domain.ErrItemsRequired,
		},
		{
			name: "zero quantity",
			req: PlaceOrderRequest{
				UserID: userID,
				Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 0}},
			},
			wantErr: domain.ErrItemQtyInvalid,
		},
		{
			name: "unknown user",
			req: PlaceOrderRequest{
				UserID: 9999,
				Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "unknown product",
			req: PlaceOrderRequest{
				UserID: userID,
				Items:  []PlaceOrderItem{{ProductID: 9999, Quantity: 1}},
			},
			wantErr: domain.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.PlaceOrder(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := f.productStock(t, productID); got != 5 {
		t.Errorf("stock touched by rejected requests: %d, want 5", got)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 7)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if got := f.productStock(t, productID); got != 5 {
		t.Fatalf("stock after placement = %d, want 5", got)
	}

	if err := f.service.CancelOrder(context.Background(), placed.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	if got := f.productStock(t, productID); got != 7 {
		t.Errorf("stock after cancel = %d, want 7", got)
	}
	cancelled, err := f.orders.Get(placed.ID)
	if err != nil {
		t.Fatalf("fetch order: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, domain.OrderStatusCancelled)
	}
}

func TestCancelOrderTwiceRestoresStockOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 7)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := f.service.CancelOrder(context.Background(), placed.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	err = f.service.CancelOrder(context.Background(), placed.ID)
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("second cancel err = %v, want ErrOrderNotPending", err)
	}
	if got := f.productStock(t, productID); got != 7 {
		t.Errorf("stock after double cancel = %d, want 7", got)
	}
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 3)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := f.service.MarkDelivered(context.Background(), placed.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	err = f.service.CancelOrder(context.Background(), placed.ID)
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("cancel delivered err = %v, want ErrOrderNotPending", err)
	}
	if got := f.productStock(t, productID); got != 2 {
		t.Errorf("stock = %d, want 2 (delivered items stay consumed)", got)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	f := newFixture(t)

	err := f.service.CancelOrder(context.Background(), 42)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}

func TestMarkDeliveredTransitions(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 3)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if err := f.service.MarkDelivered(context.Background(), placed.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	delivered, err := f.orders.Get(placed.ID)
	if err != nil {
		t.Fatalf("fetch order: %v", err)
	}
	if delivered.Status != domain.OrderStatusDelivered {
		t.Errorf("status = %s, want %s", delivered.Status, domain.OrderStatusDelivered)
	}

	err = f.service.MarkDelivered(context.Background(), placed.ID)
	if !errors.Is(err, domain.ErrTransitionInvalid) {
		t.Errorf("repeat deliver err = %v, want ErrTransitionInvalid", err)
	}
}

func TestHasUserPurchasedProduct(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 3)

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	purchased, err := f.service.HasUserPurchasedProduct(userID, productID)
	if err != nil {
		t.Fatalf("HasUserPurchasedProduct: %v", err)
	}
	if purchased {
		t.Error("pending order must not count as purchase")
	}

	if err := f.service.MarkDelivered(context.Background(), placed.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	purchased, err = f.service.HasUserPurchasedProduct(userID, productID)
	if err != nil {
		t.Fatalf("HasUserPurchasedProduct: %v", err)
	}
	if !purchased {
		t.Error("delivered order must count as purchase")
	}
}

// Два конкурирующих оформления последней единицы: ровно одно проходит.
func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
				UserID: userID,
				Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Errorf("succeeded = %d, rejected = %d; want 1 and 1", succeeded, rejected)
	}
	if got := f.productStock(t, productID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestPlaceOrderOutboxVisibleAfterCommit(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t)
	productID := f.seedProduct(t, "Widget", 10.00, 5)

	pending, err := f.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("outbox not empty before placement: %d", len(pending))
	}

	placed, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: userID,
		Items:  []PlaceOrderItem{{ProductID: productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	pending, err = f.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("outbox messages = %d, want 1", len(pending))
	}
	msg := pending[0]
	if msg.EventType != "order.placed" {
		t.Errorf("event type = %q, want order.placed", msg.EventType)
	}
	if msg.AggregateID != fmt.Sprintf("%d", placed.ID) {
		t.Errorf("aggregate id = %q, want %d", msg.AggregateID, placed.ID)
	}

	if err := f.service.CancelOrder(context.Background(), placed.ID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	pending, err = f.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("outbox messages after cancel = %d, want 2", len(pending))
	}
	if pending[1].EventType != "order.cancelled" {
		t.Errorf("second event type = %q, want order.cancelled", pending[1].EventType)
	}
}

// Ошибка на фиксации не оставляет ни заказа, ни списанного стока.
func TestPlaceOrderPersistenceFailureRollsBack(t *testing.T) {
	store := memory.NewStore()
	products := memory.NewProductRepository(store)
	orders := memory.NewOrderRepository(store)

	user := domain.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	if err := memory.NewUserRepository(store).Create(&user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	product := domain.Product{Name: "Widget", Price: 10.00, Stock: 4}
	if err := products.Create(&product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	uow := &failingUnitOfWork{
		inner:        memory.NewOrderUnitOfWork(store, memory.NewOutboxRepository()),
		failOnInsert: true,
	}
	service := NewServiceWithoutMetrics(uow, orders, nil, nil)

	_, err := service.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: user.ID,
		Items:  []PlaceOrderItem{{ProductID: product.ID, Quantity: 2}},
	})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	got, err := products.Get(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 4 {
		t.Errorf("stock after failed commit = %d, want 4", got.Stock)
	}
	remaining, err := orders.List()
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("orders persisted = %d, want 0", len(remaining))
	}
}

type failingUnitOfWork struct {
	inner        domain.OrderUnitOfWork
	failOnInsert bool
}

func (u *failingUnitOfWork) Begin(ctx context.Context) (domain.OrderTx, error) {
	tx, err := u.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{OrderTx: tx, failOnInsert: u.failOnInsert}, nil
}

type failingTx struct {
	domain.OrderTx
	failOnInsert bool
}

func (tx *failingTx) InsertOrder(order *domain.Order) error {
	if tx.failOnInsert {
		return errors.New("simulated storage failure")
	}
	return tx.OrderTx.InsertOrder(order)
}
