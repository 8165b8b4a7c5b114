package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func seedProduct(t *testing.T, store *Store, stock int32) domain.Product {
	t.Helper()

	product := domain.Product{Name: "Widget", Price: 10, Stock: stock}
	if err := NewProductRepository(store).Create(&product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func TestOrderUnitOfWork_CommitAppliesStagedWrites(t *testing.T) {
	store := NewStore()
	product := seedProduct(t, store, 10)
	uow := NewOrderUnitOfWork(store, nil)

	tx, err := uow.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	staged, err := tx.ProductForUpdate(product.ID)
	if err != nil {
		t.Fatalf("product for update: %v", err)
	}
	staged.Stock -= 3
	if err := tx.StageProducts([]domain.Product{staged}); err != nil {
		t.Fatalf("stage products: %v", err)
	}

	order := domain.Order{
		UserID: 1,
		Status: domain.OrderStatusPending,
		Items:  []domain.OrderItem{{ProductID: product.ID, Quantity: 3, Price: 10}},
	}
	if err := tx.InsertOrder(&order); err != nil {
		t.Fatalf("insert order: %v", err)
	}
	if order.ID == 0 || order.Items[0].ID == 0 {
		t.Fatal("expected assigned ids on insert")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := NewProductRepository(store).Get(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 7 {
		t.Fatalf("expected stock 7 after commit, got %d", got.Stock)
	}

	persisted, err := NewOrderRepository(store).Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if persisted.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", persisted.Status)
	}
}

func TestOrderUnitOfWork_RollbackDiscardsStagedWrites(t *testing.T) {
	store := NewStore()
	product := seedProduct(t, store, 10)
	uow := NewOrderUnitOfWork(store, nil)

	tx, err := uow.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	staged, _ := tx.ProductForUpdate(product.ID)
	staged.Stock = 1
	if err := tx.StageProducts([]domain.Product{staged}); err != nil {
		t.Fatalf("stage products: %v", err)
	}
	order := domain.Order{
		UserID: 1,
		Status: domain.OrderStatusPending,
		Items:  []domain.OrderItem{{ProductID: product.ID, Quantity: 1, Price: 10}},
	}
	if err := tx.InsertOrder(&order); err != nil {
		t.Fatalf("insert order: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	got, _ := NewProductRepository(store).Get(product.ID)
	if got.Stock != 10 {
		t.Fatalf("expected stock untouched after rollback, got %d", got.Stock)
	}
	if _, err := NewOrderRepository(store).Get(order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order discarded, got %v", err)
	}
}

func TestOrderUnitOfWork_RollbackAfterCommitIsNoOp(t *testing.T) {
	store := NewStore()
	product := seedProduct(t, store, 5)
	uow := NewOrderUnitOfWork(store, nil)

	tx, err := uow.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	staged, _ := tx.ProductForUpdate(product.ID)
	staged.Stock = 4
	if err := tx.StageProducts([]domain.Product{staged}); err != nil {
		t.Fatalf("stage products: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback after commit must be no-op: %v", err)
	}

	got, _ := NewProductRepository(store).Get(product.ID)
	if got.Stock != 4 {
		t.Fatalf("rollback after commit must not undo writes, got stock %d", got.Stock)
	}
}

func TestOrderUnitOfWork_OutboxVisibleOnlyAfterCommit(t *testing.T) {
	store := NewStore()
	seedProduct(t, store, 5)
	outbox := NewOutboxRepository()
	uow := NewOrderUnitOfWork(store, outbox)

	tx, err := uow.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.EnqueueOutbox(domain.OutboxMessage{AggregateType: "order", EventType: "order.placed"}); err != nil {
		t.Fatalf("enqueue outbox: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	pending, _ := outbox.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("rolled back event must not reach outbox, got %d", len(pending))
	}

	tx, _ = uow.Begin(context.Background())
	if err := tx.EnqueueOutbox(domain.OutboxMessage{AggregateType: "order", EventType: "order.placed"}); err != nil {
		t.Fatalf("enqueue outbox: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	pending, _ = outbox.PullPending(10)
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox event after commit, got %d", len(pending))
	}
}

func TestOrderUnitOfWork_StageProductsValidation(t *testing.T) {
	store := NewStore()
	product := seedProduct(t, store, 5)
	uow := NewOrderUnitOfWork(store, nil)

	tx, err := uow.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.StageProducts([]domain.Product{{ID: 999, Stock: 1}}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	negative := product
	negative.Stock = -1
	if err := tx.StageProducts([]domain.Product{negative}); !errors.Is(err, domain.ErrProductStockNegative) {
		t.Fatalf("expected ErrProductStockNegative, got %v", err)
	}
}
