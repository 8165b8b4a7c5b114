package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// orderUnitOfWork — in-memory реализация OrderUnitOfWork.
// Begin захватывает мьютекс Store и держит его до Commit/Rollback: открытая
// транзакция монопольно владеет состоянием, как строки под FOR UPDATE в Postgres.
type orderUnitOfWork struct {
	store  *Store
	outbox domain.OutboxRepository
}

// NewOrderUnitOfWork возвращает in-memory unit-of-work потока заказов.
// outbox может быть nil — тогда события не накапливаются.
func NewOrderUnitOfWork(store *Store, outbox domain.OutboxRepository) domain.OrderUnitOfWork {
	return &orderUnitOfWork{store: store, outbox: outbox}
}

// Begin блокирует хранилище и открывает транзакцию.
func (u *orderUnitOfWork) Begin(_ context.Context) (domain.OrderTx, error) {
	u.store.mu.Lock()
	return &orderTx{
		store:          u.store,
		outbox:         u.outbox,
		stagedProducts: make(map[int64]domain.Product),
		stagedStatus:   make(map[int64]domain.OrderStatus),
	}, nil
}

// orderTx накапливает записи и применяет их только на Commit.
// До Commit ни одна запись не видна; Rollback отбрасывает всё.
type orderTx struct {
	store  *Store
	outbox domain.OutboxRepository

	stagedProducts map[int64]domain.Product
	stagedOrders   []domain.Order
	stagedStatus   map[int64]domain.OrderStatus
	stagedOutbox   []domain.OutboxMessage

	finished bool
}

func (tx *orderTx) User(id int64) (domain.User, error) {
	user, ok := tx.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (tx *orderTx) ProductForUpdate(id int64) (domain.Product, error) {
	if staged, ok := tx.stagedProducts[id]; ok {
		return staged, nil
	}
	product, ok := tx.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (tx *orderTx) OrderForUpdate(id int64) (domain.Order, error) {
	order, ok := tx.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if status, ok := tx.stagedStatus[id]; ok {
		order.Status = status
	}
	return cloneOrder(order), nil
}

// StageProducts откладывает запись снимков стока до Commit.
func (tx *orderTx) StageProducts(products []domain.Product) error {
	for _, product := range products {
		if _, ok := tx.store.products[product.ID]; !ok {
			return domain.ErrProductNotFound
		}
		if product.Stock < 0 {
			return domain.ErrProductStockNegative
		}
		tx.stagedProducts[product.ID] = product
	}
	return nil
}

// InsertOrder присваивает идентификаторы и откладывает сохранение до Commit.
func (tx *orderTx) InsertOrder(order *domain.Order) error {
	tx.store.nextOrderID++
	order.ID = tx.store.nextOrderID
	for i := range order.Items {
		tx.store.nextItemID++
		order.Items[i].ID = tx.store.nextItemID
	}
	tx.stagedOrders = append(tx.stagedOrders, cloneOrder(*order))
	return nil
}

func (tx *orderTx) UpdateOrderStatus(orderID int64, status domain.OrderStatus) error {
	if _, ok := tx.store.orders[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	tx.stagedStatus[orderID] = status
	return nil
}

func (tx *orderTx) EnqueueOutbox(msg domain.OutboxMessage) error {
	tx.stagedOutbox = append(tx.stagedOutbox, msg)
	return nil
}

// Commit применяет все накопленные записи и освобождает хранилище.
func (tx *orderTx) Commit() error {
	if tx.finished {
		return domain.ErrPersistence
	}
	tx.finished = true

	now := time.Now().UTC()
	for id, product := range tx.stagedProducts {
		product.UpdatedAt = now
		tx.store.products[id] = product
	}
	for _, order := range tx.stagedOrders {
		tx.store.orders[order.ID] = order
	}
	for id, status := range tx.stagedStatus {
		order := tx.store.orders[id]
		order.Status = status
		tx.store.orders[id] = order
	}

	tx.store.mu.Unlock()

	// Outbox-репозиторий синхронизирован собственным мьютексом.
	if tx.outbox != nil {
		for _, msg := range tx.stagedOutbox {
			if _, err := tx.outbox.Enqueue(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Rollback отбрасывает накопленные записи. После Commit — no-op.
func (tx *orderTx) Rollback() error {
	if tx.finished {
		return nil
	}
	tx.finished = true
	tx.store.mu.Unlock()
	return nil
}

var _ domain.OrderTx = (*orderTx)(nil)
