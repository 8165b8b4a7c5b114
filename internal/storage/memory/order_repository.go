package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// orderRepositoryInMemory — read-сторона заказов поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id int64) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает все заказы от новых к старым.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.collect(func(domain.Order) bool { return true }), nil
}

// ListByUser возвращает заказы пользователя от новых к старым.
func (r *orderRepositoryInMemory) ListByUser(userID int64) ([]domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.collect(func(o domain.Order) bool { return o.UserID == userID }), nil
}

// ExistsDeliveredPurchase отвечает, покупал ли пользователь товар (статус DELIVERED).
func (r *orderRepositoryInMemory) ExistsDeliveredPurchase(userID, productID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, order := range r.store.orders {
		if order.UserID != userID || order.Status != domain.OrderStatusDelivered {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// collect вызывается под удержанным store.mu.
func (r *orderRepositoryInMemory) collect(match func(domain.Order) bool) []domain.Order {
	result := make([]domain.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if match(order) {
			result = append(result, cloneOrder(order))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.After(result[j].OrderDate)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
