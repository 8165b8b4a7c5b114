package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Store — общее in-memory состояние магазина для локальной разработки и тестов.
// Все репозитории и unit-of-work этого пакета работают поверх одного Store,
// чтобы транзакция заказа видела те же данные, что и CRUD-операции.
type Store struct {
	// mu сериализует любую работу с состоянием. Открытая транзакция заказа
	// держит mu от Begin до Commit/Rollback, имитируя блокировку строк.
	mu sync.Mutex

	users      map[int64]domain.User
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	orders     map[int64]domain.Order
	reviews    map[int64]domain.Review

	nextUserID     int64
	nextCategoryID int64
	nextProductID  int64
	nextOrderID    int64
	nextItemID     int64
	nextReviewID   int64
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]domain.User),
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		orders:     make(map[int64]domain.Order),
		reviews:    make(map[int64]domain.Review),
	}
}

// cloneOrder возвращает глубокую копию заказа, чтобы избежать мутаций извне.
func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
