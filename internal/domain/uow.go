package domain

import "context"

// OrderUnitOfWork открывает транзакционную единицу работы для потока заказов.
// Две фазы оформления (сборка и фиксация) и отмена выполняются внутри одного
// OrderTx: проверка стока и его списание сериализуются хранилищем,
// а не мьютексами приложения.
type OrderUnitOfWork interface {
	// Begin открывает транзакцию. Контекст ограничивает её время жизни.
	Begin(ctx context.Context) (OrderTx, error)
}

// OrderTx — транзакция оформления/отмены заказа с явными фазами
// begin → stage → commit/rollback. Пока Commit не вызван, ни одна запись
// не видна снаружи; Rollback возвращает сток к значениям до начала.
type OrderTx interface {
	// User возвращает пользователя или ErrUserNotFound.
	User(id int64) (User, error)
	// ProductForUpdate читает товар с блокировкой строки до конца транзакции.
	// Возвращает ErrProductNotFound, если товара нет.
	ProductForUpdate(id int64) (Product, error)
	// OrderForUpdate читает заказ с позициями, блокируя его строку.
	OrderForUpdate(id int64) (Order, error)
	// StageProducts записывает подготовленные снимки стока одним батчем.
	StageProducts(products []Product) error
	// InsertOrder сохраняет заказ с позициями и присваивает идентификаторы.
	InsertOrder(order *Order) error
	// UpdateOrderStatus переводит заказ в новый статус.
	UpdateOrderStatus(orderID int64, status OrderStatus) error
	// EnqueueOutbox добавляет событие в transactional outbox той же транзакцией.
	EnqueueOutbox(msg OutboxMessage) error
	// Commit фиксирует все накопленные записи атомарно.
	Commit() error
	// Rollback отбрасывает незафиксированные записи. Повторный вызов после
	// Commit безопасен и ничего не делает.
	Rollback() error
}
