package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток зарезервирован, ожидаем исполнения.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusDelivered — заказ доставлен покупателю (терминальный статус).
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён до доставки, резерв возвращён (терминальный статус).
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid проверяет, что статус относится к известному набору.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Переходы разрешены только из PENDING; DELIVERED и CANCELLED дальнейших переходов не принимают.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	return next == OrderStatusDelivered || next == OrderStatusCancelled
}

// OrderItem представляет одну позицию заказа.
// Позиция принадлежит ровно одному заказу и фиксируется при его создании.
type OrderItem struct {
	// ID позиции присваивается хранилищем при сохранении заказа.
	ID int64
	// ProductID — слабая ссылка на товар (для отображения и возврата стока).
	ProductID int64
	// Quantity — количество единиц товара, строго положительное.
	Quantity int32
	// Price — снимок цены товара на момент оформления заказа.
	// После создания заказа цена никогда не перечитывается из каталога.
	Price float64
}

// Order агрегирует заказ и его позиции как единую границу консистентности.
// Состав позиций после сохранения не меняется: отмена — это смена статуса
// плюс компенсирующий возврат стока, а не мутация позиций.
type Order struct {
	ID        int64
	UserID    int64
	Status    OrderStatus
	OrderDate time.Time
	Items     []OrderItem
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID <= 0 {
		errs = append(errs, ErrUserIDRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrOrderStatusInvalid)
	}

	for _, item := range o.Items {
		if item.ProductID <= 0 {
			errs = append(errs, ErrProductIDRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.Price < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// TotalPrice возвращает сумму заказа по зафиксированным ценам позиций.
func (o *Order) TotalPrice() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}
