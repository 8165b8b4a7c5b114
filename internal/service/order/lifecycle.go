package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
)

// CancelOrder отменяет PENDING-заказ: возвращает зарезервированный сток
// каждой позиции и переводит заказ в CANCELLED одной транзакцией.
// Повторная отмена — ошибка, а не тихий успех: возврат стока должен
// случиться ровно один раз.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCancelDuration(time.Since(start))
		}
	}()

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin cancel tx: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	order, err := tx.OrderForUpdate(orderID)
	if err != nil {
		return fmt.Errorf("order %d: %w", orderID, err)
	}
	if order.Status != domain.OrderStatusPending {
		return fmt.Errorf("order %d is %s: %w", orderID, order.Status, domain.ErrOrderNotPending)
	}

	restored, err := s.restoreStock(tx, order)
	if err != nil {
		return err
	}
	if err := tx.StageProducts(restored); err != nil {
		return fmt.Errorf("%w: stage restored stock: %v", domain.ErrPersistence, err)
	}
	if err := tx.UpdateOrderStatus(orderID, domain.OrderStatusCancelled); err != nil {
		return fmt.Errorf("%w: update order status: %v", domain.ErrPersistence, err)
	}

	order.Status = domain.OrderStatusCancelled
	if err := enqueueOrderEvent(tx, kafka.EventTypeOrderCancelled, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit cancel: %v", domain.ErrPersistence, err)
	}

	s.appendTimeline(orderID, domain.TimelineEventOrderCancelled, "stock restored")
	if s.metrics != nil {
		s.metrics.RecordOrderCancelled()
	}
	s.logger.WithField("order_id", orderID).Info("order cancelled")
	return nil
}

// restoreStock собирает компенсирующие снимки стока по позициям заказа.
// Дубли товара в позициях аккумулируются в один снимок.
func (s *Service) restoreStock(tx domain.OrderTx, order domain.Order) ([]domain.Product, error) {
	staged := make(map[int64]domain.Product, len(order.Items))
	productIDs := make([]int64, 0, len(order.Items))

	for _, item := range order.Items {
		product, ok := staged[item.ProductID]
		if !ok {
			var err error
			product, err = tx.ProductForUpdate(item.ProductID)
			if errors.Is(err, domain.ErrProductNotFound) {
				// Товар мог быть удалён из каталога после оформления;
				// возвращать сток некуда.
				s.logger.WithFields(log.Fields{
					"order_id":   order.ID,
					"product_id": item.ProductID,
				}).Warn("product missing on cancel, skipping stock restore")
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: read product %d: %v", domain.ErrPersistence, item.ProductID, err)
			}
			productIDs = append(productIDs, product.ID)
		}
		product.Stock += item.Quantity
		staged[product.ID] = product
	}

	restored := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		restored = append(restored, staged[id])
	}
	return restored, nil
}

// MarkDelivered переводит PENDING-заказ в DELIVERED. Вызывается процессом
// исполнения; после доставки товар становится доступен для отзывов.
func (s *Service) MarkDelivered(ctx context.Context, orderID int64) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin deliver tx: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	order, err := tx.OrderForUpdate(orderID)
	if err != nil {
		return fmt.Errorf("order %d: %w", orderID, err)
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusDelivered) {
		return fmt.Errorf("order %d is %s: %w", orderID, order.Status, domain.ErrTransitionInvalid)
	}

	if err := tx.UpdateOrderStatus(orderID, domain.OrderStatusDelivered); err != nil {
		return fmt.Errorf("%w: update order status: %v", domain.ErrPersistence, err)
	}

	order.Status = domain.OrderStatusDelivered
	if err := enqueueOrderEvent(tx, kafka.EventTypeOrderDelivered, order); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit deliver: %v", domain.ErrPersistence, err)
	}

	s.appendTimeline(orderID, domain.TimelineEventOrderDelivered, "")
	if s.metrics != nil {
		s.metrics.RecordOrderDelivered()
	}
	s.logger.WithField("order_id", orderID).Info("order delivered")
	return nil
}

// HasUserPurchasedProduct отвечает, есть ли у пользователя доставленный заказ
// с указанным товаром. Используется как предикат допуска к отзывам.
func (s *Service) HasUserPurchasedProduct(userID, productID int64) (bool, error) {
	return s.orders.ExistsDeliveredPurchase(userID, productID)
}
