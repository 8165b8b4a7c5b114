package order

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
)

// commitAssembled фиксирует собранный заказ: батч снимков стока, затем заказ
// с позициями, затем outbox-событие — всё внутри одной транзакции.
// Любой сбой откатывает транзакцию целиком; сток остаётся прежним.
func commitAssembled(tx domain.OrderTx, assembled *assembledOrder) (domain.Order, error) {
	if err := tx.StageProducts(assembled.products); err != nil {
		return domain.Order{}, fmt.Errorf("%w: stage stock batch: %v", domain.ErrPersistence, err)
	}

	if err := tx.InsertOrder(&assembled.order); err != nil {
		return domain.Order{}, fmt.Errorf("%w: insert order: %v", domain.ErrPersistence, err)
	}

	if err := enqueueOrderEvent(tx, kafka.EventTypeOrderPlaced, assembled.order); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("%w: commit order: %v", domain.ErrPersistence, err)
	}

	return assembled.order, nil
}

// enqueueOrderEvent добавляет событие жизненного цикла заказа в transactional
// outbox той же транзакцией, что и доменные записи.
func enqueueOrderEvent(tx domain.OrderTx, eventType kafka.EventType, order domain.Order) error {
	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), order.TotalPrice(), nil)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal order event: %v", domain.ErrPersistence, err)
	}

	msg := domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
	}
	if err := tx.EnqueueOutbox(msg); err != nil {
		return fmt.Errorf("%w: enqueue outbox: %v", domain.ErrPersistence, err)
	}
	return nil
}
