package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderPlaced    EventType = "order.placed"
	EventTypeOrderCancelled EventType = "order.cancelled"
	EventTypeOrderDelivered EventType = "order.delivered"

	// Catalog события
	EventTypeProductOutOfStock EventType = "product.out_of_stock"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "ecom.order.events"
	TopicDeadLetterQueue = "ecom.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие жизненного цикла заказа.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   int64                  `json:"order_id"`
	UserID    int64                  `json:"user_id"`
	Status    string                 `json:"status"`
	Total     float64                `json:"total"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, userID int64, status string, total float64, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		UserID:    userID,
		Status:    status,
		Total:     total,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
