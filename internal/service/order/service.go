package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

// Service реализует поток оформления и жизненный цикл заказа:
// сборка (валидация + резервирование) → атомарная фиксация → отмена/доставка.
type Service struct {
	uow      domain.OrderUnitOfWork
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewService конструирует сервис заказов с метриками.
func NewService(
	uow domain.OrderUnitOfWork,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	svc := newService(uow, orders, timeline, logger)
	svc.metrics = metrics.NewOrderMetrics()
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	uow domain.OrderUnitOfWork,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	return newService(uow, orders, timeline, logger)
}

func newService(
	uow domain.OrderUnitOfWork,
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		uow:      uow,
		orders:   orders,
		timeline: timeline,
		logger:   logger,
	}
}

// PlaceOrderItem — запрошенная позиция заказа.
type PlaceOrderItem struct {
	ProductID int64
	Quantity  int32
}

// PlaceOrderRequest — входные данные оформления заказа.
type PlaceOrderRequest struct {
	UserID int64
	Items  []PlaceOrderItem
}

// PlaceOrder оформляет заказ: проверяет пользователя и товары, резервирует
// сток и фиксирует агрегат одной транзакцией. При любой ошибке ни сток,
// ни заказ не записываются.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordOrderInFlightStarted()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOrderInFlightFinished()
			s.metrics.RecordPlaceDuration(time.Since(start))
		}
	}()

	if err := validatePlaceOrderRequest(req); err != nil {
		s.recordRejection(err)
		return domain.Order{}, err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		s.recordRejection(domain.ErrPersistence)
		return domain.Order{}, fmt.Errorf("%w: begin order tx: %v", domain.ErrPersistence, err)
	}
	// Rollback после успешного Commit — no-op.
	defer func() { _ = tx.Rollback() }()

	assembled, err := assemble(tx, req)
	if err != nil {
		s.recordRejection(err)
		s.logger.WithError(err).WithField("user_id", req.UserID).Warn("order assembly rejected")
		return domain.Order{}, err
	}

	placed, err := commitAssembled(tx, assembled)
	if err != nil {
		s.recordRejection(err)
		s.logger.WithError(err).WithField("user_id", req.UserID).Error("order commit failed")
		return domain.Order{}, err
	}

	s.appendTimeline(placed.ID, domain.TimelineEventOrderPlaced, "")
	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(len(placed.Items))
	}
	s.logger.WithFields(log.Fields{
		"order_id": placed.ID,
		"user_id":  placed.UserID,
		"items":    len(placed.Items),
		"total":    placed.TotalPrice(),
	}).Info("order placed")

	return placed, nil
}

// validatePlaceOrderRequest отклоняет заведомо некорректные запросы
// до открытия транзакции.
func validatePlaceOrderRequest(req PlaceOrderRequest) error {
	if req.UserID <= 0 {
		return domain.ErrUserIDRequired
	}
	if len(req.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return domain.ErrProductIDRequired
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrItemQtyInvalid)
		}
	}
	return nil
}

func (s *Service) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case domain.IsNotFound(err):
		s.metrics.RecordOrderRejected(metrics.RejectReasonNotFound)
	case errors.Is(err, domain.ErrInsufficientStock):
		s.metrics.RecordOrderRejected(metrics.RejectReasonInsufficientStock)
	case errors.Is(err, domain.ErrPersistence):
		s.metrics.RecordOrderRejected(metrics.RejectReasonPersistence)
	default:
		s.metrics.RecordOrderRejected(metrics.RejectReasonValidation)
	}
}

func (s *Service) appendTimeline(orderID int64, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	err := s.timeline.Append(domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
	}
}

// Timeline возвращает события жизненного цикла заказа.
func (s *Service) Timeline(orderID int64) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(orderID)
}

// GetOrder возвращает заказ с позициями.
func (s *Service) GetOrder(id int64) (domain.Order, error) {
	return s.orders.Get(id)
}

// ListOrders возвращает все заказы от новых к старым.
func (s *Service) ListOrders() ([]domain.Order, error) {
	return s.orders.List()
}

// ListOrdersByUser возвращает заказы пользователя.
func (s *Service) ListOrdersByUser(userID int64) ([]domain.Order, error) {
	return s.orders.ListByUser(userID)
}
