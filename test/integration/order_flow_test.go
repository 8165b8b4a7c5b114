package integration

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
	reviewsvc "github.com/vladislavdragonenkov/ecom/internal/service/review"
	usersvc "github.com/vladislavdragonenkov/ecom/internal/service/user"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

// OrderFlowTestSuite проверяет сквозной путь покупки:
// регистрация → оформление → доставка → отзыв, плюс компенсирующую отмену.
type OrderFlowTestSuite struct {
	suite.Suite

	store    *memory.Store
	products domain.ProductRepository
	outbox   domain.OutboxRepository

	orders  *ordersvc.Service
	users   *usersvc.Service
	reviews *reviewsvc.Service

	buyer   domain.User
	product domain.Product
}

func (s *OrderFlowTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	s.store = memory.NewStore()
	s.products = memory.NewProductRepository(s.store)
	s.outbox = memory.NewOutboxRepository()

	s.orders = ordersvc.NewServiceWithoutMetrics(
		memory.NewOrderUnitOfWork(s.store, s.outbox),
		memory.NewOrderRepository(s.store),
		memory.NewTimelineRepository(),
		logger,
	)
	s.users = usersvc.NewService(memory.NewUserRepository(s.store), logger)
	s.reviews = reviewsvc.NewService(
		memory.NewReviewRepository(s.store),
		s.products,
		s.orders,
		nil,
		logger,
	)

	buyer, err := s.users.Register(usersvc.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(s.T(), err)
	s.buyer = buyer

	s.product = domain.Product{Name: "Widget", Description: "flow fixture", Price: 49.99, Stock: 10}
	require.NoError(s.T(), s.products.Create(&s.product))
}

func (s *OrderFlowTestSuite) placeOrder(qty int32) domain.Order {
	order, err := s.orders.PlaceOrder(context.Background(), ordersvc.PlaceOrderRequest{
		UserID: s.buyer.ID,
		Items:  []ordersvc.PlaceOrderItem{{ProductID: s.product.ID, Quantity: qty}},
	})
	require.NoError(s.T(), err)
	return order
}

func (s *OrderFlowTestSuite) TestPurchaseToReview() {
	order := s.placeOrder(2)
	s.Equal(domain.OrderStatusPending, order.Status)

	// До доставки отзыв запрещён.
	_, err := s.reviews.Create(reviewsvc.CreateRequest{
		UserID:    s.buyer.ID,
		ProductID: s.product.ID,
		Rating:    5,
		Content:   "arrived quickly, works as advertised",
	})
	s.ErrorIs(err, domain.ErrNotPurchased)

	s.Require().NoError(s.orders.MarkDelivered(context.Background(), order.ID))

	review, err := s.reviews.Create(reviewsvc.CreateRequest{
		UserID:    s.buyer.ID,
		ProductID: s.product.ID,
		Rating:    5,
		Content:   "arrived quickly, works as advertised",
	})
	s.Require().NoError(err)
	s.Equal(int32(5), review.Rating)

	product, err := s.products.Get(s.product.ID)
	s.Require().NoError(err)
	s.InDelta(5.0, product.AverageRating, 1e-9)
	s.Equal(int32(1), product.ReviewCount)
}

func (s *OrderFlowTestSuite) TestDeliveredOrderCannotBeCancelled() {
	order := s.placeOrder(1)
	s.Require().NoError(s.orders.MarkDelivered(context.Background(), order.ID))

	err := s.orders.CancelOrder(context.Background(), order.ID)
	s.ErrorIs(err, domain.ErrOrderNotPending)

	// Сток доставленного заказа не возвращается.
	product, _ := s.products.Get(s.product.ID)
	s.Equal(int32(9), product.Stock)
}

func (s *OrderFlowTestSuite) TestCancelRestoresStockAndEmitsEvents() {
	order := s.placeOrder(3)

	product, _ := s.products.Get(s.product.ID)
	s.Equal(int32(7), product.Stock)

	s.Require().NoError(s.orders.CancelOrder(context.Background(), order.ID))

	product, _ = s.products.Get(s.product.ID)
	s.Equal(int32(10), product.Stock)

	pending, err := s.outbox.PullPending(10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal("order.placed", pending[0].EventType)
	s.Equal("order.cancelled", pending[1].EventType)
}

func TestOrderFlowTestSuite(t *testing.T) {
	suite.Run(t, new(OrderFlowTestSuite))
}
