package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/health"
	authsvc "github.com/vladislavdragonenkov/ecom/internal/service/auth"
	catalogsvc "github.com/vladislavdragonenkov/ecom/internal/service/catalog"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
	reviewsvc "github.com/vladislavdragonenkov/ecom/internal/service/review"
	usersvc "github.com/vladislavdragonenkov/ecom/internal/service/user"
)

// Лимиты токен-бакета на клиентский IP.
const (
	loginRateLimit   = 10
	generalRateLimit = 100
	rateLimitWindow  = time.Minute

	requestTimeout = 15 * time.Second
)

// Server собирает REST API поверх доменных сервисов.
type Server struct {
	orders  *ordersvc.Service
	catalog *catalogsvc.Service
	users   *usersvc.Service
	auth    *authsvc.Service
	reviews *reviewsvc.Service

	idempotency    domain.IdempotencyRepository
	idempotencyTTL time.Duration

	health *health.Handler
	logger *log.Entry
}

// Deps — зависимости HTTP-сервера. Idempotency и Health опциональны.
type Deps struct {
	Orders  *ordersvc.Service
	Catalog *catalogsvc.Service
	Users   *usersvc.Service
	Auth    *authsvc.Service
	Reviews *reviewsvc.Service

	Idempotency    domain.IdempotencyRepository
	IdempotencyTTL time.Duration

	Health *health.Handler
	Logger *log.Entry
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http-server")
	}
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Server{
		orders:         deps.Orders,
		catalog:        deps.Catalog,
		users:          deps.Users,
		auth:           deps.Auth,
		reviews:        deps.Reviews,
		idempotency:    deps.Idempotency,
		idempotencyTTL: ttl,
		health:         deps.Health,
		logger:         logger,
	}
}

// Router строит маршрутизатор API.
// Чтение каталога доступно без токена; заказы и отзывы требуют аутентификации,
// административные операции — роль ADMIN.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	if s.health != nil {
		r.Method(http.MethodGet, "/healthz", s.health)
		r.Get("/readyz", s.health.ReadinessHandler)
	}
	r.Get("/livez", health.LivenessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(generalRateLimit, rateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.With(httprate.LimitByIP(loginRateLimit, rateLimitWindow)).
				Post("/login", s.handleLogin)
		})

		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/{id}", s.handleGetCategory)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/products/{productID}/reviews", s.handleListReviews)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/orders", s.handlePlaceOrder)
			r.Get("/orders/{id}", s.handleGetOrder)
			r.Get("/orders/user/{userID}", s.handleListUserOrders)
			r.Post("/orders/{id}/cancel", s.handleCancelOrder)

			r.Post("/products/{productID}/reviews", s.handleCreateReview)
			r.Delete("/reviews/{id}", s.handleDeleteReview)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/orders", s.handleListOrders)
				r.Post("/orders/{id}/deliver", s.handleDeliverOrder)
				r.Get("/orders/{id}/timeline", s.handleOrderTimeline)

				r.Get("/users", s.handleListUsers)
				r.Get("/users/{id}", s.handleGetUser)
				r.Put("/users/{id}", s.handleUpdateUser)
				r.Delete("/users/{id}", s.handleDeleteUser)

				r.Post("/categories", s.handleCreateCategory)
				r.Put("/categories/{id}", s.handleUpdateCategory)
				r.Delete("/categories/{id}", s.handleDeleteCategory)

				r.Post("/products", s.handleCreateProduct)
				r.Put("/products/{id}", s.handleUpdateProduct)
				r.Delete("/products/{id}", s.handleDeleteProduct)
			})
		})
	})

	return r
}
