package review

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/cache"
	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// PurchaseChecker отвечает, получил ли пользователь товар.
type PurchaseChecker interface {
	HasUserPurchasedProduct(userID, productID int64) (bool, error)
}

// Service управляет отзывами: публиковать может только покупатель
// доставленного заказа, не более одного отзыва на товар.
type Service struct {
	reviews   domain.ReviewRepository
	products  domain.ProductRepository
	purchases PurchaseChecker
	cache     *cache.ProductCache
	logger    *log.Entry
}

// NewService создаёт сервис отзывов. cache может быть nil.
func NewService(
	reviews domain.ReviewRepository,
	products domain.ProductRepository,
	purchases PurchaseChecker,
	productCache *cache.ProductCache,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "review-service")
	}
	return &Service{
		reviews:   reviews,
		products:  products,
		purchases: purchases,
		cache:     productCache,
		logger:    logger,
	}
}

// CreateRequest — входные данные публикации отзыва.
type CreateRequest struct {
	UserID    int64
	ProductID int64
	Rating    int32
	Content   string
}

// Create публикует отзыв и пересчитывает агрегаты рейтинга товара.
func (s *Service) Create(req CreateRequest) (domain.Review, error) {
	review := domain.Review{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Content:   req.Content,
	}
	if errs := review.Validate(); len(errs) > 0 {
		return domain.Review{}, errs[0]
	}

	if _, err := s.products.Get(req.ProductID); err != nil {
		return domain.Review{}, err
	}

	purchased, err := s.purchases.HasUserPurchasedProduct(req.UserID, req.ProductID)
	if err != nil {
		return domain.Review{}, err
	}
	if !purchased {
		return domain.Review{}, domain.ErrNotPurchased
	}

	exists, err := s.reviews.ExistsByUserAndProduct(req.UserID, req.ProductID)
	if err != nil {
		return domain.Review{}, err
	}
	if exists {
		return domain.Review{}, domain.ErrDuplicateReview
	}

	if err := s.reviews.Create(&review); err != nil {
		return domain.Review{}, err
	}

	s.refreshProductRating(req.ProductID)

	s.logger.WithFields(log.Fields{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("review published")

	return review, nil
}

// Get возвращает отзыв по идентификатору.
func (s *Service) Get(id int64) (domain.Review, error) {
	return s.reviews.Get(id)
}

// ListByProduct возвращает отзывы на товар от новых к старым.
func (s *Service) ListByProduct(productID int64) ([]domain.Review, error) {
	return s.reviews.ListByProduct(productID)
}

// Delete удаляет отзыв. Только автор или администратор; проверка роли
// лежит на транспортном слое, сюда приходит уже авторизованный вызов.
func (s *Service) Delete(id int64) error {
	review, err := s.reviews.Get(id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(id); err != nil {
		return err
	}

	s.refreshProductRating(review.ProductID)
	return nil
}

// refreshProductRating пересчитывает и сохраняет агрегаты отзывов.
// Ошибки логируются: отзыв уже сохранён, агрегаты догонит следующий пересчёт.
func (s *Service) refreshProductRating(productID int64) {
	avg, count, err := s.reviews.AggregateByProduct(productID)
	if err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("failed to aggregate reviews")
		return
	}
	if err := s.products.UpdateRating(productID, avg, count); err != nil {
		s.logger.WithError(err).WithField("product_id", productID).Warn("failed to update product rating")
		return
	}
	s.cache.Invalidate(productID)
}
