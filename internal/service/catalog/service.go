package catalog

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/cache"
	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Service управляет категориями и товарами каталога.
// Сток товара здесь меняется только административно (приход на склад);
// резервирование и возврат при заказах идут через транзакцию заказа.
type Service struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
	cache      *cache.ProductCache
	logger     *log.Entry
}

// NewService создаёт сервис каталога. cache может быть nil.
func NewService(
	categories domain.CategoryRepository,
	products domain.ProductRepository,
	productCache *cache.ProductCache,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{
		categories: categories,
		products:   products,
		cache:      productCache,
		logger:     logger,
	}
}

// CreateCategory создаёт категорию.
func (s *Service) CreateCategory(name string) (domain.Category, error) {
	category := domain.Category{Name: strings.TrimSpace(name)}
	if errs := category.Validate(); len(errs) > 0 {
		return domain.Category{}, errs[0]
	}

	if err := s.categories.Create(&category); err != nil {
		return domain.Category{}, err
	}

	s.logger.WithField("category_id", category.ID).Info("category created")
	return category, nil
}

// GetCategory возвращает категорию по идентификатору.
func (s *Service) GetCategory(id int64) (domain.Category, error) {
	return s.categories.Get(id)
}

// ListCategories возвращает все категории.
func (s *Service) ListCategories() ([]domain.Category, error) {
	return s.categories.List()
}

// UpdateCategory переименовывает категорию.
func (s *Service) UpdateCategory(id int64, name string) (domain.Category, error) {
	category, err := s.categories.Get(id)
	if err != nil {
		return domain.Category{}, err
	}

	category.Name = strings.TrimSpace(name)
	if errs := category.Validate(); len(errs) > 0 {
		return domain.Category{}, errs[0]
	}

	if err := s.categories.Update(category); err != nil {
		return domain.Category{}, err
	}

	return category, nil
}

// DeleteCategory удаляет категорию.
func (s *Service) DeleteCategory(id int64) error {
	return s.categories.Delete(id)
}

// ProductRequest — входные данные создания/обновления товара.
type ProductRequest struct {
	Name        string
	Description string
	Price       float64
	Stock       int32
	CategoryID  int64
}

// CreateProduct создаёт товар с начальным стоком.
func (s *Service) CreateProduct(req ProductRequest) (domain.Product, error) {
	if req.CategoryID > 0 {
		if _, err := s.categories.Get(req.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}

	product := domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	if err := s.products.Create(&product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"stock":      product.Stock,
	}).Info("product created")

	return product, nil
}

// GetProduct возвращает товар, предпочитая кэш.
func (s *Service) GetProduct(id int64) (domain.Product, error) {
	if product, ok := s.cache.Get(id); ok {
		return product, nil
	}

	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	s.cache.Set(product)

	return product, nil
}

// ListProducts возвращает товары; categoryID > 0 фильтрует по категории.
func (s *Service) ListProducts(categoryID int64) ([]domain.Product, error) {
	return s.products.List(categoryID)
}

// UpdateProduct перезаписывает карточку товара и сбрасывает кэш.
func (s *Service) UpdateProduct(id int64, req ProductRequest) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	if req.CategoryID > 0 && req.CategoryID != product.CategoryID {
		if _, err := s.categories.Get(req.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.CategoryID = req.CategoryID
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	if err := s.products.Update(product); err != nil {
		return domain.Product{}, err
	}
	s.cache.Invalidate(id)

	return product, nil
}

// DeleteProduct удаляет товар и его кэш-запись.
func (s *Service) DeleteProduct(id int64) error {
	if err := s.products.Delete(id); err != nil {
		return err
	}
	s.cache.Invalidate(id)

	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
