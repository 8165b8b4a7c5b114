package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий каталога.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

func (r *productRepositoryInMemory) Create(product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextProductID++
	product.ID = r.store.nextProductID
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	r.store.products[product.ID] = *product
	return nil
}

func (r *productRepositoryInMemory) Get(id int64) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepositoryInMemory) List(categoryID int64) ([]domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		if categoryID > 0 && product.CategoryID != categoryID {
			continue
		}
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *productRepositoryInMemory) Update(product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	product.UpdatedAt = time.Now().UTC()
	r.store.products[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r *productRepositoryInMemory) UpdateRating(productID int64, avg float64, count int32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.AverageRating = avg
	product.ReviewCount = count
	product.UpdatedAt = time.Now().UTC()
	r.store.products[productID] = product
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
