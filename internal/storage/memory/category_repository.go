package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// categoryRepositoryInMemory — in-memory реализация CategoryRepository.
type categoryRepositoryInMemory struct {
	store *Store
}

// NewCategoryRepository возвращает in-memory репозиторий категорий.
func NewCategoryRepository(store *Store) domain.CategoryRepository {
	return &categoryRepositoryInMemory{store: store}
}

func (r *categoryRepositoryInMemory) Create(category *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextCategoryID++
	category.ID = r.store.nextCategoryID
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	r.store.categories[category.ID] = *category
	return nil
}

func (r *categoryRepositoryInMemory) Get(id int64) (domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	category, ok := r.store.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (r *categoryRepositoryInMemory) List() ([]domain.Category, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]domain.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *categoryRepositoryInMemory) Update(category domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.categories[category.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	category.UpdatedAt = time.Now().UTC()
	r.store.categories[category.ID] = category
	return nil
}

func (r *categoryRepositoryInMemory) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.store.categories, id)
	return nil
}

var _ domain.CategoryRepository = (*categoryRepositoryInMemory)(nil)
