package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// reviewRepositoryInMemory — in-memory реализация ReviewRepository.
type reviewRepositoryInMemory struct {
	store *Store
}

// NewReviewRepository возвращает in-memory репозиторий отзывов.
func NewReviewRepository(store *Store) domain.ReviewRepository {
	return &reviewRepositoryInMemory{store: store}
}

func (r *reviewRepositoryInMemory) Create(review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.reviews {
		if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
			return domain.ErrDuplicateReview
		}
	}

	r.store.nextReviewID++
	review.ID = r.store.nextReviewID
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	r.store.reviews[review.ID] = *review
	return nil
}

func (r *reviewRepositoryInMemory) Get(id int64) (domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	review, ok := r.store.reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrReviewNotFound
	}
	return review, nil
}

func (r *reviewRepositoryInMemory) ListByProduct(productID int64) ([]domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]domain.Review, 0)
	for _, review := range r.store.reviews {
		if review.ProductID == productID {
			result = append(result, review)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *reviewRepositoryInMemory) ExistsByUserAndProduct(userID, productID int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, review := range r.store.reviews {
		if review.UserID == userID && review.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewRepositoryInMemory) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.store.reviews, id)
	return nil
}

func (r *reviewRepositoryInMemory) AggregateByProduct(productID int64) (float64, int32, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var (
		sum   int64
		count int32
	)
	for _, review := range r.store.reviews {
		if review.ProductID == productID {
			sum += int64(review.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

var _ domain.ReviewRepository = (*reviewRepositoryInMemory)(nil)
