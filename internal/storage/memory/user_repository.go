package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// userRepositoryInMemory — простая in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	store *Store
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepositoryInMemory{store: store}
}

// Create сохраняет пользователя, проверяя уникальность email.
func (r *userRepositoryInMemory) Create(user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, email) {
			return domain.ErrEmailTaken
		}
	}

	r.store.nextUserID++
	user.ID = r.store.nextUserID
	user.Email = email
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.store.users[user.ID] = *user
	return nil
}

// Get возвращает пользователя или ErrUserNotFound.
func (r *userRepositoryInMemory) Get(id int64) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail ищет пользователя по email без учёта регистра.
func (r *userRepositoryInMemory) GetByEmail(email string) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// List возвращает пользователей, отсортированных по идентификатору.
func (r *userRepositoryInMemory) List() ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update перезаписывает пользователя.
func (r *userRepositoryInMemory) Update(user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	r.store.users[user.ID] = user
	return nil
}

// Delete удаляет пользователя.
func (r *userRepositoryInMemory) Delete(id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
