package domain

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет пользователя. Возвращает ErrEmailTaken при занятом email.
	Create(user *User) error
	// Get возвращает пользователя по идентификатору или ErrUserNotFound.
	Get(id int64) (User, error)
	// GetByEmail ищет пользователя по email или возвращает ErrUserNotFound.
	GetByEmail(email string) (User, error)
	// List возвращает всех пользователей.
	List() ([]User, error)
	// Update перезаписывает пользователя или возвращает ErrUserNotFound.
	Update(user User) error
	// Delete удаляет пользователя или возвращает ErrUserNotFound.
	Delete(id int64) error
}

// CategoryRepository описывает требования к хранилищу категорий.
type CategoryRepository interface {
	Create(category *Category) error
	Get(id int64) (Category, error)
	List() ([]Category, error)
	Update(category Category) error
	Delete(id int64) error
}

// ProductRepository описывает требования к хранилищу каталога.
// Мутации стока в потоке заказов идут НЕ через этот интерфейс,
// а через OrderTx, чтобы чтение и запись стока делили одну транзакцию.
type ProductRepository interface {
	Create(product *Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id int64) (Product, error)
	// List возвращает товары; categoryID > 0 ограничивает выборку категорией.
	List(categoryID int64) ([]Product, error)
	Update(product Product) error
	Delete(id int64) error
	// UpdateRating перезаписывает агрегаты отзывов товара.
	UpdateRating(productID int64, avg float64, count int32) error
}

// OrderRepository описывает read-сторону хранилища заказов.
// Создание и смена статуса заказа выполняются только через OrderTx.
type OrderRepository interface {
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id int64) (Order, error)
	// List возвращает все заказы, отсортированные от новых к старым.
	List() ([]Order, error)
	// ListByUser возвращает заказы пользователя.
	ListByUser(userID int64) ([]Order, error)
	// ExistsDeliveredPurchase отвечает, есть ли у пользователя доставленный заказ,
	// содержащий товар. Предикат допуска к отзывам.
	ExistsDeliveredPurchase(userID, productID int64) (bool, error)
}

// ReviewRepository описывает требования к хранилищу отзывов.
type ReviewRepository interface {
	Create(review *Review) error
	Get(id int64) (Review, error)
	// ListByProduct возвращает отзывы на товар от новых к старым.
	ListByProduct(productID int64) ([]Review, error)
	// ExistsByUserAndProduct отвечает, оставлял ли пользователь отзыв на товар.
	ExistsByUserAndProduct(userID, productID int64) (bool, error)
	Delete(id int64) error
	// AggregateByProduct возвращает средний рейтинг и число отзывов товара.
	AggregateByProduct(productID int64) (float64, int32, error)
}
