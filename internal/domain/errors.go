package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если зафиксированная цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка неизвестного статуса заказа.
	ErrOrderStatusInvalid = errors.New("order status is invalid")

	// Ошибки валидации пользователя.
	ErrUserNameRequired = errors.New("user name is required")
	ErrUserEmailInvalid = errors.New("user email is invalid")
	ErrUserRoleInvalid  = errors.New("user role is invalid")

	// Ошибки валидации каталога.
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrProductNameRequired  = errors.New("product name is required")
	ErrProductPriceInvalid  = errors.New("product price must be positive")
	ErrProductStockNegative = errors.New("product stock cannot be negative")

	// Ошибки валидации отзыва.
	ErrReviewRatingInvalid  = errors.New("review rating must be between 1 and 5")
	ErrReviewContentInvalid = errors.New("review content must be between 10 and 1000 characters")

	// ErrUserNotFound возвращается, если пользователь не найден в репозитории.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound возвращается, если категория не найдена.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrReviewNotFound возвращается, если отзыв не найден.
	ErrReviewNotFound = errors.New("review not found")

	// ErrEmailTaken — попытка регистрации с уже занятым email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrPasswordTooShort — пароль короче минимально допустимой длины.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrInvalidCredentials — неверная пара email/пароль при входе.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInsufficientStock — бизнес-отказ склада: запрошено больше, чем доступно.
	// Не является системным сбоем и не должен превращаться в 5xx.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotPending — попытка перехода из терминального статуса.
	ErrOrderNotPending = errors.New("only pending orders can be cancelled")
	// ErrTransitionInvalid — недопустимый переход статуса заказа.
	ErrTransitionInvalid = errors.New("order status transition is not allowed")

	// ErrPersistence — сбой транзакции или нарушение ограничений хранилища.
	// Транзакция к этому моменту полностью откатана, частичных записей нет.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateReview — пользователь уже оставил отзыв на этот товар.
	ErrDuplicateReview = errors.New("user has already reviewed this product")
	// ErrNotPurchased — отзыв разрешён только после доставленного заказа с товаром.
	ErrNotPurchased = errors.New("user has not purchased and received this product")

	// Ошибки idempotency-контура.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу "сущность отсутствует".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrReviewNotFound)
}

// IsConflict проверяет, относится ли ошибка к бизнес-конфликтам (сток/статус/дубликаты).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrOrderNotPending) ||
		errors.Is(err, ErrTransitionInvalid) ||
		errors.Is(err, ErrDuplicateReview) ||
		errors.Is(err, ErrEmailTaken)
}
