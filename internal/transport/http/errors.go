package http

import (
	"errors"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/auth"
)

// badRequestErrors — ошибки валидации входных данных, которые клиент может исправить.
var badRequestErrors = []error{
	domain.ErrUserIDRequired,
	domain.ErrProductIDRequired,
	domain.ErrItemsRequired,
	domain.ErrItemQtyInvalid,
	domain.ErrItemPriceInvalid,
	domain.ErrUserNameRequired,
	domain.ErrUserEmailInvalid,
	domain.ErrUserRoleInvalid,
	domain.ErrPasswordTooShort,
	domain.ErrCategoryNameRequired,
	domain.ErrProductNameRequired,
	domain.ErrProductPriceInvalid,
	domain.ErrProductStockNegative,
	domain.ErrReviewRatingInvalid,
	domain.ErrReviewContentInvalid,
	domain.ErrIdempotencyKeyRequired,
}

// statusForError переводит доменную ошибку в HTTP-статус.
// Недостаток стока и недопустимый переход статуса — бизнес-конфликты (409),
// а не системные сбои.
func statusForError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotPurchased):
		return http.StatusForbidden
	case domain.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// errorPayload строит статус и тело ответа по доменной ошибке.
// Неожиданные ошибки не протекают наружу текстом.
func errorPayload(err error) (int, errorResponse) {
	code := statusForError(err)
	message := capitalize(err.Error())
	if code == http.StatusInternalServerError && !errors.Is(err, domain.ErrPersistence) {
		message = "Internal server error"
	}
	return code, errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     http.StatusText(code),
		Message:   message,
	}
}

// errorPayloadMessage строит тело ошибки с заданным статусом и сообщением.
func errorPayloadMessage(code int, message string) (int, errorResponse) {
	return code, errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     http.StatusText(code),
		Message:   message,
	}
}

// respondError пишет тело ошибки по доменной ошибке.
func respondError(w http.ResponseWriter, err error) {
	code, payload := errorPayload(err)
	writeJSON(w, code, payload)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
