package domain

import (
	"strings"
	"time"
)

const (
	reviewContentMinLen = 10
	reviewContentMaxLen = 1000
)

// Review — отзыв пользователя о купленном товаре.
// На пару (пользователь, товар) допускается не более одного отзыва.
type Review struct {
	ID        int64
	UserID    int64
	ProductID int64
	Rating    int32
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет рейтинг и длину текста отзыва.
func (r *Review) Validate() []error {
	var errs []error

	if r.UserID <= 0 {
		errs = append(errs, ErrUserIDRequired)
	}
	if r.ProductID <= 0 {
		errs = append(errs, ErrProductIDRequired)
	}
	if r.Rating < 1 || r.Rating > 5 {
		errs = append(errs, ErrReviewRatingInvalid)
	}
	if n := len(strings.TrimSpace(r.Content)); n < reviewContentMinLen || n > reviewContentMaxLen {
		errs = append(errs, ErrReviewContentInvalid)
	}

	return errs
}
