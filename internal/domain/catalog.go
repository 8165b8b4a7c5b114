package domain

import (
	"strings"
	"time"
)

// Category группирует товары каталога.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля категории.
func (c *Category) Validate() []error {
	if strings.TrimSpace(c.Name) == "" {
		return []error{ErrCategoryNameRequired}
	}
	return nil
}

// Product — товар каталога. Поле Stock — единственный разделяемый мутабельный
// ресурс потока заказов: его значение никогда не опускается ниже нуля.
// Цена и сток обязательны при создании, nil-состояний у товара нет.
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         float64
	Stock         int32
	CategoryID    int64
	AverageRating float64
	ReviewCount   int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет инварианты товара: имя, положительная цена, неотрицательный сток.
func (p *Product) Validate() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price <= 0 {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrProductStockNegative)
	}

	return errs
}
