package order

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// assembledOrder — результат фазы сборки: заказ-агрегат и подготовленные
// снимки стока. До фиксации координатором ни одна запись не сделана;
// сбой персистентности тем самым отличим от отказа валидации.
type assembledOrder struct {
	order    domain.Order
	products []domain.Product
}

// assemble проверяет запрос против текущего состояния и резервирует сток
// в памяти. Товарные строки читаются с блокировкой, поэтому проверка
// "хватает ли стока" и последующее списание разделяют одну транзакцию.
//
// Если хотя бы одна позиция не проходит, сток не трогается нигде
// и заказ не строится.
func assemble(tx domain.OrderTx, req PlaceOrderRequest) (*assembledOrder, error) {
	user, err := tx.User(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", req.UserID, err)
	}

	// Снимки стока накапливаются по товару: повторная позиция того же
	// товара видит уже уменьшенный остаток.
	staged := make(map[int64]domain.Product, len(req.Items))
	stagedOrder := make([]int64, 0, len(req.Items))
	items := make([]domain.OrderItem, 0, len(req.Items))

	for _, reqItem := range req.Items {
		product, ok := staged[reqItem.ProductID]
		if !ok {
			product, err = tx.ProductForUpdate(reqItem.ProductID)
			if err != nil {
				return nil, fmt.Errorf("product %d: %w", reqItem.ProductID, err)
			}
			stagedOrder = append(stagedOrder, product.ID)
		}

		if reqItem.Quantity > product.Stock {
			return nil, fmt.Errorf("%w for product %q (id=%d): requested %d, available %d",
				domain.ErrInsufficientStock, product.Name, product.ID, reqItem.Quantity, product.Stock)
		}

		product.Stock -= reqItem.Quantity
		staged[product.ID] = product

		// Цена фиксируется на момент чтения и больше не перечитывается.
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Quantity:  reqItem.Quantity,
			Price:     product.Price,
		})
	}

	products := make([]domain.Product, 0, len(stagedOrder))
	for _, id := range stagedOrder {
		products = append(products, staged[id])
	}

	order := domain.Order{
		UserID:    user.ID,
		Status:    domain.OrderStatusPending,
		OrderDate: time.Now().UTC(),
		Items:     items,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return nil, errs[0]
	}

	return &assembledOrder{order: order, products: products}, nil
}
