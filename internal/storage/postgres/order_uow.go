package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// txTimeout ограничивает транзакцию оформления целиком, включая
// блокировки строк товаров.
const txTimeout = 10 * time.Second

type orderUnitOfWork struct {
	db *sql.DB
}

// NewOrderUnitOfWork создаёт транзакционную единицу работы поверх PostgreSQL.
// Конкурентные оформления одного товара сериализуются блокировкой строки
// (SELECT ... FOR UPDATE), поэтому сток не уходит в минус даже под гонкой.
func NewOrderUnitOfWork(store *Store) domain.OrderUnitOfWork {
	return &orderUnitOfWork{db: store.DB()}
}

func (u *orderUnitOfWork) Begin(ctx context.Context) (domain.OrderTx, error) {
	txCtx, cancel := context.WithTimeout(ctx, txTimeout)

	tx, err := u.db.BeginTx(txCtx, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("begin order tx: %w", err)
	}

	return &orderTx{ctx: txCtx, cancel: cancel, tx: tx}, nil
}

type orderTx struct {
	ctx      context.Context
	cancel   context.CancelFunc
	tx       *sql.Tx
	finished bool
}

func (t *orderTx) User(id int64) (domain.User, error) {
	var user domain.User
	var role string
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	user.Role = domain.Role(role)

	return user, nil
}

func (t *orderTx) ProductForUpdate(id int64) (domain.Product, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id)
	product, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product for update: %w", err)
	}

	return product, nil
}

func (t *orderTx) OrderForUpdate(id int64) (domain.Order, error) {
	var order domain.Order
	var status string
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, user_id, status, order_date
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&order.ID, &order.UserID, &status, &order.OrderDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order for update: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := loadOrderItems(t.ctx, t.tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (t *orderTx) StageProducts(products []domain.Product) error {
	for _, product := range products {
		if product.Stock < 0 {
			return fmt.Errorf("product %d: %w", product.ID, domain.ErrProductStockNegative)
		}
		res, err := t.tx.ExecContext(t.ctx, `
			UPDATE products
			SET stock = $1, updated_at = NOW()
			WHERE id = $2
		`, product.Stock, product.ID)
		if err != nil {
			return fmt.Errorf("stage product %d: %w", product.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("product %d: %w", product.ID, domain.ErrProductNotFound)
		}
	}

	return nil
}

func (t *orderTx) InsertOrder(order *domain.Order) error {
	err := t.tx.QueryRowContext(t.ctx, `
		INSERT INTO orders (user_id, status, order_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, order.UserID, string(order.Status), order.OrderDate).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		err := t.tx.QueryRowContext(t.ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (t *orderTx) UpdateOrderStatus(orderID int64, status domain.OrderStatus) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2
	`, string(status), orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (t *orderTx) EnqueueOutbox(msg domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload)
	if err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}

	return nil
}

func (t *orderTx) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.cancel()

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}

	return nil
}

func (t *orderTx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.cancel()

	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback order tx: %w", err)
	}

	return nil
}

var _ domain.OrderUnitOfWork = (*orderUnitOfWork)(nil)
var _ domain.OrderTx = (*orderTx)(nil)
