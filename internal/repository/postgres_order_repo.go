package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type orderRow struct {
	ID        string             `db:"id"`
	UserID    sql.NullString     `db:"user_id"`
	Status    domain.OrderStatus `db:"status"`
	CreatedAt time.Time          `db:"created_at"`
}

func (row orderRow) toDomain() domain.Order {
	order := domain.Order{
		ID:        row.ID,
		Status:    row.Status,
		CreatedAt: row.CreatedAt.UTC(),
		Items:     []domain.OrderItem{},
	}
	if row.UserID.Valid {
		userID := row.UserID.String
		order.UserID = &userID
	}
	return order
}

type orderItemRow struct {
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	Price     decimal.Decimal `db:"price"`
}

type postgresOrderRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sqlx.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created := *order
	created.Items = append([]domain.OrderItem{}, order.Items...)

	var userID sql.NullString
	if order.UserID != nil {
		userID = sql.NullString{String: *order.UserID, Valid: true}
	}

	err := transact(ctx, r.db, r.log, func(tx *sqlx.Tx) error {
		orderQuery := `
            INSERT INTO orders (id, user_id, status, created_at)
            VALUES ($1, $2, $3, $4)
            RETURNING created_at`
		if err := tx.GetContext(ctx, &created.CreatedAt, orderQuery, order.ID, userID, order.Status, order.CreatedAt); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return fmt.Errorf("order with id %s: %w", order.ID, domain.ErrConflict)
			}
			r.log.Errorf("Repository: Failed to insert order %s: %v", order.ID, err)
			return fmt.Errorf("could not create order entry: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
            INSERT INTO order_items (order_id, position, product_id, quantity, price)
            VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			r.log.Errorf("Repository: Failed to prepare order item statement: %v", err)
			return fmt.Errorf("could not prepare item statement: %w", err)
		}
		defer stmt.Close()

		for i, item := range order.Items {
			if _, err := stmt.ExecContext(ctx, order.ID, i, item.ProductID, item.Quantity, item.Price); err != nil {
				r.log.Errorf("Repository: Failed to insert order item (product_id: %s, quantity: %d) for order %s: %v", item.ProductID, item.Quantity, order.ID, err)
				if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
					return fmt.Errorf("invalid item data (product_id: %s): %s: %w", item.ProductID, pqErr.Message, domain.ErrValidation)
				}
				return fmt.Errorf("could not create order item (product_id: %s): %w", item.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.CreatedAt = created.CreatedAt.UTC()
	r.log.Infof("Repository: Order %s created with %d items", created.ID, len(created.Items))
	return &created, nil
}

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `
        SELECT id, user_id, status, created_at
        FROM orders
        WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Order with ID %s not found", id)
			return nil, fmt.Errorf("order with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get order by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not retrieve order: %w", err)
	}

	orders := []domain.Order{row.toDomain()}
	if err := r.attachItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `
        UPDATE orders
        SET status = $1
        WHERE id = $2
        RETURNING id, user_id, status, created_at`, status, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Order with ID %s not found for status update", id)
			return nil, fmt.Errorf("order with id %s: %w", id, domain.ErrNotFound)
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Repository: Invalid status value '%s' for order ID %s: %v", status, id, err)
			return nil, fmt.Errorf("invalid order status provided: %s: %w", status, domain.ErrValidation)
		}
		r.log.Errorf("Repository: Failed to update status for order ID %s: %v", id, err)
		return nil, fmt.Errorf("could not update order status: %w", err)
	}

	orders := []domain.Order{row.toDomain()}
	if err := r.attachItems(ctx, r.db, orders); err != nil {
		return nil, fmt.Errorf("order status updated, but failed to retrieve items: %w", err)
	}
	r.log.Infof("Repository: Order %s status set to '%s'", id, status)
	return &orders[0], nil
}

func (r *postgresOrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var rows []orderRow
	err := r.db.SelectContext(ctx, &rows, `
        SELECT id, user_id, status, created_at
        FROM orders
        ORDER BY created_at DESC, id COLLATE "C" ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list orders: %v", err)
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}
	if err := r.attachItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	r.log.Debugf("Repository: Retrieved %d orders", len(orders))
	return orders, nil
}

// attachItems loads the items of every order in one query, keeping their insertion order.
func (r *postgresOrderRepository) attachItems(ctx context.Context, q sqlx.QueryerContext, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	var rows []orderItemRow
	err := sqlx.SelectContext(ctx, q, &rows, `
        SELECT order_id, product_id, quantity, price
        FROM order_items
        WHERE order_id = ANY($1)
        ORDER BY order_id, position`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to query items for orders (%v): %v", ids, err)
		return fmt.Errorf("could not retrieve order items: %w", err)
	}

	itemsByOrder := make(map[string][]domain.OrderItem, len(orders))
	for _, row := range rows {
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], domain.OrderItem{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Price:     row.Price,
		})
	}
	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return nil
}
