package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest carries a fully priced order: every item's unit
// price was frozen by the caller at assembly time, and TotalAmount is
// the sum of the item totals. The store persists it verbatim.
type CreateOrderRequest struct {
	UserID               *int64
	CustomerName         string
	CustomerEmail        string
	CustomerPhone        string
	ShippingAddressLine1 string
	ShippingAddressLine2 string
	ShippingCity         string
	ShippingState        string
	ShippingZipCode      string
	ShippingCountry      string
	Notes                string
	TotalAmount          decimal.Decimal
	Items                []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID  int64
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

// CreateOrder writes the order row and every item row in one
// transaction. Either all rows land or none do; a failure after the
// order insert rolls the order back too.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		orderNumber := generateOrderNumber()

		var orderID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, order_number,
			         customer_name, customer_email, customer_phone,
			         shipping_address_line1, shipping_address_line2,
			         shipping_city, shipping_state, shipping_zip_code, shipping_country,
			         status, total_amount, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			 RETURNING id`,
			req.UserID, orderNumber,
			req.CustomerName, req.CustomerEmail, req.CustomerPhone,
			req.ShippingAddressLine1, req.ShippingAddressLine2,
			req.ShippingCity, req.ShippingState, req.ShippingZipCode, req.ShippingCountry,
			models.OrderStatusPending, req.TotalAmount, req.Notes).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range req.Items {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())`,
				orderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		order = &models.Order{}
		err = scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, orderID), order)
		if err != nil {
			return fmt.Errorf("fetch created order: %w", err)
		}

		items, err := queryOrderItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		order.Items = items

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const selectOrder = `
	SELECT id, user_id, order_number,
	       customer_name, customer_email, customer_phone,
	       shipping_address_line1, shipping_address_line2,
	       shipping_city, shipping_state, shipping_zip_code, shipping_country,
	       status, total_amount, notes, created_at, updated_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, order *models.Order) error {
	var line2, notes sql.NullString
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.ShippingAddressLine1,
		&line2,
		&order.ShippingCity,
		&order.ShippingState,
		&order.ShippingZipCode,
		&order.ShippingCountry,
		&order.Status,
		&order.TotalAmount,
		&notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}
	order.ShippingAddressLine2 = line2.String
	order.Notes = notes.String
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryOrderItems(ctx context.Context, q querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := queryOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// UpdateOrderStatus moves an order along the status machine. The check
// runs against the row read inside the transaction, so a concurrent
// update cannot sneak a shipped order into cancelled.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, newStatus string) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, models.ErrInvalidTransition
	}

	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`,
			id).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if !models.CanTransition(current, newStatus) {
			return models.ErrInvalidTransition
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			newStatus, id)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		order = &models.Order{}
		if err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id), order); err != nil {
			return fmt.Errorf("fetch updated order: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := selectOrder + `
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// Orders adapts the order store to the checkout package's writer
// interface.
type Orders struct {
	DB *sql.DB
}

func (o *Orders) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	return CreateOrder(ctx, o.DB, req)
}

func (o *Orders) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	return UpdateOrderStatus(ctx, o.DB, id, status)
}
