package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	domcart "example.com/storefront/app/internal/domain/cart"
	domorder "example.com/storefront/app/internal/domain/order"
)

const (
	constraintOrderReference = "uq_orders_transaction_id"
	constraintOrderCode      = "uq_orders_order_code"

	orderColumns = `id, order_code, user_id, first_name, last_name, email, address, phone,
        amount, transaction_id, status, created_at`
)

type OrderRepository struct {
	db *DB

	// insertItems writes the order items inside the settlement transaction.
	insertItems func(ctx context.Context, c conn, orderID int64, items []domcart.Item) error
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db, insertItems: insertOrderItems}
}

// Settle snapshots the user's cart into a new order and empties the cart in
// one transaction. The cart rows are locked first, so two settlements of the
// same cart serialize and the second finds it empty.
func (r *OrderRepository) Settle(ctx context.Context, d domorder.Draft) (_ *domorder.Order, retErr error) {
	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	items, err := lockCartItems(ctx, c, d.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domcart.ErrCartEmpty
	}

	orderID, err := c.insert(ctx, `
        INSERT INTO orders (order_code, user_id, first_name, last_name, email, address, phone,
            amount, transaction_id, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Code, d.UserID, d.Payer.FirstName, d.Payer.LastName, d.Payer.Email, d.Payer.Address, d.Payer.Phone,
		d.Amount, d.TransactionID, string(domorder.StatusSettled),
	)
	if err != nil {
		if name, ok := uniqueViolation(err); ok {
			switch name {
			case constraintOrderReference:
				return nil, domorder.ErrDuplicateReference
			case constraintOrderCode:
				return nil, domorder.ErrDuplicateCode
			}
		}
		return nil, errors.Wrap(err, "insert order")
	}

	if err := r.insertItems(ctx, c, orderID, items); err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if _, err := c.exec(ctx, `DELETE FROM cart_items WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return r.GetByID(ctx, orderID)
}

func lockCartItems(ctx context.Context, c conn, userID int64) ([]domcart.Item, error) {
	rows, err := c.query(ctx, `
        SELECT ci.id, ci.product_id, ci.quantity, ci.amount
        FROM cart_items ci
        JOIN carts c ON c.id = ci.cart_id
        WHERE c.user_id = ?
        ORDER BY ci.id
        FOR UPDATE`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "lock cart items")
	}
	defer rows.Close()

	var items []domcart.Item
	for rows.Next() {
		var item domcart.Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Amount); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertOrderItems(ctx context.Context, c conn, orderID int64, items []domcart.Item) error {
	for _, item := range items {
		_, err := c.exec(ctx, `
            INSERT INTO order_items (order_id, product_id, quantity, amount, paid)
            VALUES (?, ?, ?, ?, ?)`,
			orderID, item.ProductID, item.Quantity, item.Amount, true,
		)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (r *OrderRepository) FindExisting(ctx context.Context, reference, code string) (*domorder.Order, error) {
	if code == "" {
		return r.GetByReference(ctx, reference)
	}
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders
        WHERE transaction_id = ? OR order_code = ?
        ORDER BY id LIMIT 1`, reference, code)
}

func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*domorder.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE transaction_id = ?`, reference)
}

func (r *OrderRepository) GetByCode(ctx context.Context, code string) (*domorder.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_code = ?`, code)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domorder.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

// List returns orders newest first.
func (r *OrderRepository) List(ctx context.Context, filter domorder.ListFilter) ([]*domorder.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	var args []any
	if filter.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *filter.UserID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.conn().query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var orders []*domorder.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read orders")
	}
	for _, o := range orders {
		if o.Items, err = r.listOrderItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domorder.Status) (*domorder.Order, error) {
	if _, err := r.db.conn().exec(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*domorder.Order, error) {
	o, err := scanOrder(r.db.conn().queryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domorder.ErrOrderNotFound
		}
		return nil, err
	}
	if o.Items, err = r.listOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// listOrderItems leaves ProductName empty for items whose product is gone.
func (r *OrderRepository) listOrderItems(ctx context.Context, orderID int64) ([]domorder.OrderItem, error) {
	rows, err := r.db.conn().query(ctx, `
        SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.amount, oi.paid
        FROM order_items oi
        LEFT JOIN products p ON p.id = oi.product_id
        WHERE oi.order_id = ?
        ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	var items []domorder.OrderItem
	for rows.Next() {
		var item domorder.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Amount, &item.Paid); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(s scanner) (*domorder.Order, error) {
	var (
		o      domorder.Order
		status string
	)
	err := s.Scan(&o.ID, &o.Code, &o.UserID, &o.Payer.FirstName, &o.Payer.LastName, &o.Payer.Email,
		&o.Payer.Address, &o.Payer.Phone, &o.Amount, &o.TransactionID, &status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan order")
	}
	o.Status = domorder.Status(status)
	return &o, nil
}
