package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/app/internal/domain/cart"
	domproduct "example.com/storefront/app/internal/domain/product"
)

type CartRepository struct {
	db *DB
}

func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) AddItem(ctx context.Context, userID, productID, quantity int64) (_ *domcart.Item, retErr error) {
	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var price decimal.Decimal
	if err := c.queryRow(ctx, `SELECT price FROM products WHERE id = ?`, productID).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domproduct.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "get product price")
	}

	cartID, err := ensureCart(ctx, c, userID)
	if err != nil {
		return nil, err
	}

	item := domcart.Item{ProductID: productID}
	err = c.queryRow(ctx, `
        SELECT id, quantity FROM cart_items
        WHERE cart_id = ? AND product_id = ?
        FOR UPDATE`, cartID, productID,
	).Scan(&item.ID, &item.Quantity)
	switch {
	case err == nil:
		item.Quantity += quantity
		item.Amount = domcart.LineAmount(price, item.Quantity)
		if _, err := c.exec(ctx, `UPDATE cart_items SET quantity = ?, amount = ? WHERE id = ?`,
			item.Quantity, item.Amount, item.ID); err != nil {
			return nil, errors.Wrap(err, "update cart item")
		}
	case errors.Is(err, sql.ErrNoRows):
		item.Quantity = quantity
		item.Amount = domcart.LineAmount(price, quantity)
		item.ID, err = c.insert(ctx, `
            INSERT INTO cart_items (cart_id, product_id, quantity, amount)
            VALUES (?, ?, ?, ?)`, cartID, productID, item.Quantity, item.Amount)
		if err != nil {
			return nil, errors.Wrap(err, "insert cart item")
		}
	default:
		return nil, errors.Wrap(err, "lock cart item")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &item, nil
}

// ensureCart returns the user's cart id, creating the cart on first use. The
// cart row stays locked until the transaction ends, so concurrent writers of
// one cart run one after another.
func ensureCart(ctx context.Context, c conn, userID int64) (int64, error) {
	upsert := `INSERT INTO carts (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`
	if c.dialect == DialectMySQL {
		upsert = `INSERT INTO carts (user_id) VALUES (?) ON DUPLICATE KEY UPDATE user_id = user_id`
	}
	if _, err := c.exec(ctx, upsert, userID); err != nil {
		return 0, errors.Wrap(err, "create cart")
	}

	var id int64
	if err := c.queryRow(ctx, `SELECT id FROM carts WHERE user_id = ? FOR UPDATE`, userID).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "lock cart")
	}
	return id, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, productID, quantity int64) (*domcart.Item, error) {
	return r.setQuantity(ctx, `
        SELECT ci.id, ci.product_id, p.price
        FROM cart_items ci
        JOIN carts c ON c.id = ci.cart_id
        JOIN products p ON p.id = ci.product_id
        WHERE c.user_id = ? AND ci.product_id = ?
        FOR UPDATE`, quantity, userID, productID)
}

func (r *CartRepository) SetItemQuantity(ctx context.Context, itemID, quantity int64) (*domcart.Item, error) {
	return r.setQuantity(ctx, `
        SELECT ci.id, ci.product_id, p.price
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.id = ?
        FOR UPDATE`, quantity, itemID)
}

func (r *CartRepository) setQuantity(ctx context.Context, lockQuery string, quantity int64, args ...any) (_ *domcart.Item, retErr error) {
	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		item  domcart.Item
		price decimal.Decimal
	)
	if err := c.queryRow(ctx, lockQuery, args...).Scan(&item.ID, &item.ProductID, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domcart.ErrItemNotFound
		}
		return nil, errors.Wrap(err, "lock cart item")
	}

	item.Quantity = quantity
	item.Amount = domcart.LineAmount(price, quantity)
	if _, err := c.exec(ctx, `UPDATE cart_items SET quantity = ?, amount = ? WHERE id = ?`,
		item.Quantity, item.Amount, item.ID); err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &item, nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	res, err := r.db.conn().exec(ctx, `
        DELETE FROM cart_items
        WHERE product_id = ? AND cart_id IN (SELECT id FROM carts WHERE user_id = ?)`,
		productID, userID)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domcart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID int64) error {
	res, err := r.db.conn().exec(ctx, `DELETE FROM cart_items WHERE id = ?`, itemID)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return domcart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) ListItems(ctx context.Context, userID int64) ([]domcart.Item, error) {
	rows, err := r.db.conn().query(ctx, `
        SELECT ci.id, ci.product_id, ci.quantity, ci.amount
        FROM cart_items ci
        JOIN carts c ON c.id = ci.cart_id
        WHERE c.user_id = ?
        ORDER BY ci.id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
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

func (r *CartRepository) Get(ctx context.Context, userID int64) (*domcart.Cart, error) {
	cart := &domcart.Cart{UserID: userID, Items: []domcart.DetailedItem{}}
	err := r.db.conn().queryRow(ctx, `SELECT id FROM carts WHERE user_id = ?`, userID).Scan(&cart.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	rows, err := r.db.conn().query(ctx, `
        SELECT ci.id, ci.product_id, ci.quantity, ci.amount, p.name, p.price
        FROM cart_items ci
        JOIN products p ON p.id = ci.product_id
        WHERE ci.cart_id = ?
        ORDER BY ci.id`, cart.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	defer rows.Close()

	for rows.Next() {
		var item domcart.DetailedItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Amount,
			&item.ProductName, &item.ProductPrice); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

func (r *CartRepository) ListCarts(ctx context.Context) ([]domcart.Cart, error) {
	rows, err := r.db.conn().query(ctx, `
        SELECT c.id, c.user_id, ci.id, ci.product_id, ci.quantity, ci.amount, p.name, p.price
        FROM carts c
        JOIN cart_items ci ON ci.cart_id = c.id
        JOIN products p ON p.id = ci.product_id
        ORDER BY c.user_id, ci.id`)
	if err != nil {
		return nil, errors.Wrap(err, "list carts")
	}
	defer rows.Close()

	carts := []domcart.Cart{}
	for rows.Next() {
		var (
			cartID, userID int64
			item           domcart.DetailedItem
		)
		if err := rows.Scan(&cartID, &userID, &item.ID, &item.ProductID, &item.Quantity, &item.Amount,
			&item.ProductName, &item.ProductPrice); err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		if n := len(carts); n == 0 || carts[n-1].ID != cartID {
			carts = append(carts, domcart.Cart{ID: cartID, UserID: userID})
		}
		last := &carts[len(carts)-1]
		last.Items = append(last.Items, item)
	}
	return carts, rows.Err()
}

func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.conn().exec(ctx,
		`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)`, userID)
	if err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
