package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	domcart "example.com/storefront/app/internal/domain/cart"
	dom "example.com/storefront/app/internal/domain/product"
)

const productColumns = `id, category_id, name, description, price, is_active, created_at`

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *dom.Product) (_ *dom.Product, retErr error) {
	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	id, err := c.insert(ctx, `
        INSERT INTO products (category_id, name, description, price, is_active)
        VALUES (?, ?, ?, ?, ?)`,
		p.CategoryID, p.Name, p.Description, p.Price, p.IsActive,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	if err := replaceAttributes(ctx, c, id, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return r.GetByID(ctx, id)
}

// Update writes the product and, in the same transaction, reprices every
// cart line holding it.
func (r *ProductRepository) Update(ctx context.Context, p *dom.Product) (_ *dom.Product, retErr error) {
	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	var current decimal.Decimal
	err = c.queryRow(ctx, `SELECT price FROM products WHERE id = ? FOR UPDATE`, p.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dom.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "lock product")
	}

	_, err = c.exec(ctx, `
        UPDATE products SET category_id = ?, name = ?, description = ?, price = ?, is_active = ?
        WHERE id = ?`,
		p.CategoryID, p.Name, p.Description, p.Price, p.IsActive, p.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	if !current.Equal(p.Price) {
		if err := repriceCartLines(ctx, c, p.ID, p.Price); err != nil {
			return nil, err
		}
	}
	if err := replaceAttributes(ctx, c, p.ID, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return r.GetByID(ctx, p.ID)
}

func repriceCartLines(ctx context.Context, c conn, productID int64, price decimal.Decimal) error {
	rows, err := c.query(ctx, `SELECT id, quantity FROM cart_items WHERE product_id = ? FOR UPDATE`, productID)
	if err != nil {
		return errors.Wrap(err, "lock cart lines")
	}
	type line struct{ id, quantity int64 }
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.id, &l.quantity); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan cart line")
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "read cart lines")
	}

	for _, l := range lines {
		if _, err := c.exec(ctx, `UPDATE cart_items SET amount = ? WHERE id = ?`,
			domcart.LineAmount(price, l.quantity), l.id); err != nil {
			return errors.Wrap(err, "reprice cart line")
		}
	}
	return nil
}

func replaceAttributes(ctx context.Context, c conn, productID int64, p *dom.Product) error {
	if _, err := c.exec(ctx, `DELETE FROM product_features WHERE product_id = ?`, productID); err != nil {
		return errors.Wrap(err, "clear features")
	}
	for _, f := range p.Features {
		if _, err := c.exec(ctx, `INSERT INTO product_features (product_id, feature) VALUES (?, ?)`, productID, f); err != nil {
			return errors.Wrap(err, "insert feature")
		}
	}
	if _, err := c.exec(ctx, `DELETE FROM product_images WHERE product_id = ?`, productID); err != nil {
		return errors.Wrap(err, "clear images")
	}
	for _, url := range p.Images {
		if _, err := c.exec(ctx, `INSERT INTO product_images (product_id, url) VALUES (?, ?)`, productID, url); err != nil {
			return errors.Wrap(err, "insert image")
		}
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*dom.Product, error) {
	p, err := scanProduct(r.db.conn().queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dom.ErrProductNotFound
		}
		return nil, err
	}
	if err := r.loadAttributes(ctx, []*dom.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter dom.ListFilter) ([]*dom.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1 = 1`
	var args []any
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.OnlyActive {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id`
	return r.list(ctx, query, args...)
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]*dom.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		int64Args(ids)...,
	)
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]*dom.Product, error) {
	rows, err := r.db.conn().query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var products []*dom.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read products")
	}
	if err := r.loadAttributes(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) loadAttributes(ctx context.Context, products []*dom.Product) error {
	if len(products) == 0 {
		return nil
	}
	byID := make(map[int64]*dom.Product, len(products))
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	in := placeholders(len(ids))

	load := func(query string, add func(p *dom.Product, v string)) error {
		rows, err := r.db.conn().query(ctx, query, int64Args(ids)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id int64
				v  string
			)
			if err := rows.Scan(&id, &v); err != nil {
				return err
			}
			add(byID[id], v)
		}
		return rows.Err()
	}

	if err := load(`SELECT product_id, feature FROM product_features WHERE product_id IN (`+in+`) ORDER BY id`,
		func(p *dom.Product, v string) { p.Features = append(p.Features, v) }); err != nil {
		return errors.Wrap(err, "load features")
	}
	if err := load(`SELECT product_id, url FROM product_images WHERE product_id IN (`+in+`) ORDER BY id`,
		func(p *dom.Product, v string) { p.Images = append(p.Images, v) }); err != nil {
		return errors.Wrap(err, "load images")
	}
	return nil
}

func scanProduct(s scanner) (*dom.Product, error) {
	var p dom.Product
	if err := s.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan product")
	}
	return &p, nil
}
