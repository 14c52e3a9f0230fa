package sqlstore

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	dom "example.com/storefront/app/internal/domain/category"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *dom.Category) (*dom.Category, error) {
	id, err := r.db.conn().insert(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		c.Name, c.Description,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert category")
	}
	return r.GetByID(ctx, id)
}

func (r *CategoryRepository) Update(ctx context.Context, c *dom.Category) (*dom.Category, error) {
	_, err := r.db.conn().exec(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE id = ?`,
		c.Name, c.Description, c.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "update category")
	}
	// MySQL reports zero affected rows for a no-op update, so existence is
	// checked by reading back.
	return r.GetByID(ctx, c.ID)
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*dom.Category, error) {
	var c dom.Category
	err := r.db.conn().queryRow(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dom.ErrCategoryNotFound
		}
		return nil, errors.Wrap(err, "get category")
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*dom.Category, error) {
	rows, err := r.db.conn().query(ctx,
		`SELECT id, name, description, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var categories []*dom.Category
	for rows.Next() {
		var c dom.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}
