package sqlstore

import (
	"context"
	"slices"

	"github.com/go-faster/errors"

	"example.com/storefront/app/internal/domain/deletion"
	domorder "example.com/storefront/app/internal/domain/order"
)

// blockerQueries select (root id, reference) pairs for rows that pin a root.
var blockerQueries = map[deletion.Kind]func(in string) (string, []any){
	deletion.KindProduct: func(in string) (string, []any) {
		closed := domorder.ClosedStatuses()
		args := make([]any, len(closed))
		for i, s := range closed {
			args[i] = string(s)
		}
		return `SELECT DISTINCT oi.product_id, o.order_code
            FROM order_items oi
            JOIN orders o ON o.id = oi.order_id
            WHERE oi.product_id IN (` + in + `) AND o.status NOT IN (` + placeholders(len(closed)) + `)`, args
	},
	deletion.KindCategory: func(in string) (string, []any) {
		return `SELECT category_id, id FROM products WHERE category_id IN (` + in + `)`, nil
	},
	deletion.KindUser: func(in string) (string, []any) {
		return `SELECT user_id, order_code FROM orders WHERE user_id IN (` + in + `)`, nil
	},
}

type DeletionRepository struct {
	db *DB
}

func NewDeletionRepository(db *DB) *DeletionRepository {
	return &DeletionRepository{db: db}
}

func (r *DeletionRepository) Inspect(ctx context.Context, kind deletion.Kind, ids []int64) (*deletion.Report, error) {
	return inspect(ctx, r.db.conn(), kind, ids, false)
}

// Delete locks the root rows, re-inspects them and runs the cascade only if
// nothing is missing or blocked.
func (r *DeletionRepository) Delete(ctx context.Context, kind deletion.Kind, ids []int64) (_ *deletion.Report, retErr error) {
	stmts, err := planCascade(kind, len(ids))
	if err != nil {
		return nil, err
	}

	tx, c, err := r.db.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	report, err := inspect(ctx, c, kind, ids, true)
	if err != nil {
		return nil, err
	}
	if !report.Allowed() {
		_ = tx.Rollback()
		return report, nil
	}

	args := int64Args(ids)
	for _, stmt := range stmts {
		if _, err := c.exec(ctx, stmt, args...); err != nil {
			return nil, errors.Wrapf(err, "cascade %s", kind)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return report, nil
}

func inspect(ctx context.Context, c conn, kind deletion.Kind, ids []int64, lock bool) (*deletion.Report, error) {
	root, ok := ownershipGraph[kind]
	blockers, okb := blockerQueries[kind]
	if !ok || !okb {
		return nil, deletion.ErrInvalidKind
	}
	report := deletion.NewReport(kind)
	if len(ids) == 0 {
		return report, nil
	}
	in := placeholders(len(ids))
	args := int64Args(ids)

	query := `SELECT id FROM ` + root.name + ` WHERE id IN (` + in + `)`
	if lock {
		query += ` FOR UPDATE`
	}
	found, err := queryIDs(ctx, c, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", kind)
	}
	for _, id := range ids {
		if !slices.Contains(found, id) {
			report.Missing = append(report.Missing, id)
		}
	}

	blockQuery, extra := blockers(in)
	rows, err := c.query(ctx, blockQuery, append(args, extra...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s blockers", kind)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  int64
			ref string
		)
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, errors.Wrap(err, "scan blocker")
		}
		report.Block(id, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read blockers")
	}
	for id := range report.Blocked {
		slices.Sort(report.Blocked[id])
	}
	return report, nil
}

func queryIDs(ctx context.Context, c conn, query string, args ...any) ([]int64, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
