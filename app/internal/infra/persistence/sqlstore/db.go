// Package sqlstore implements the repositories over database/sql for MySQL
// and PostgreSQL. Queries are written with ? placeholders and rebound per
// dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "mysql"
}

type Options struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB is a *sql.DB that knows its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

func Open(ctx context.Context, opts Options) (*DB, error) {
	dsn := opts.DSN
	switch opts.Dialect {
	case DialectMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "parse mysql dsn")
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	case DialectPostgres:
	default:
		return nil, errors.Errorf("unsupported database driver %q", opts.Dialect)
	}

	db, err := sql.Open(opts.Dialect.driverName(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &DB{DB: db, dialect: opts.Dialect}, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn binds a querier to a dialect so repositories can share code between
// plain and transactional access.
type conn struct {
	q       querier
	dialect Dialect
}

func (db *DB) conn() conn {
	return conn{q: db.DB, dialect: db.dialect}
}

func (db *DB) begin(ctx context.Context) (*sql.Tx, conn, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, conn{}, errors.Wrap(err, "begin tx")
	}
	return tx, conn{q: tx, dialect: db.dialect}, nil
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// insert runs an INSERT and returns the generated id.
func (c conn) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if c.dialect == DialectPostgres {
		var id int64
		err := c.queryRow(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := c.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (c conn) rebind(query string) string {
	if c.dialect != DialectPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// uniqueViolation reports the constraint name when err is a unique key
// violation.
func uniqueViolation(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return mysqlKeyName(myErr.Message), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// mysqlKeyName extracts the key from "Duplicate entry 'x' for key 't.k'".
func mysqlKeyName(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndexByte(key, '.'); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}
