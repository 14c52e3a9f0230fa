package sqlstore

import (
	"context"
	"database/sql"
	"embed"

	"github.com/go-faster/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded schema for the dialect. It uses its own
// connection and closes it when done.
func Migrate(ctx context.Context, opts Options) error {
	dsn := opts.DSN
	if opts.Dialect == DialectMySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return errors.Wrap(err, "parse mysql dsn")
		}
		cfg.MultiStatements = true
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(opts.Dialect.driverName(), dsn)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "ping database")
	}

	var driver database.Driver
	switch opts.Dialect {
	case DialectMySQL:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case DialectPostgres:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		err = errors.Errorf("unsupported database driver %q", opts.Dialect)
	}
	if err != nil {
		_ = db.Close()
		return errors.Wrap(err, "migration driver")
	}

	src, err := iofs.New(migrations, "migrations/"+string(opts.Dialect))
	if err != nil {
		_ = driver.Close()
		return errors.Wrap(err, "migration source")
	}

	m, err := migrate.NewWithInstance("iofs", src, string(opts.Dialect), driver)
	if err != nil {
		_ = driver.Close()
		return errors.Wrap(err, "migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}
