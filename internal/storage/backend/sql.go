package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ghostpaste/internal/dbx"
	"github.com/dmitrijs2005/ghostpaste/internal/storage/backend/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// dialect holds what differs between the SQL databases.
type dialect struct {
	driver        string
	gooseDialect  string
	migrationsDir string
	listQuery     string
}

var postgresDialect = dialect{
	driver:        "pgx",
	gooseDialect:  "pgx",
	migrationsDir: migrations.PostgresDir,
	listQuery: `SELECT key, size, updated_at FROM objects
		WHERE starts_with(key, $1) AND key > $2
		ORDER BY key
		LIMIT $3`,
}

var sqliteDialect = dialect{
	driver:        "sqlite",
	gooseDialect:  "sqlite3",
	migrationsDir: migrations.SQLiteDir,
	listQuery: `SELECT key, size, updated_at FROM objects
		WHERE substr(key, 1, length($1)) = $1 AND key > $2
		ORDER BY key
		LIMIT $3`,
}

// SQLBackend keeps objects as rows of the objects table, in PostgreSQL or
// SQLite.
type SQLBackend struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

var _ Backend = (*SQLBackend)(nil)
var _ BatchDeleter = (*SQLBackend)(nil)

var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgres wraps an open PostgreSQL database. The schema must already
// exist or be created with RunMigrations.
func NewPostgres(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db, d: postgresDialect, now: time.Now}
}

// NewSQLite wraps an open SQLite database.
func NewSQLite(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db, d: sqliteDialect, now: time.Now}
}

// OpenPostgres connects with the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLBackend, error) {
	db, err := sqlOpen(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return migrate(ctx, NewPostgres(db))
}

// OpenSQLite opens (creating if needed) the database file at path and
// applies migrations. The pool holds one connection.
func OpenSQLite(ctx context.Context, path string) (*SQLBackend, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sqlOpen(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	return migrate(ctx, NewSQLite(db))
}

func migrate(ctx context.Context, b *SQLBackend) (*SQLBackend, error) {
	if err := b.RunMigrations(ctx); err != nil {
		_ = b.db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return b, nil
}

// RunMigrations applies the embedded goose migrations for the dialect.
func (b *SQLBackend) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(b.d.gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, b.db, b.d.migrationsDir)
}

func (b *SQLBackend) Close() error { return b.db.Close() }

func (b *SQLBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	query := `INSERT INTO objects (key, data, size, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key)
		DO UPDATE SET data = EXCLUDED.data, size = EXCLUDED.size, updated_at = EXCLUDED.updated_at`

	if _, err := b.db.ExecContext(ctx, query, key, data, int64(len(data)), b.now().UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.QueryRowContext(ctx, `SELECT data FROM objects WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (b *SQLBackend) Head(ctx context.Context, key string) (Object, error) {
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}

	obj := Object{Key: key}
	err := b.db.QueryRowContext(ctx, `SELECT size, updated_at FROM objects WHERE key = $1`, key).
		Scan(&obj.Size, &obj.LastModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Object{}, fmt.Errorf("db error: %w", err)
	}
	return obj, nil
}

func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return deleteKey(ctx, b.db, key)
}

func deleteKey(ctx context.Context, db dbx.DBTX, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM objects WHERE key = $1`, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteMany removes keys in a single transaction.
func (b *SQLBackend) DeleteMany(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}

	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, k := range keys {
			if err := deleteKey(ctx, tx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *SQLBackend) List(ctx context.Context, prefix, cursor string, limit int) (ListPage, error) {
	limit, err := checkPage(prefix, limit)
	if err != nil {
		return ListPage{}, err
	}

	// One extra row tells whether another page exists.
	rows, err := b.db.QueryContext(ctx, b.d.listQuery, prefix, cursor, limit+1)
	if err != nil {
		return ListPage{}, fmt.Errorf("failed to list objects: %w", err)
	}
	defer rows.Close()

	var page ListPage
	for rows.Next() {
		var o Object
		if err := rows.Scan(&o.Key, &o.Size, &o.LastModified); err != nil {
			return ListPage{}, err
		}
		page.Objects = append(page.Objects, o)
	}
	if err := rows.Err(); err != nil {
		return ListPage{}, err
	}

	if len(page.Objects) > limit {
		page.Objects = page.Objects[:limit]
		page.Cursor = page.Objects[limit-1].Key
	}
	return page, nil
}
