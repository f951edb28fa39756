package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a row filtered by key and owner does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Store is the platform's persistence layer. Every item and settings
// statement it builds is filtered by owner.
type Store struct {
	DB     *sql.DB
	driver string
	sq     squirrel.StatementBuilderType
}

// mysqlDSN adds the connection options the store relies on. With
// clientFoundRows, UPDATE reports matched rows, so setting a flag to the
// value it already has still counts as one updated item.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverMySQL:
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases alive and serializes writers.
		conn.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA foreign_keys=ON;",
			"PRAGMA busy_timeout=5000;",
		}
		for _, p := range pragmas {
			if _, err := conn.ExecContext(ctx, p); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{
		DB:     conn,
		driver: driver,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := mysqlSchema
	if s.driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		owner CHAR(36) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_items_owner (owner),
		FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		owner CHAR(36) PRIMARY KEY,
		display_name VARCHAR(255) NOT NULL,
		FOREIGN KEY (owner) REFERENCES users(id) ON DELETE CASCADE
	);`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT 0,
		owner TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner);`,
	`CREATE TABLE IF NOT EXISTS user_settings (
		owner TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		display_name TEXT NOT NULL
	);`,
}

// timestamp scans TIMESTAMP columns from either driver. MySQL hands back
// time.Time (parseTime is forced on), SQLite may hand back text.
type timestamp struct {
	Time time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
