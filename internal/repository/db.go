package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update hits a unique key.
	ErrDuplicate = errors.New("already exists")
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
			service_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			status INTEGER NOT NULL,
			bank_result_msg TEXT NOT NULL DEFAULT '',
			reg_dt TEXT NOT NULL,
			bank_send_dt TEXT NOT NULL,
			stop_dt TEXT NOT NULL DEFAULT '',
			member_name TEXT NOT NULL,
			service_cd TEXT NOT NULL,
			bank_cd TEXT NOT NULL DEFAULT '',
			account_no TEXT NOT NULL DEFAULT '',
			account_name TEXT NOT NULL DEFAULT '',
			id_no TEXT NOT NULL DEFAULT '',
			hp_no TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			service_name TEXT NOT NULL DEFAULT '',
			card_no TEXT NOT NULL DEFAULT '',
			val_yn TEXT NOT NULL DEFAULT '',
			cus_type INTEGER NOT NULL DEFAULT 0,
			cus_off_no TEXT NOT NULL DEFAULT '',
			user_define TEXT NOT NULL DEFAULT '',
			registered_at TEXT NOT NULL,
			PRIMARY KEY (service_id, member_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_status ON members(status)`,

		`CREATE TABLE IF NOT EXISTS payments (
			service_id TEXT NOT NULL,
			send_dt TEXT NOT NULL,
			message_no TEXT NOT NULL,
			member_id TEXT NOT NULL,
			bank_result_cd TEXT NOT NULL DEFAULT '',
			bank_result_msg TEXT NOT NULL DEFAULT '',
			status INTEGER NOT NULL,
			member_name TEXT NOT NULL,
			account_desc TEXT NOT NULL DEFAULT '',
			req_amt TEXT NOT NULL,
			cash_rcp_yn TEXT NOT NULL,
			service_cd TEXT NOT NULL,
			app_dt TEXT NOT NULL DEFAULT '',
			app_no TEXT NOT NULL DEFAULT '',
			cancel_dt TEXT NOT NULL DEFAULT '',
			user_define TEXT NOT NULL DEFAULT '',
			fee TEXT NOT NULL DEFAULT '',
			registered_at TEXT NOT NULL,
			PRIMARY KEY (service_id, send_dt, message_no)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_member ON payments(service_id, member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)`,

		`CREATE TABLE IF NOT EXISTS evidence_files (
			id TEXT PRIMARY KEY,
			service_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			agree_type TEXT NOT NULL,
			file_ext TEXT NOT NULL,
			size INTEGER NOT NULL,
			is_base64 INTEGER NOT NULL DEFAULT 0,
			uploaded_at TEXT NOT NULL,
			UNIQUE (service_id, member_id)
		)`,

		`CREATE TABLE IF NOT EXISTS import_batches (
			id TEXT PRIMARY KEY,
			service_id TEXT NOT NULL,
			format TEXT NOT NULL,
			file_hash TEXT NOT NULL UNIQUE,
			record_count INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

// Page bounds a list query.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() (limit, offset int) {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p.Limit, (p.Page - 1) * p.Limit
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
