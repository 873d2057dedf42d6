package db

import (
	"context"
	"database/sql"
	"fmt"
)

var tables = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		display_name TEXT DEFAULT '',
		role TEXT DEFAULT 'user' CHECK(role IN ('admin','user','readonly')),
		active INTEGER DEFAULT 1,
		failed_login_attempts INTEGER DEFAULT 0,
		locked_until DATETIME,
		last_login DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`},
	{"categories", `CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL
	)`},
	{"customers", `CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		phone TEXT DEFAULT '',
		city TEXT DEFAULT '',
		country TEXT DEFAULT '',
		address TEXT DEFAULT '',
		tax_number TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		deleted_at DATETIME
	)`},
	{"products", `CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		code TEXT UNIQUE NOT NULL,
		barcode_symbology TEXT DEFAULT 'C128' CHECK(barcode_symbology IN ('C128','C39','UPCA','UPCE','EAN13','EAN8')),
		unit TEXT DEFAULT 'pcs',
		quantity INTEGER DEFAULT 0 CHECK(quantity >= 0),
		cost REAL DEFAULT 0 CHECK(cost >= 0),
		price REAL DEFAULT 0 CHECK(price >= 0),
		stock_alert INTEGER DEFAULT 0 CHECK(stock_alert >= 0),
		tax_amount REAL DEFAULT 0 CHECK(tax_amount >= 0),
		tax_type TEXT DEFAULT 'exclusive' CHECK(tax_type IN ('exclusive','inclusive')),
		note TEXT DEFAULT '',
		status TEXT DEFAULT 'active' CHECK(status IN ('active','inactive')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT
	)`},
	{"audit_log", `CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT DEFAULT 'system',
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		record_id TEXT NOT NULL,
		summary TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`},
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_customers_deleted ON customers(deleted_at)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_module ON audit_log(module, created_at)`,
}

// Migrate creates any missing tables and indexes. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("%s migration: %w", t.name, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}
	return nil
}
