// Package dbtest opens throwaway SQLite databases carrying the same tables
// and unique indexes as the Postgres migrations.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE shops (
		id TEXT PRIMARY KEY,
		owner_account_id TEXT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		chat_contact_id TEXT NOT NULL DEFAULT '',
		whatsapp_number TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		bank_account_number TEXT NOT NULL DEFAULT '',
		bank_account_name TEXT NOT NULL DEFAULT '',
		hero_image_landscape_url TEXT,
		hero_image_landscape_filename TEXT,
		hero_image_portrait_url TEXT,
		hero_image_portrait_filename TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX shops_slug_key ON shops (slug)`,
	`CREATE UNIQUE INDEX shops_owner_account_id_key ON shops (owner_account_id)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
		product_id TEXT,
		product_name TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		amount TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		delivery_address TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL,
		proof_object TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		owner_account_id TEXT NOT NULL,
		status TEXT NOT NULL,
		plan_name TEXT NOT NULL,
		plan_amount_kobo INTEGER NOT NULL,
		payment_reference TEXT,
		paid_at DATETIME,
		expires_at DATETIME,
		renewal_date DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX subscriptions_owner_account_id_key ON subscriptions (owner_account_id)`,
	`CREATE TABLE payment_records (
		id TEXT PRIMARY KEY,
		owner_account_id TEXT,
		subscription_id TEXT,
		amount_kobo INTEGER NOT NULL,
		external_reference TEXT NOT NULL,
		status TEXT NOT NULL,
		method TEXT NOT NULL,
		raw_metadata TEXT,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX payment_records_success_reference_key ON payment_records (external_reference) WHERE status = 'success'`,
}

// Open returns an isolated in-memory database with the application schema.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
