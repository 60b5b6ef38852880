package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateFS(Embedded(), embeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("on-disk migrations invalid: %v", err)
	}
}

func TestMigrationsDeclareUniqueConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_shops_table.sql": {
			"CONSTRAINT shops_slug_key UNIQUE (slug)",
			"CONSTRAINT shops_owner_account_id_key UNIQUE (owner_account_id)",
		},
		"*_create_subscriptions_table.sql": {
			"CONSTRAINT subscriptions_owner_account_id_key UNIQUE (owner_account_id)",
			"CREATE TYPE subscription_status AS ENUM ('pending', 'active')",
		},
		"*_create_payment_records_table.sql": {
			"CREATE UNIQUE INDEX IF NOT EXISTS payment_records_success_reference_key",
			"WHERE status = 'success'",
		},
		"*_create_orders_table.sql": {
			"CREATE TYPE order_status AS ENUM ('pending', 'completed', 'failed')",
			"quantity integer NOT NULL CHECK (quantity > 0)",
		},
	}

	for pattern, wants := range checks {
		matches, err := fs.Glob(Embedded(), embeddedDir+"/"+pattern)
		if err != nil || len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %v (%v)", pattern, matches, err)
		}
		data, err := fs.ReadFile(Embedded(), matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, want := range wants {
			if !strings.Contains(string(data), want) {
				t.Errorf("%s missing %q", matches[0], want)
			}
		}
	}
}

func TestValidateRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "create-things.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now = func() time.Time { return time.Date(2025, 7, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	path, err := CreateSQLMigration(dir, "Add Shop Tagline!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20250701123000_add_shop_tagline.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "add shop tagline"); err == nil {
		t.Fatal("expected duplicate migration error")
	}
}
