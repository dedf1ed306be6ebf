package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meadowcart/storefront-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestCartsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_carts_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CONSTRAINT chk_carts_single_owner CHECK",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_session",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product",
		"quantity INT NOT NULL CHECK (quantity >= 1)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TYPE order_status AS ENUM ('processing', 'in-transit', 'delivered', 'cancelled')",
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"status order_status NOT NULL DEFAULT 'processing'",
		"next_transition_at TIMESTAMPTZ",
		"CREATE INDEX IF NOT EXISTS idx_orders_next_transition",
		"price_at_purchase_cents BIGINT NOT NULL CHECK (price_at_purchase_cents >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"quantity_in_stock INT NOT NULL DEFAULT 0 CHECK (quantity_in_stock >= 0)",
		"price_cents BIGINT NOT NULL CHECK (price_cents >= 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
