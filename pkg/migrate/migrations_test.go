package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/havenandoak/storefront-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitSchemaContainsOrderConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE UNIQUE INDEX ux_orders_order_number ON orders (order_number)",
		"CREATE UNIQUE INDEX ux_coupons_code ON coupons (code)",
		"order_id uuid NOT NULL REFERENCES orders (id) ON DELETE CASCADE",
		"usage_count integer NOT NULL DEFAULT 0",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
