package migration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/shopdata/internal/config"
	"github.com/Additional-Code/shopdata/internal/database"
)

func newSQLiteMigrator(t *testing.T) (*Migrator, *database.Target) {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ecommerce.db") + "?_foreign_keys=on"
	target, err := database.NewTarget(config.Database{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = target.Close() })

	mig, err := New(target, zap.NewNop())
	require.NoError(t, err)
	return mig, target
}

func tableNames(t *testing.T, target *database.Target) []string {
	t.Helper()
	ctx := context.Background()
	db, err := target.Open(ctx)
	require.NoError(t, err)

	var names []string
	require.NoError(t, db.NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version' ORDER BY name",
	).Scan(ctx, &names))
	return names
}

func TestMigrator_UpDown(t *testing.T) {
	mig, target := newSQLiteMigrator(t)
	ctx := context.Background()

	require.NoError(t, mig.Up(ctx))
	assert.Equal(t, []string{"order_items", "orders", "payments", "products", "users"}, tableNames(t, target))

	require.NoError(t, mig.Up(ctx), "second up is a no-op")

	require.NoError(t, mig.Down(ctx, 0, true))
	assert.Empty(t, tableNames(t, target))

	require.NoError(t, mig.Down(ctx, 1, false), "down with nothing applied is tolerated")
}

func TestMigrator_ForeignKeysDeclared(t *testing.T) {
	mig, target := newSQLiteMigrator(t)
	ctx := context.Background()
	require.NoError(t, mig.Up(ctx))

	db, err := target.Open(ctx)
	require.NoError(t, err)

	var parents []string
	require.NoError(t, db.NewRaw(`SELECT "table" FROM pragma_foreign_key_list('order_items') ORDER BY "table"`).Scan(ctx, &parents))
	assert.Equal(t, []string{"orders", "products"}, parents)
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"sqlite": "sqlite3", "postgres": "postgres", "mysql": "mysql"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}
