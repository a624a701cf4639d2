package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/Additional-Code/shopdata/internal/entity"
)

func openDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY, name TEXT, email TEXT, phone TEXT, created_at TEXT,
		address_line TEXT, city TEXT, state TEXT, postal_code TEXT)`)
	require.NoError(t, err)
	return db
}

func users(n int) []entity.User {
	out := make([]entity.User, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, entity.User{
			ID:        int64(i),
			Name:      fmt.Sprintf("user %d", i),
			CreatedAt: entity.NewTimestamp(time.Date(2025, 1, i, 0, 0, 0, 0, time.UTC)),
		})
	}
	return out
}

func TestInsertBatches(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	repo := New(db)

	n, err := InsertBatches(ctx, repo, "users", users(7), 3)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	count, err := repo.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	var createdAt string
	require.NoError(t, db.NewRaw("SELECT created_at FROM users WHERE user_id = 2").Scan(ctx, &createdAt))
	assert.Equal(t, "2025-01-02T00:00:00", createdAt)
}

func TestInsertBatches_StopsAtFailure(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	rows := append(users(4), users(1)...)
	n, err := InsertBatches(ctx, New(db), "users", rows, 2)
	require.Error(t, err)
	assert.Equal(t, 4, n)
}

func TestInsertBatches_InTransaction(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := InsertBatches(ctx, New(tx), "users", users(3), 10); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.EqualError(t, err, "abort")

	count, err := New(db).Count(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, count)
}
