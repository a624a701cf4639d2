package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Reset leaves the target without any of the given tables. Sqlite files are
// deleted outright; server databases get each table dropped, children first.
func (t *Target) Reset(ctx context.Context, tables []string) error {
	if t.cfg.Driver == "sqlite" {
		return t.resetSQLite()
	}

	db, err := t.Open(ctx)
	if err != nil {
		return err
	}
	for i := len(tables) - 1; i >= 0; i-- {
		q := db.NewDropTable().Table(tables[i]).IfExists()
		if t.cfg.Driver == "postgres" {
			q = q.Cascade()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("drop table %s: %w", tables[i], err)
		}
	}
	if t.logger != nil {
		t.logger.Info("dropped existing tables", zap.Strings("tables", tables))
	}
	return nil
}

func (t *Target) resetSQLite() error {
	if err := t.Close(); err != nil {
		return err
	}

	path := SQLitePath(t.cfg.DSN)
	if path == "" {
		return nil
	}

	removed := false
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = removed || p == path
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	if removed && t.logger != nil {
		t.logger.Info("removed existing database", zap.String("path", path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	return nil
}

// SQLitePath extracts the file path from a go-sqlite3 DSN. In-memory
// databases yield "".
func SQLitePath(dsn string) string {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}
