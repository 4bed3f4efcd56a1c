package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		logger.Fatal("usage: go run scripts/run_migrations.go [up|down]", nil)
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		logger.Fatal("direction must be 'up' or 'down'", map[string]any{"direction": direction})
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", map[string]any{"error": err.Error()})
	}
	logger.Init(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Storage.Database)
	if err != nil {
		logger.Fatal("connect to database", map[string]any{"error": err.Error()})
	}
	defer db.Close()

	files, err := migrationFiles("migrations", direction)
	if err != nil {
		logger.Fatal("list migrations", map[string]any{"error": err.Error()})
	}

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("read migration", map[string]any{"file": path, "error": err.Error()})
		}

		logger.Info("running migration", map[string]any{"file": filepath.Base(path)})
		err = database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, string(content))
			return err
		})
		if err != nil {
			logger.Fatal("execute migration", map[string]any{"file": path, "error": err.Error()})
		}
	}

	logger.Info("migrations complete", map[string]any{"count": len(files), "direction": direction})
}

// migrationFiles returns the files for direction in the order they must run.
func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "."+direction+".sql") {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)
	if direction == "down" {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}
