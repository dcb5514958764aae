package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/extrato/internal/common"
)

// tables defined on connect (SurrealDB v3 errors on querying non-existent tables)
var tables = []string{outcomeTable}

// Connect opens, authenticates and selects the namespace/database.
func Connect(ctx context.Context, config *common.StorageConfig) (*surrealdb.DB, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := defineTables(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

func defineTables(ctx context.Context, db *surrealdb.DB) error {
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	return nil
}

// isNotFoundError reports whether a SurrealDB error means the record is absent.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}
