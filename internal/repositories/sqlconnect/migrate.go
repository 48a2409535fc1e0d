package sqlconnect

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"recruitgate/pkg/utils"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables this service owns. Every statement is
// idempotent, so it is safe on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return utils.ErrorHandler(err, "failed to apply schema")
		}
	}
	utils.Logger.Info("Schema is up to date")
	return nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
