package sqlconnect

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recruitgate/pkg/utils"

	_ "github.com/go-sql-driver/mysql"
)

var DB *sql.DB

// ConnectDb opens the shared MariaDB/MySQL pool once. dsn must carry
// parseTime=true, timestamps are scanned into time.Time.
func ConnectDb(ctx context.Context, dsn string) (*sql.DB, error) {
	if DB != nil {
		return DB, nil
	}

	utils.Logger.Info("Connecting to MariaDB...")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	DB = db
	utils.Logger.Info("Connected to MariaDB")
	return DB, nil
}
