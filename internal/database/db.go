package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the DDL for the pipeline tables.  The unique key on
// processed_messages.message_id is the idempotency gate; the primary
// keys on the two summary tables are what the upsert-and-increment
// statements hang off.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS processed_messages (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		message_id VARCHAR(191) NOT NULL,
		source_channel_id VARCHAR(191) NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'processed',
		processed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_processed_messages_message_id (message_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		message_id VARCHAR(191) NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		unit VARCHAR(255) NOT NULL DEFAULT '',
		checkout_time VARCHAR(64) NOT NULL DEFAULT '',
		duration_label VARCHAR(64) NOT NULL DEFAULT '',
		payment_method ENUM('CASH','TRANSFER') NOT NULL,
		agent_name VARCHAR(191) NOT NULL,
		amount BIGINT NOT NULL,
		commission BIGINT NOT NULL,
		net_amount BIGINT NOT NULL,
		booking_date DATE NOT NULL,
		source_channel_id VARCHAR(191) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_transactions_message_id (message_id),
		KEY idx_transactions_agent_date (booking_date, agent_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS agent_daily_summaries (
		booking_date DATE NOT NULL,
		agent_name VARCHAR(191) NOT NULL,
		total_bookings BIGINT NOT NULL DEFAULT 0,
		total_cash BIGINT NOT NULL DEFAULT 0,
		total_transfer BIGINT NOT NULL DEFAULT 0,
		total_commission BIGINT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (booking_date, agent_name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS daily_summaries (
		booking_date DATE NOT NULL,
		total_bookings BIGINT NOT NULL DEFAULT 0,
		total_cash BIGINT NOT NULL DEFAULT 0,
		total_transfer BIGINT NOT NULL DEFAULT 0,
		total_gross BIGINT NOT NULL DEFAULT 0,
		total_commission BIGINT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (booking_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates the pipeline tables when they do not exist yet.
// Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
