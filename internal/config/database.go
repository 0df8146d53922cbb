package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(36) PRIMARY KEY,
			given_name VARCHAR(255) NOT NULL,
			middle_name VARCHAR(255),
			last_name VARCHAR(255) NOT NULL,
			email_address VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL,
			program VARCHAR(255),
			year VARCHAR(20),
			department VARCHAR(255),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create service_type table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS service_type (
			service_id SERIAL PRIMARY KEY,
			servicename VARCHAR(255) UNIQUE NOT NULL,
			unitprice NUMERIC(10, 2) NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create transactions table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			transaction_id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(user_id),
			date_time TIMESTAMP NOT NULL,
			school_year VARCHAR(20) NOT NULL,
			term VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL,
			transaction_code VARCHAR(100),
			processed_by VARCHAR(36) REFERENCES users(user_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create transaction_detail table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transaction_detail (
			transaction_id VARCHAR(36) PRIMARY KEY REFERENCES transactions(transaction_id) ON DELETE CASCADE,
			services JSONB NOT NULL,
			total_amount NUMERIC(10, 2) NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create audit_log table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id SERIAL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			action_taken TEXT NOT NULL,
			log_timestamp TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_status_time ON transactions(status, date_time, transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, date_time)",
		"CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(log_timestamp)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
