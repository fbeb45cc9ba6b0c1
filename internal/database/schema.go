package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL statements in dependency order.  Each is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('USER', 'ADMIN') NOT NULL DEFAULT 'USER',
		name VARCHAR(255) NOT NULL,
		blood_group VARCHAR(5),
		allergies TEXT,
		emergency_contact_1 VARCHAR(20) NOT NULL,
		emergency_contact_2 VARCHAR(20),
		emergency_contact_3 VARCHAR(20),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id INT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type ENUM('hospital', 'pharmacy', 'blood-bank', 'ambulance') NOT NULL,
		address TEXT NOT NULL,
		phone VARCHAR(20),
		lat DECIMAL(10, 8),
		lng DECIMAL(11, 8),
		is_open BOOLEAN DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS blood_requests (
		id INT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id INT UNSIGNED,
		blood_group VARCHAR(5) NOT NULL,
		hospital VARCHAR(255) NOT NULL,
		urgency ENUM('normal', 'urgent', 'critical') NOT NULL,
		contact VARCHAR(20) NOT NULL,
		location VARCHAR(255) NOT NULL,
		status ENUM('active', 'fulfilled') DEFAULT 'active',
		additional_info TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
