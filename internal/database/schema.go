package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// statements are applied in order; every one is idempotent.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id TINYINT UNSIGNED PRIMARY KEY,
		name VARCHAR(32) NOT NULL UNIQUE
	)`,
	`INSERT IGNORE INTO roles (id, name) VALUES (1, 'SuperAdmin'), (2, 'BusinessAdmin'), (3, 'User')`,
	`CREATE TABLE IF NOT EXISTS businesses (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		currency_code CHAR(3) NOT NULL DEFAULT 'GBP',
		currency_symbol VARCHAR(8) NOT NULL DEFAULT '£',
		address_line1 VARCHAR(255) NULL,
		address_line2 VARCHAR(255) NULL,
		city VARCHAR(128) NULL,
		postcode VARCHAR(32) NULL,
		country VARCHAR(2) NULL,
		phone VARCHAR(64) NULL,
		owner_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(128) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role_id TINYINT UNSIGNED NOT NULL,
		business_id BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_users_role FOREIGN KEY (role_id) REFERENCES roles(id),
		CONSTRAINT fk_users_business FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sheets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		date_received DATE NULL,
		order_date DATE NULL,
		order_no VARCHAR(64) NOT NULL,
		customer_name VARCHAR(255) NULL,
		imei VARCHAR(64) NULL,
		sku VARCHAR(128) NULL,
		customer_comment TEXT NULL,
		return_type VARCHAR(64) NULL,
		blocked_by VARCHAR(64) NULL,
		cs_comment TEXT NULL,
		resolution VARCHAR(64) NULL,
		refund_amount DECIMAL(10,2) NULL,
		return_tracking_no VARCHAR(128) NULL,
		issue VARCHAR(128) NULL,
		status VARCHAR(64) NULL,
		manager_notes TEXT NULL,
		additional_notes TEXT NULL,
		platform VARCHAR(32) NOT NULL DEFAULT '',
		return_within_30_days VARCHAR(3) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_sheets_business_received (business_id, date_received),
		INDEX idx_sheets_order_no (order_no),
		CONSTRAINT fk_sheets_business FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		sheet_id BIGINT UNSIGNED NOT NULL,
		business_id BIGINT UNSIGNED NOT NULL,
		file_name VARCHAR(255) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL,
		mime_type VARCHAR(128) NOT NULL,
		remote_path VARCHAR(512) NOT NULL,
		uploaded_by BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_attachments_sheet (sheet_id),
		CONSTRAINT fk_attachments_sheet FOREIGN KEY (sheet_id) REFERENCES sheets(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS enquiries (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL,
		order_number VARCHAR(64) NOT NULL,
		platform VARCHAR(16) NOT NULL,
		description VARCHAR(2000) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Awaiting Business',
		created_by BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_enquiries_business_order (business_id, order_number),
		INDEX idx_enquiries_status (status),
		CONSTRAINT fk_enquiries_business FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS enquiry_messages (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		enquiry_id BIGINT UNSIGNED NOT NULL,
		message TEXT NULL,
		attachments JSON NULL,
		created_by BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_enquiry_messages_enquiry (enquiry_id, created_at),
		CONSTRAINT fk_enquiry_messages_enquiry FOREIGN KEY (enquiry_id) REFERENCES enquiries(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		audience VARCHAR(16) NOT NULL,
		enquiry_id BIGINT UNSIGNED NULL,
		order_number VARCHAR(64) NULL,
		business_id BIGINT UNSIGNED NULL,
		user_id BIGINT UNSIGNED NULL,
		message VARCHAR(512) NOT NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_notifications_business (business_id, created_at),
		INDEX idx_notifications_user (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS backmarket_credentials (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		business_id BIGINT UNSIGNED NOT NULL UNIQUE,
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		updated_by BIGINT UNSIGNED NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_bm_business FOREIGN KEY (business_id) REFERENCES businesses(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS shipstation_labels (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		sheet_id BIGINT UNSIGNED NOT NULL,
		business_id BIGINT UNSIGNED NOT NULL,
		correlation_id CHAR(36) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		order_id BIGINT NULL,
		shipment_id BIGINT NULL,
		label_data MEDIUMTEXT NULL,
		tracking_number VARCHAR(128) NULL,
		error VARCHAR(512) NULL,
		created_by BIGINT UNSIGNED NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_labels_sheet (sheet_id)
	)`,
}

// Migrate creates the schema if it does not exist and seeds the fixed roles.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
