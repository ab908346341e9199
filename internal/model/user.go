package model

import "time"

// User represents an application user record as stored in the `users`
// table.  BusinessID is nil for platform-level accounts (SuperAdmin).
type User struct {
	ID           uint64    `db:"id" json:"id"`                   // users.id
	Username     string    `db:"username" json:"username"`       // users.username
	PasswordHash string    `db:"password_hash" json:"-"`         // users.password_hash (bcrypt)
	RoleID       uint8     `db:"role_id" json:"role_id"`         // users.role_id
	BusinessID   *uint64   `db:"business_id" json:"business_id"` // users.business_id (nil for SuperAdmin)
	CreatedAt    time.Time `db:"created_at" json:"created_at"`   // users.created_at
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`   // users.updated_at
}
