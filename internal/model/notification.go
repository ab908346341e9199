package model

import "time"

// Notification types.
const (
	NotifyEnquiryCreated = "enquiry_created"
	NotifyEnquiryReply   = "enquiry_reply"
	NotifyEnquiryStatus  = "enquiry_status"
)

// Audience tells which side a notification is for.  Operations rows have
// no business id, so tenant-scoped reads never return them.
const (
	AudienceBusiness   = "business"
	AudienceOperations = "operations"
)

// Notification is inserted on enquiry events and read by polling.
type Notification struct {
	ID          uint64    `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Audience    string    `db:"audience" json:"audience"`
	EnquiryID   *uint64   `db:"enquiry_id" json:"enquiry_id"`
	OrderNumber *string   `db:"order_number" json:"order_number"`
	BusinessID  *uint64   `db:"business_id" json:"business_id"`
	UserID      *uint64   `db:"user_id" json:"user_id"`
	Message     string    `db:"message" json:"message"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
