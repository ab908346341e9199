package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// EnquiryStatus is the tri-state ticket status.
type EnquiryStatus string

const (
	StatusAwaitingBusiness EnquiryStatus = "Awaiting Business"
	StatusAwaitingTechezm  EnquiryStatus = "Awaiting Techezm"
	StatusResolved         EnquiryStatus = "Resolved"
)

func (s EnquiryStatus) Valid() bool {
	switch s {
	case StatusAwaitingBusiness, StatusAwaitingTechezm, StatusResolved:
		return true
	}
	return false
}

// EnquiryPlatform is chosen by the caller and is unrelated to the sheet's
// derived platform label.
type EnquiryPlatform string

const (
	EnquiryAmazon     EnquiryPlatform = "amazon"
	EnquiryBackMarket EnquiryPlatform = "backmarket"
)

func (p EnquiryPlatform) Valid() bool {
	return p == EnquiryAmazon || p == EnquiryBackMarket
}

// ParseEnquiryPlatform lower-cases and trims before checking.
func ParseEnquiryPlatform(s string) (EnquiryPlatform, bool) {
	p := EnquiryPlatform(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

const MaxEnquiryDescription = 2000

// Enquiry is a conversation between a business and the operations team
// about one order.  At most one exists per (business, order number).
type Enquiry struct {
	ID                uint64          `db:"id" json:"id"`
	BusinessID        uint64          `db:"business_id" json:"business_id"`
	BusinessName      string          `db:"business_name" json:"business_name"`
	OrderNumber       string          `db:"order_number" json:"order_number"`
	Platform          EnquiryPlatform `db:"platform" json:"platform"`
	Description       string          `db:"description" json:"description"`
	Status            EnquiryStatus   `db:"status" json:"status"`
	CreatedBy         uint64          `db:"created_by" json:"created_by"`
	CreatedByUsername string          `db:"created_by_username" json:"created_by_username"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// MessageAttachment is the metadata kept inline with a message.
type MessageAttachment struct {
	FileName     string `json:"file_name"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// MessageAttachments is stored as a JSON array column.
type MessageAttachments []MessageAttachment

func (a MessageAttachments) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *MessageAttachments) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("message attachments: unsupported column type")
	}
	if len(b) == 0 || string(b) == "null" {
		*a = nil
		return nil
	}
	return json.Unmarshal(b, a)
}

// EnquiryMessage is append-only; created_at order is conversation order.
type EnquiryMessage struct {
	ID             uint64             `db:"id" json:"id"`
	EnquiryID      uint64             `db:"enquiry_id" json:"enquiry_id"`
	Message        *string            `db:"message" json:"message"`
	Attachments    MessageAttachments `db:"attachments" json:"attachments"`
	CreatedBy      uint64             `db:"created_by" json:"created_by"`
	AuthorUsername string             `db:"author_username" json:"author_username"`
	AuthorRoleID   uint8              `db:"author_role_id" json:"author_role_id"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

// EnquiryDetail is an enquiry with its full conversation.
type EnquiryDetail struct {
	Enquiry
	Messages []EnquiryMessage `json:"messages"`
}
