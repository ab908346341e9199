// Package queue defines message payloads exchanged over the message broker.
package queue

// EnquiryEventsQueue carries every state change of an enquiry.
const EnquiryEventsQueue = "enquiry.events"

// Event kinds.
const (
	EventEnquiryCreated = "enquiry.created"
	EventEnquiryReplied = "enquiry.replied"
	EventEnquiryStatus  = "enquiry.status_changed"
)

// EnquiryEvent is published after an enquiry is created, replied to or has
// its status set.  It carries enough for an audit trail without querying
// the primary database.
type EnquiryEvent struct {
	Kind          string `json:"kind"`
	EnquiryID     uint64 `json:"enquiry_id"`
	BusinessID    uint64 `json:"business_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	ActorID       uint64 `json:"actor_id"`
	ActorUsername string `json:"actor_username"`
	ActorRole     string `json:"actor_role"`
	Attachments   int    `json:"attachments,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
