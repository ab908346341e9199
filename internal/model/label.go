package model

import "time"

// Label statuses.  A row is written as pending before the carrier is called
// and settled afterwards, so a crash between the two leaves a visible trace.
const (
	LabelPending = "pending"
	LabelCreated = "created"
	LabelFailed  = "failed"
)

// ShipStationLabel is an append-only record of a generated return label.
type ShipStationLabel struct {
	ID             uint64    `db:"id" json:"id"`                           // shipstation_labels.id
	SheetID        uint64    `db:"sheet_id" json:"sheet_id"`               // shipstation_labels.sheet_id
	BusinessID     uint64    `db:"business_id" json:"business_id"`         // shipstation_labels.business_id
	CorrelationID  string    `db:"correlation_id" json:"correlation_id"`   // shipstation_labels.correlation_id
	Status         string    `db:"status" json:"status"`                   // shipstation_labels.status
	OrderID        *int64    `db:"order_id" json:"order_id"`               // shipstation_labels.order_id (set once the order exists)
	ShipmentID     *int64    `db:"shipment_id" json:"shipment_id"`         // shipstation_labels.shipment_id
	LabelData      *string   `db:"label_data" json:"label_data,omitempty"` // shipstation_labels.label_data (base64 PDF)
	TrackingNumber *string   `db:"tracking_number" json:"tracking_number"` // shipstation_labels.tracking_number
	Error          *string   `db:"error" json:"error,omitempty"`           // shipstation_labels.error (failed rows only)
	CreatedBy      *uint64   `db:"created_by" json:"created_by"`           // shipstation_labels.created_by
	CreatedAt      time.Time `db:"created_at" json:"created_at"`           // shipstation_labels.created_at
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`           // shipstation_labels.updated_at
}
