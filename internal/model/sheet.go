package model

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlatformBackMarket = "Back Market"
	PlatformAmazon     = "Amazon"

	Within30Yes = "Yes"
	Within30No  = "No"

	dateLayout = "2006-01-02"
)

// Sheet is one return/refund case.  Dates are carried as YYYY-MM-DD strings
// because that is how they are entered and displayed; Platform and
// ReturnWithin30Days are never accepted from clients.
type Sheet struct {
	ID                 uint64              `db:"id" json:"id"`
	BusinessID         uint64              `db:"business_id" json:"business_id"`
	DateReceived       *string             `db:"date_received" json:"date_received"`
	OrderDate          *string             `db:"order_date" json:"order_date"`
	OrderNo            string              `db:"order_no" json:"order_no"`
	CustomerName       *string             `db:"customer_name" json:"customer_name"`
	IMEI               *string             `db:"imei" json:"imei"`
	SKU                *string             `db:"sku" json:"sku"`
	CustomerComment    *string             `db:"customer_comment" json:"customer_comment"`
	ReturnType         *string             `db:"return_type" json:"return_type"`
	BlockedBy          *string             `db:"blocked_by" json:"blocked_by"`
	CSComment          *string             `db:"cs_comment" json:"cs_comment"`
	Resolution         *string             `db:"resolution" json:"resolution"`
	RefundAmount       decimal.NullDecimal `db:"refund_amount" json:"refund_amount"`
	ReturnTrackingNo   *string             `db:"return_tracking_no" json:"return_tracking_no"`
	Issue              *string             `db:"issue" json:"issue"`
	Status             *string             `db:"status" json:"status"`
	ManagerNotes       *string             `db:"manager_notes" json:"manager_notes"`
	AdditionalNotes    *string             `db:"additional_notes" json:"additional_notes"`
	Platform           string              `db:"platform" json:"platform"`
	ReturnWithin30Days string              `db:"return_within_30_days" json:"return_within_30_days"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// SheetPatch is a partial update.  A nil field was not sent and must keep
// its stored value.
type SheetPatch struct {
	DateReceived     *string          `json:"date_received"`
	OrderDate        *string          `json:"order_date"`
	OrderNo          *string          `json:"order_no"`
	CustomerName     *string          `json:"customer_name"`
	IMEI             *string          `json:"imei"`
	SKU              *string          `json:"sku"`
	CustomerComment  *string          `json:"customer_comment"`
	ReturnType       *string          `json:"return_type"`
	BlockedBy        *string          `json:"blocked_by"`
	CSComment        *string          `json:"cs_comment"`
	Resolution       *string          `json:"resolution"`
	RefundAmount     *decimal.Decimal `json:"refund_amount"`
	ReturnTrackingNo *string          `json:"return_tracking_no"`
	Issue            *string          `json:"issue"`
	Status           *string          `json:"status"`
	ManagerNotes     *string          `json:"manager_notes"`
	AdditionalNotes  *string          `json:"additional_notes"`
}

// Apply copies every sent field onto s and returns the column names that
// were touched, in a stable order.  Derived fields are not recomputed here.
func (p SheetPatch) Apply(s *Sheet) []string {
	var cols []string
	setStr := func(col string, src *string, dst **string) {
		if src == nil {
			return
		}
		v := *src
		*dst = &v
		cols = append(cols, col)
	}
	// an empty date clears the column
	setDate := func(col string, src *string, dst **string) {
		if src == nil {
			return
		}
		*dst = nil
		if v := NormalizeDate(*src); v != "" {
			*dst = &v
		}
		cols = append(cols, col)
	}
	setDate("date_received", p.DateReceived, &s.DateReceived)
	setDate("order_date", p.OrderDate, &s.OrderDate)
	if p.OrderNo != nil {
		s.OrderNo = strings.TrimSpace(*p.OrderNo)
		cols = append(cols, "order_no")
	}
	setStr("customer_name", p.CustomerName, &s.CustomerName)
	setStr("imei", p.IMEI, &s.IMEI)
	setStr("sku", p.SKU, &s.SKU)
	setStr("customer_comment", p.CustomerComment, &s.CustomerComment)
	setStr("return_type", p.ReturnType, &s.ReturnType)
	setStr("blocked_by", p.BlockedBy, &s.BlockedBy)
	setStr("cs_comment", p.CSComment, &s.CSComment)
	setStr("resolution", p.Resolution, &s.Resolution)
	if p.RefundAmount != nil {
		s.RefundAmount = decimal.NewNullDecimal(*p.RefundAmount)
		cols = append(cols, "refund_amount")
	}
	setStr("return_tracking_no", p.ReturnTrackingNo, &s.ReturnTrackingNo)
	setStr("issue", p.Issue, &s.Issue)
	setStr("status", p.Status, &s.Status)
	setStr("manager_notes", p.ManagerNotes, &s.ManagerNotes)
	setStr("additional_notes", p.AdditionalNotes, &s.AdditionalNotes)
	return cols
}

// SheetDerived holds the two fields computed at write time.
type SheetDerived struct {
	Platform           string
	ReturnWithin30Days string
}

var backMarketOrderNo = regexp.MustCompile(`^\d{8}$`)

// DeriveSheetFields is the only place platform and the 30-day flag are
// computed.  Both create and update call it on the merged record.
func DeriveSheetFields(orderNo string, dateReceived, orderDate *string) SheetDerived {
	return SheetDerived{
		Platform:           ClassifyPlatform(orderNo),
		ReturnWithin30Days: ReturnWithin30Days(deref(dateReceived), deref(orderDate)),
	}
}

// ClassifyPlatform: exactly eight ASCII digits is Back Market, anything
// else is Amazon.
func ClassifyPlatform(orderNo string) string {
	if backMarketOrderNo.MatchString(strings.TrimSpace(orderNo)) {
		return PlatformBackMarket
	}
	return PlatformAmazon
}

// ReturnWithin30Days is "Yes" when floor((received-ordered)/1 day) <= 30,
// "No" otherwise, and "" when either date is missing or unparseable.
func ReturnWithin30Days(dateReceived, orderDate string) string {
	received, ok1 := parseDate(dateReceived)
	ordered, ok2 := parseDate(orderDate)
	if !ok1 || !ok2 {
		return ""
	}
	days := math.Floor(received.Sub(ordered).Hours() / 24)
	if days <= 30 {
		return Within30Yes
	}
	return Within30No
}

// ApplyDerived recomputes the derived fields from s's own values.
func (s *Sheet) ApplyDerived() {
	d := DeriveSheetFields(s.OrderNo, s.DateReceived, s.OrderDate)
	s.Platform = d.Platform
	s.ReturnWithin30Days = d.ReturnWithin30Days
}

// parseDate accepts YYYY-MM-DD or anything whose first ten characters are
// one (RFC 3339 timestamps from date pickers).
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDate trims a date to YYYY-MM-DD; "" stays "".  Unparseable input
// is returned unchanged so validation can report it.
func NormalizeDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format(dateLayout)
	}
	return strings.TrimSpace(s)
}

// ValidDate reports whether s is empty or a parseable date.
func ValidDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	_, ok := parseDate(s)
	return ok
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
