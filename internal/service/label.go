package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/shipstation"
)

type LabelStore interface {
	CreatePending(ctx context.Context, l *model.ShipStationLabel) error
	MarkCreated(ctx context.Context, l *model.ShipStationLabel) error
	MarkFailed(ctx context.Context, id uint64, orderID *int64, reason string) error
	ListBySheet(ctx context.Context, sheetID, businessID uint64) ([]model.ShipStationLabel, error)
}

// Carrier is the shipping label API.
type Carrier interface {
	CreateOrder(ctx context.Context, req shipstation.OrderRequest) (int64, error)
	CreateLabel(ctx context.Context, req shipstation.LabelRequest) (*shipstation.Label, error)
}

type LabelInput struct {
	CarrierCode string  `json:"carrier_code" validate:"required"`
	ServiceCode string  `json:"service_code" validate:"required"`
	PackageCode string  `json:"package_code"`
	WeightValue float64 `json:"weight_value" validate:"gt=0"`
	WeightUnits string  `json:"weight_units" validate:"omitempty,oneof=ounces pounds grams"`
	ShipDate    string  `json:"ship_date"`
	TestLabel   bool    `json:"test_label"`
}

// LabelService produces return labels.  A pending row is written before
// the carrier is called and settled afterwards, so every external side
// effect has a local trace even if the process dies mid-flow.
type LabelService struct {
	sheets     sheetGetter
	businesses BusinessStore
	labels     LabelStore
	carrier    Carrier
	log        echo.Logger
	now        func() time.Time
}

func NewLabelService(sheets sheetGetter, businesses BusinessStore, labels LabelStore, carrier Carrier, logger echo.Logger) *LabelService {
	return &LabelService{sheets: sheets, businesses: businesses, labels: labels, carrier: carrier, log: logger, now: time.Now}
}

func (s *LabelService) Create(ctx context.Context, p rbac.Principal, sheetID uint64, in LabelInput) (*model.ShipStationLabel, error) {
	var missing []string
	if strings.TrimSpace(in.CarrierCode) == "" {
		missing = append(missing, "carrier_code")
	}
	if strings.TrimSpace(in.ServiceCode) == "" {
		missing = append(missing, "service_code")
	}
	if len(missing) > 0 {
		return nil, Missing(missing...)
	}
	if in.WeightValue <= 0 {
		return nil, Validation("weight_value must be positive")
	}
	if in.PackageCode == "" {
		in.PackageCode = "package"
	}
	if in.WeightUnits == "" {
		in.WeightUnits = "ounces"
	}
	if in.ShipDate == "" {
		in.ShipDate = s.now().UTC().Format("2006-01-02")
	} else if _, ok := parseDay(in.ShipDate); !ok {
		return nil, Validation("ship_date must be YYYY-MM-DD")
	}

	sh, err := loadSheet(ctx, s.sheets, p, sheetID)
	if err != nil {
		return nil, err
	}
	biz, err := s.businesses.GetByID(ctx, sh.BusinessID)
	if err != nil {
		return nil, notFoundAs(err, "business")
	}
	shipTo, err := businessAddress(biz)
	if err != nil {
		return nil, err
	}

	creator := p.UserID
	label := &model.ShipStationLabel{
		SheetID: sh.ID, BusinessID: sh.BusinessID, CorrelationID: uuid.NewString(), CreatedBy: &creator,
	}
	if err := s.labels.CreatePending(ctx, label); err != nil {
		return nil, err
	}

	customer := "Customer"
	if sh.CustomerName != nil && strings.TrimSpace(*sh.CustomerName) != "" {
		customer = strings.TrimSpace(*sh.CustomerName)
	}
	order := shipstation.OrderRequest{
		OrderNumber: fmt.Sprintf("RMA-%s-%d", sh.OrderNo, sh.ID),
		OrderKey:    label.CorrelationID,
		OrderDate:   s.now().UTC().Format("2006-01-02T15:04:05"),
		OrderStatus: "awaiting_shipment",
		BillTo:      shipstation.Address{Name: customer},
		ShipTo:      shipTo,
		Weight:      &shipstation.Weight{Value: in.WeightValue, Units: in.WeightUnits},
	}
	if sh.SKU != nil && *sh.SKU != "" {
		order.Items = []shipstation.Item{{SKU: *sh.SKU, Name: *sh.SKU, Quantity: 1}}
	}

	// The external calls must finish and be recorded even if the client
	// goes away.
	callCtx := context.WithoutCancel(ctx)
	orderID, err := s.carrier.CreateOrder(callCtx, order)
	if err != nil {
		return nil, s.fail(callCtx, label, nil, "create order", err)
	}
	l, err := s.carrier.CreateLabel(callCtx, shipstation.LabelRequest{
		OrderID:     orderID,
		CarrierCode: in.CarrierCode,
		ServiceCode: in.ServiceCode,
		PackageCode: in.PackageCode,
		ShipDate:    in.ShipDate,
		Weight:      shipstation.Weight{Value: in.WeightValue, Units: in.WeightUnits},
		TestLabel:   in.TestLabel,
	})
	if err != nil {
		return nil, s.fail(callCtx, label, &orderID, "create label", err)
	}

	label.OrderID = &l.OrderID
	label.ShipmentID = &l.ShipmentID
	label.LabelData = &l.LabelData
	label.TrackingNumber = &l.TrackingNumber
	if err := s.labels.MarkCreated(callCtx, label); err != nil {
		s.log.Errorf("label %s: created upstream (order %d, shipment %d) but not recorded: %v",
			label.CorrelationID, l.OrderID, l.ShipmentID, err)
		return nil, err
	}
	return label, nil
}

func (s *LabelService) fail(ctx context.Context, label *model.ShipStationLabel, orderID *int64, step string, cause error) error {
	s.log.Errorf("label %s: %s failed: %v", label.CorrelationID, step, cause)
	if err := s.labels.MarkFailed(ctx, label.ID, orderID, step+": "+cause.Error()); err != nil {
		s.log.Errorf("label %s: mark failed: %v", label.CorrelationID, err)
	}
	return Upstream("ShipStation "+step+" failed", cause)
}

func (s *LabelService) ListBySheet(ctx context.Context, p rbac.Principal, sheetID uint64) ([]model.ShipStationLabel, error) {
	sh, err := loadSheet(ctx, s.sheets, p, sheetID)
	if err != nil {
		return nil, err
	}
	return s.labels.ListBySheet(ctx, sh.ID, sh.BusinessID)
}

func businessAddress(b *model.Business) (shipstation.Address, error) {
	var missing []string
	field := func(name string, v *string) string {
		if v == nil || strings.TrimSpace(*v) == "" {
			missing = append(missing, name)
			return ""
		}
		return strings.TrimSpace(*v)
	}
	a := shipstation.Address{
		Name:       b.Name,
		Company:    b.Name,
		Street1:    field("address_line1", b.AddressLine1),
		City:       field("city", b.City),
		PostalCode: field("postcode", b.Postcode),
		Country:    field("country", b.Country),
	}
	if b.AddressLine2 != nil {
		a.Street2 = *b.AddressLine2
	}
	if b.Phone != nil {
		a.Phone = *b.Phone
	}
	if len(missing) > 0 {
		return a, Validation("business address incomplete: %s", strings.Join(missing, ", "))
	}
	return a, nil
}
