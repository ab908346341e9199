package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/shipstation"
)

func newLabelFixture(carrier *fakeCarrier, b model.Business) (*LabelService, *fakeLabels) {
	sheets := newFakeSheets()
	_ = sheets.Create(context.Background(), &model.Sheet{BusinessID: 5, OrderNo: "BM-1", SKU: str("IP13-128"), CustomerName: str("Jane Doe")})
	labels := newFakeLabels()
	return NewLabelService(sheets, fakeBusinesses{5: b}, labels, carrier, testLog), labels
}

func fullBusiness() model.Business {
	return model.Business{
		ID: 5, Name: "Acme", AddressLine1: str("1 High St"), City: str("Leeds"),
		Postcode: str("LS1 1AA"), Country: str("GB"),
	}
}

var validLabel = LabelInput{CarrierCode: "royal_mail", ServiceCode: "rm_tracked_48", WeightValue: 12}

func TestLabelCreate(t *testing.T) {
	var gotOrder shipstation.OrderRequest
	var gotLabel shipstation.LabelRequest
	carrier := &fakeCarrier{
		CreateOrderFunc: func(_ context.Context, req shipstation.OrderRequest) (int64, error) {
			gotOrder = req
			return 77, nil
		},
		CreateLabelFunc: func(_ context.Context, req shipstation.LabelRequest) (*shipstation.Label, error) {
			gotLabel = req
			return &shipstation.Label{OrderID: 77, ShipmentID: 88, LabelData: "JVBERi0=", TrackingNumber: "TRK1"}, nil
		},
	}
	svc, labels := newLabelFixture(carrier, fullBusiness())

	l, err := svc.Create(context.Background(), businessUser(5), 1, validLabel)
	require.NoError(t, err)
	assert.Equal(t, model.LabelCreated, l.Status)
	assert.Equal(t, "TRK1", *l.TrackingNumber)
	assert.Equal(t, int64(88), *l.ShipmentID)
	assert.NotEmpty(t, l.CorrelationID)

	assert.Equal(t, "RMA-BM-1-1", gotOrder.OrderNumber)
	assert.Equal(t, l.CorrelationID, gotOrder.OrderKey)
	assert.Equal(t, "Jane Doe", gotOrder.BillTo.Name)
	assert.Equal(t, "LS1 1AA", gotOrder.ShipTo.PostalCode)
	require.Len(t, gotOrder.Items, 1)
	assert.Equal(t, int64(77), gotLabel.OrderID)
	assert.Equal(t, "package", gotLabel.PackageCode)
	assert.Equal(t, "ounces", gotLabel.Weight.Units)
	assert.NotEmpty(t, gotLabel.ShipDate)

	list, err := svc.ListBySheet(context.Background(), superAdmin(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, model.LabelCreated, labels.rows[l.ID].Status)
}

func TestLabelCarrierFailureIsRecorded(t *testing.T) {
	carrier := &fakeCarrier{
		CreateOrderFunc: func(context.Context, shipstation.OrderRequest) (int64, error) { return 77, nil },
		CreateLabelFunc: func(context.Context, shipstation.LabelRequest) (*shipstation.Label, error) {
			return nil, errors.New("carrier rejected service")
		},
	}
	svc, labels := newLabelFixture(carrier, fullBusiness())

	_, err := svc.Create(context.Background(), businessUser(5), 1, validLabel)
	require.Equal(t, KindUpstream, KindOf(err))
	require.Len(t, labels.rows, 1)
	row := labels.rows[1]
	assert.Equal(t, model.LabelFailed, row.Status)
	require.NotNil(t, row.OrderID)
	assert.Equal(t, int64(77), *row.OrderID)
	assert.Contains(t, *row.Error, "carrier rejected service")
}

func TestLabelValidation(t *testing.T) {
	never := &fakeCarrier{
		CreateOrderFunc: func(context.Context, shipstation.OrderRequest) (int64, error) {
			panic("carrier must not be called")
		},
	}
	b := fullBusiness()
	b.City = nil
	svc, labels := newLabelFixture(never, b)
	ctx := context.Background()

	_, err := svc.Create(ctx, businessUser(5), 1, validLabel)
	require.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "city")
	assert.Empty(t, labels.rows)

	_, err = svc.Create(ctx, businessUser(5), 1, LabelInput{WeightValue: 1})
	assert.Contains(t, err.Error(), "carrier_code")

	bad := validLabel
	bad.ShipDate = "15/03/2024"
	_, err = svc.Create(ctx, businessUser(5), 1, bad)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Create(ctx, businessUser(6), 1, validLabel)
	assert.Equal(t, KindNotFound, KindOf(err))
}
