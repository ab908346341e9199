// Package shipstation is a minimal client for the two ShipStation calls
// used to produce a return label: create an order, then a label for it.
package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/returns-desk/internal/config"
)

type Address struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type Weight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

type Item struct {
	SKU      string `json:"sku,omitempty"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type OrderRequest struct {
	OrderNumber string  `json:"orderNumber"`
	OrderKey    string  `json:"orderKey,omitempty"`
	OrderDate   string  `json:"orderDate"`
	OrderStatus string  `json:"orderStatus"`
	BillTo      Address `json:"billTo"`
	ShipTo      Address `json:"shipTo"`
	Items       []Item  `json:"items,omitempty"`
	Weight      *Weight `json:"weight,omitempty"`
}

type LabelRequest struct {
	OrderID     int64  `json:"orderId"`
	CarrierCode string `json:"carrierCode"`
	ServiceCode string `json:"serviceCode"`
	PackageCode string `json:"packageCode"`
	ShipDate    string `json:"shipDate"`
	Weight      Weight `json:"weight"`
	TestLabel   bool   `json:"testLabel"`
}

// Label is what ShipStation returns for a created label.  LabelData is the
// base64 PDF.
type Label struct {
	ShipmentID     int64  `json:"shipmentId"`
	OrderID        int64  `json:"orderId"`
	TrackingNumber string `json:"trackingNumber"`
	LabelData      string `json:"labelData"`
}

// APIError is a non-2xx response.  Body is truncated and never includes
// the request's credentials.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shipstation %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	cfg  config.ShipStationConfig
	http *http.Client
}

func NewClient(cfg config.ShipStationConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// CreateOrder returns ShipStation's order id.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (int64, error) {
	var out struct {
		OrderID int64 `json:"orderId"`
	}
	// createorder upserts on orderKey, so a second attempt cannot duplicate.
	err := c.post(ctx, "create order", "/orders/createorder", req, &out)
	if transient(err) {
		err = c.post(ctx, "create order", "/orders/createorder", req, &out)
	}
	if err != nil {
		return 0, err
	}
	return out.OrderID, nil
}

// CreateLabel is not retried: a label is purchased on every call.
func (c *Client) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	var out Label
	if err := c.post(ctx, "create label", "/orders/createlabelfororder", req, &out); err != nil {
		return nil, err
	}
	if out.OrderID == 0 {
		out.OrderID = req.OrderID
	}
	return &out, nil
}

// transient reports failures worth one more attempt: transport errors and
// 5xx responses.
func transient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (c *Client) post(ctx context.Context, op, path string, in, out any) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("shipstation %s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("shipstation %s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(raw)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return &APIError{Op: op, Status: resp.StatusCode, Body: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("shipstation %s: decode: %w", op, err)
	}
	return nil
}
