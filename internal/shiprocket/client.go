// Package shiprocket is the carrier integration adapter: shipment creation,
// courier/AWB assignment, pickup, label generation, cancellation and
// AWB tracking against the Shiprocket external API.
package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MikyMack/stayRare-full/internal/models"
)

var (
	ErrCarrierRejected    = errors.New("carrier rejected the shipment")
	ErrNoCourierAvailable = errors.New("no serviceable courier found")
	ErrAssignmentFailed   = errors.New("AWB assignment failed")
	ErrLabelGeneration    = errors.New("label generation failed")
)

const (
	labelMaxRetries      = 5
	defaultPerItemWeight = 0.2 // kg, carrier rejects zero-weight parcels
)

type Client struct {
	baseURL        string
	email          string
	password       string
	pickupLocation string
	pickupPincode  string

	http      *http.Client
	baseDelay time.Duration // label retry backoff base

	mu    sync.Mutex
	token string
}

// NewClient builds a carrier client. The bearer token is fetched lazily on
// first use and refreshed on 401; a concurrent double-refresh is harmless.
func NewClient(baseURL, email, password, pickupLocation, pickupPincode string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		email:          email,
		password:       password,
		pickupLocation: pickupLocation,
		pickupPincode:  pickupPincode,
		http:           &http.Client{Timeout: 15 * time.Second},
		baseDelay:      5 * time.Second,
	}
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/external/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("shiprocket login: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("shiprocket login: decode: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("shiprocket login: no token in response (status %d)", resp.StatusCode)
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return out.Token, nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.authenticate(ctx)
}

// do performs an authenticated JSON call; on 401 it re-authenticates once and
// retries. The raw response body is returned for error diagnosis.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (int, []byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	status, body, err := c.doOnce(ctx, method, path, query, payload, token)
	if err == nil && status == http.StatusUnauthorized {
		if token, err = c.authenticate(ctx); err != nil {
			return 0, nil, err
		}
		status, body, err = c.doOnce(ctx, method, path, query, payload, token)
	}
	return status, body, err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload interface{}, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// OrderWeight sums declared per-item weights, falling back to a fixed
// per-item weight when absent. Never zero: the carrier rejects weightless
// parcels.
func OrderWeight(items []models.OrderItem) float64 {
	if len(items) == 0 {
		return 1
	}
	total := 0.0
	for _, item := range items {
		w := item.Weight
		if w == 0 {
			w = defaultPerItemWeight
		}
		total += w
	}
	return total
}

// shipmentIDValue renders a stored shipment id the way the carrier expects:
// numeric when possible.
func shipmentIDValue(id string) interface{} {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

type ShipmentResult struct {
	ShipmentID     string
	CarrierOrderID string
}

// CreateShipment registers the order with the carrier and returns the
// shipment id plus the carrier-side order id.
func (c *Client) CreateShipment(ctx context.Context, order *models.Order, addr models.Address, paymentMethod string) (*ShipmentResult, error) {
	nameParts := strings.Fields(strings.TrimSpace(addr.Name))
	firstName := "Customer"
	lastName := ""
	if len(nameParts) > 0 {
		firstName = nameParts[0]
		lastName = strings.Join(nameParts[1:], " ")
	}

	method := "Prepaid"
	if paymentMethod == models.MethodCOD {
		method = "COD"
	}

	orderItems := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.Name
		if name == "" {
			name = "Product"
		}
		orderItems = append(orderItems, map[string]interface{}{
			"name":          name,
			"sku":           item.Product.Hex(),
			"units":         item.Quantity,
			"selling_price": item.Price,
			"discount":      0,
			"tax":           0,
			"hsn":           123,
		})
	}

	payload := map[string]interface{}{
		"order_id":              order.ID.Hex(),
		"order_date":            order.CreatedAt.Format("2006-01-02"),
		"pickup_location":       c.pickupLocation,
		"billing_customer_name": firstName,
		"billing_last_name":     lastName,
		"billing_address":       addr.AddressLine1,
		"billing_address_2":     addr.AddressLine2,
		"billing_city":          addr.City,
		"billing_pincode":       addr.Pincode,
		"billing_state":         addr.State,
		"billing_country":       "India",
		"billing_email":         addr.Email,
		"billing_phone":         addr.Phone,
		"shipping_is_billing":   true,
		"order_items":           orderItems,
		"payment_method":        method,
		"sub_total":             order.TotalAmount,
		"length":                10,
		"breadth":               10,
		"height":                10,
		"weight":                OrderWeight(order.Items),
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v1/external/orders/create/adhoc", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("shiprocket create order: %w", err)
	}

	var out struct {
		ShipmentID json.Number `json:"shipment_id"`
		OrderID    json.Number `json:"order_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ShipmentID.String() == "" {
		log.Printf("❌ Shiprocket create order response (status %d): %s", status, body)
		return nil, fmt.Errorf("shipment id missing in carrier response: %w", ErrCarrierRejected)
	}

	carrierOrderID := out.OrderID.String()
	if carrierOrderID == "" {
		carrierOrderID = order.ID.Hex()
	}
	return &ShipmentResult{
		ShipmentID:     out.ShipmentID.String(),
		CarrierOrderID: carrierOrderID,
	}, nil
}

type AWBResult struct {
	AWBCode     string
	CourierName string
}

// AssignCourier checks serviceability for the destination pincode and parcel
// weight, picks the recommended courier, and requests AWB assignment.
func (c *Client) AssignCourier(ctx context.Context, shipmentID string, addr models.Address, items []models.OrderItem) (*AWBResult, error) {
	if addr.Pincode == "" {
		return nil, fmt.Errorf("shipping pincode missing for AWB assignment")
	}

	query := url.Values{}
	query.Set("pickup_postcode", c.pickupPincode)
	query.Set("delivery_postcode", addr.Pincode)
	query.Set("weight", strconv.FormatFloat(OrderWeight(items), 'f', -1, 64))
	query.Set("cod", "0")

	status, body, err := c.do(ctx, http.MethodGet, "/v1/external/courier/serviceability/", query, nil)
	if err != nil {
		return nil, fmt.Errorf("shiprocket serviceability: %w", err)
	}

	var svc struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierCompanyID json.Number `json:"courier_company_id"`
				CourierName      string      `json:"courier_name"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &svc); err != nil || len(svc.Data.AvailableCourierCompanies) == 0 {
		log.Printf("⚠️ Shiprocket serviceability response (status %d): %s", status, body)
		return nil, ErrNoCourierAvailable
	}
	recommended := svc.Data.AvailableCourierCompanies[0]

	payload := map[string]interface{}{
		"shipment_id": []interface{}{shipmentIDValue(shipmentID)},
		"courier_id":  recommended.CourierCompanyID,
	}
	status, body, err = c.do(ctx, http.MethodPost, "/v1/external/courier/assign/awb", nil, payload)
	if err != nil {
		return nil, fmt.Errorf("shiprocket assign awb: %w", err)
	}

	var assign struct {
		AWBAssignStatus int `json:"awb_assign_status"`
		Response        struct {
			Data struct {
				AWBCode     string `json:"awb_code"`
				CourierName string `json:"courier_name"`
			} `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &assign); err != nil || assign.AWBAssignStatus != 1 {
		log.Printf("❌ Shiprocket AWB assignment response (status %d): %s", status, body)
		return nil, fmt.Errorf("%w: %s", ErrAssignmentFailed, body)
	}

	courierName := assign.Response.Data.CourierName
	if courierName == "" {
		courierName = recommended.CourierName
	}
	return &AWBResult{
		AWBCode:     assign.Response.Data.AWBCode,
		CourierName: courierName,
	}, nil
}

// RequestPickup queues the shipment for courier pickup. "Already in Pickup
// Queue." from the carrier counts as success.
func (c *Client) RequestPickup(ctx context.Context, shipmentID string) error {
	payload := map[string]interface{}{
		"shipment_id": []interface{}{shipmentIDValue(shipmentID)},
	}
	status, body, err := c.do(ctx, http.MethodPost, "/v1/external/courier/generate/pickup", nil, payload)
	if err != nil {
		return fmt.Errorf("shiprocket pickup: %w", err)
	}

	if status >= 200 && status < 300 {
		return nil
	}

	var out struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &out)
	if out.Message == "Already in Pickup Queue." {
		log.Printf("ℹ️ Shipment %s already in pickup queue, skipping", shipmentID)
		return nil
	}

	log.Printf("❌ Shiprocket pickup response (status %d): %s", status, body)
	return fmt.Errorf("shiprocket pickup failed: %s", out.Message)
}

// GenerateLabel asks the carrier for a shipping label. The endpoint is
// eventually consistent after shipment creation, so it is retried with
// exponential backoff; exhausting retries does not invalidate the shipment.
func (c *Client) GenerateLabel(ctx context.Context, shipmentID string) (string, error) {
	payload := map[string]interface{}{
		"shipment_id": []interface{}{shipmentIDValue(shipmentID)},
	}

	var lastErr error
	for attempt := 0; attempt < labelMaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			log.Printf("⏳ Waiting %s before label generation attempt %d for shipment %s", delay, attempt+1, shipmentID)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		status, body, err := c.do(ctx, http.MethodPost, "/v1/external/courier/generate/label", nil, payload)
		if err != nil {
			lastErr = err
			continue
		}

		var out struct {
			LabelURL string `json:"label_url"`
		}
		if err := json.Unmarshal(body, &out); err == nil && out.LabelURL != "" {
			return out.LabelURL, nil
		}
		lastErr = fmt.Errorf("label URL missing in response (status %d)", status)
		log.Printf("⚠️ Label generation attempt %d failed for shipment %s: %v", attempt+1, shipmentID, lastErr)
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrLabelGeneration, labelMaxRetries, lastErr)
}

// CancelShipment cancels a shipment with the carrier. It is safe to call
// repeatedly and safe to call for shipments that were never fully created:
// an absent or already-cancelled shipment counts as success.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) error {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/external/shipments/"+shipmentID, nil, nil)
	if err != nil {
		return fmt.Errorf("shiprocket shipment lookup: %w", err)
	}
	if status == http.StatusNotFound {
		log.Printf("ℹ️ Shipment %s not found at carrier, treating cancel as done", shipmentID)
		return nil
	}

	var lookup struct {
		Data *struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &lookup); err == nil {
		if lookup.Data == nil {
			log.Printf("ℹ️ Shipment %s absent at carrier, treating cancel as done", shipmentID)
			return nil
		}
		if lookup.Data.Status == "Cancelled" {
			return nil
		}
	}

	payload := map[string]interface{}{
		"ids": []interface{}{shipmentIDValue(shipmentID)},
	}
	status, body, err = c.do(ctx, http.MethodPost, "/v1/external/orders/cancel", nil, payload)
	if err != nil {
		return fmt.Errorf("shiprocket cancel: %w", err)
	}
	if status >= 200 && status < 300 {
		return nil
	}

	var out struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &out)
	if strings.Contains(out.Message, "does not exist") {
		return nil
	}

	log.Printf("❌ Shiprocket cancel response (status %d): %s", status, body)
	return fmt.Errorf("shiprocket cancellation failed: %s", out.Message)
}

// RawTrackEvent is one scan row exactly as the carrier reports it.
type RawTrackEvent struct {
	CurrentStatus    string `json:"current_status"`
	Origin           string `json:"origin"`
	Destination      string `json:"destination"`
	PodStatus        string `json:"pod_status"`
	AWBCode          string `json:"awb_code"`
	UpdatedTimestamp string `json:"updated_time_stamp"`
	PickupDate       string `json:"pickup_date"`
	CourierName      string `json:"courier_name"`
	EDD              string `json:"edd"`
}

type TrackingResult struct {
	ShipmentStatus string
	Events         []RawTrackEvent
	ETD            string
}

// TrackByAWB fetches the carrier's tracking feed for an AWB.
func (c *Client) TrackByAWB(ctx context.Context, awbCode string) (*TrackingResult, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/v1/external/courier/track/awb/"+awbCode, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("shiprocket track: %w", err)
	}

	var out struct {
		TrackingData struct {
			ShipmentStatus json.Number     `json:"shipment_status"`
			ShipmentTrack  []RawTrackEvent `json:"shipment_track"`
			ETD            string          `json:"etd"`
		} `json:"tracking_data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		log.Printf("⚠️ Shiprocket tracking response (status %d): %s", status, body)
		return nil, fmt.Errorf("shiprocket track: decode: %w", err)
	}

	return &TrackingResult{
		ShipmentStatus: out.TrackingData.ShipmentStatus.String(),
		Events:         out.TrackingData.ShipmentTrack,
		ETD:            out.TrackingData.ETD,
	}, nil
}
