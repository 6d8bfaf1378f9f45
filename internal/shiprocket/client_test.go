package shiprocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/models"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "ops@example.com", "secret", "warehouse-1", "682001")
	c.baseDelay = time.Millisecond
	return c
}

func withLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/external/auth/login" {
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
			return
		}
		next(w, r)
	}
}

func testOrder() *models.Order {
	return &models.Order{
		ID: primitive.NewObjectID(),
		Items: []models.OrderItem{
			{Product: primitive.NewObjectID(), Name: "Cotton Kurta", Quantity: 2, Price: 1598, Weight: 0.5},
		},
		TotalAmount: 1598,
		CreatedAt:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func testAddress() models.Address {
	return models.Address{
		Name:         "Asha Nair",
		Phone:        "9876543210",
		Email:        "asha@example.com",
		Pincode:      "695001",
		State:        "Kerala",
		City:         "Thiruvananthapuram",
		AddressLine1: "12 Church Road",
	}
}

func TestOrderWeight(t *testing.T) {
	assert.Equal(t, 1.0, OrderWeight(nil))
	assert.InDelta(t, 0.4, OrderWeight([]models.OrderItem{{}, {}}), 1e-9)
	assert.InDelta(t, 1.7, OrderWeight([]models.OrderItem{{Weight: 1.5}, {}}), 1e-9)
}

func TestCreateShipment(t *testing.T) {
	var captured map[string]interface{}
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/external/orders/create/adhoc", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"shipment_id": 424242,
			"order_id":    9001,
		})
	}))

	res, err := c.CreateShipment(context.Background(), testOrder(), testAddress(), models.MethodRazorpay)
	require.NoError(t, err)
	assert.Equal(t, "424242", res.ShipmentID)
	assert.Equal(t, "9001", res.CarrierOrderID)

	assert.Equal(t, "Asha", captured["billing_customer_name"])
	assert.Equal(t, "Nair", captured["billing_last_name"])
	assert.Equal(t, "Prepaid", captured["payment_method"])
	assert.Equal(t, true, captured["shipping_is_billing"])
	assert.Equal(t, "warehouse-1", captured["pickup_location"])
	assert.InDelta(t, 0.5, captured["weight"].(float64), 1e-9)
}

func TestCreateShipmentMissingShipmentID(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Wrong Pickup location entered.",
		})
	}))

	_, err := c.CreateShipment(context.Background(), testOrder(), testAddress(), models.MethodCOD)
	assert.ErrorIs(t, err, ErrCarrierRejected)
}

func TestAssignCourier(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/external/courier/serviceability/":
			assert.Equal(t, "695001", r.URL.Query().Get("delivery_postcode"))
			assert.Equal(t, "682001", r.URL.Query().Get("pickup_postcode"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"available_courier_companies": []map[string]interface{}{
						{"courier_company_id": 17, "courier_name": "Delhivery Surface"},
					},
				},
			})
		case "/v1/external/courier/assign/awb":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"awb_assign_status": 1,
				"response": map[string]interface{}{
					"data": map[string]interface{}{
						"awb_code":     "AWB123456",
						"courier_name": "Delhivery Surface",
					},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	res, err := c.AssignCourier(context.Background(), "424242", testAddress(), testOrder().Items)
	require.NoError(t, err)
	assert.Equal(t, "AWB123456", res.AWBCode)
	assert.Equal(t, "Delhivery Surface", res.CourierName)
}

func TestAssignCourierNoCourier(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"available_courier_companies": []interface{}{}},
		})
	}))

	_, err := c.AssignCourier(context.Background(), "424242", testAddress(), nil)
	assert.ErrorIs(t, err, ErrNoCourierAvailable)
}

func TestAssignCourierAssignmentRejected(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/external/courier/serviceability/" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"available_courier_companies": []map[string]interface{}{
						{"courier_company_id": 17, "courier_name": "Delhivery Surface"},
					},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"awb_assign_status": 0})
	}))

	_, err := c.AssignCourier(context.Background(), "424242", testAddress(), nil)
	assert.ErrorIs(t, err, ErrAssignmentFailed)
}

func TestRequestPickupAlreadyQueued(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Already in Pickup Queue."})
	}))

	assert.NoError(t, c.RequestPickup(context.Background(), "424242"))
}

func TestGenerateLabelRetriesThenSucceeds(t *testing.T) {
	var calls int32
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			json.NewEncoder(w).Encode(map[string]interface{}{"label_generated": 0})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"label_url": "https://labels.example.com/424242.pdf"})
	}))

	url, err := c.GenerateLabel(context.Background(), "424242")
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example.com/424242.pdf", url)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGenerateLabelExhaustsRetries(t *testing.T) {
	var calls int32
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	}))

	_, err := c.GenerateLabel(context.Background(), "424242")
	assert.ErrorIs(t, err, ErrLabelGeneration)
	assert.EqualValues(t, labelMaxRetries, atomic.LoadInt32(&calls))
}

func TestCancelShipmentIdempotent(t *testing.T) {
	cancelled := false
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/external/shipments/424242":
			if cancelled {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"data": map[string]string{"status": "Cancelled"},
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]string{"status": "NEW"},
			})
		case "/v1/external/orders/cancel":
			cancelled = true
			json.NewEncoder(w).Encode(map[string]string{"message": "Order cancelled successfully."})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, c.CancelShipment(context.Background(), "424242"))
	// a second cancel sees the Cancelled state and skips the cancel call
	require.NoError(t, c.CancelShipment(context.Background(), "424242"))
}

func TestCancelShipmentNotFound(t *testing.T) {
	c := testClient(t, withLogin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	assert.NoError(t, c.CancelShipment(context.Background(), "999"))
}

func TestTokenRefreshOn401(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/external/auth/login" {
			n := atomic.AddInt32(&logins, 1)
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + string(rune('0'+n))})
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tracking_data": map[string]interface{}{
				"shipment_status": 6,
				"shipment_track":  []interface{}{},
			},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "ops@example.com", "secret", "warehouse-1", "682001")
	c.baseDelay = time.Millisecond

	res, err := c.TrackByAWB(context.Background(), "AWB123456")
	require.NoError(t, err)
	assert.Equal(t, "6", res.ShipmentStatus)
	assert.EqualValues(t, 2, atomic.LoadInt32(&logins))
}
