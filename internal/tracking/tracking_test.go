package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
)

func TestNormalizeDropsUnparseableDates(t *testing.T) {
	raw := []shiprocket.RawTrackEvent{
		{CurrentStatus: "In Transit", UpdatedTimestamp: "10-03-2026 08:00:00", Origin: "Kochi Hub"},
		{CurrentStatus: "Picked Up", UpdatedTimestamp: "garbage"},
		{CurrentStatus: "Out For Delivery", PickupDate: "2026-03-11 07:15:00"},
	}

	events := Normalize(raw)
	require.Len(t, events, 2)
	assert.Equal(t, models.DeliveryInTransit, events[0].Status)
	assert.Equal(t, "In Transit", events[0].OriginalStatus)
	assert.Equal(t, "Kochi Hub", events[0].Location)
	assert.Equal(t, models.DeliveryOutForDelivery, events[1].Status)
}

func TestLatestPicksNewestEvent(t *testing.T) {
	events := []models.TrackingEvent{
		{Status: models.DeliveryShipped, Date: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)},
		{Status: models.DeliveryOutForDelivery, Date: time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)},
		{Status: models.DeliveryInTransit, Date: time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, models.DeliveryOutForDelivery, Latest(events).Status)
	assert.Nil(t, Latest(nil))
}

func TestApplyMidJourneyMovesOrderToShipped(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderConfirmed}

	changed := Apply(order, models.DeliveryInTransit, []models.TrackingEvent{
		{Status: models.DeliveryInTransit, Date: time.Now()},
	}, nil)

	assert.True(t, changed)
	assert.Equal(t, models.OrderShipped, order.OrderStatus)
	assert.Equal(t, models.DeliveryInTransit, order.DeliveryInfo.Status)
	assert.Len(t, order.DeliveryInfo.TrackingHistory, 1)
}

func TestApplyDelivered(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderShipped}

	Apply(order, models.DeliveryDelivered, nil, nil)
	assert.Equal(t, models.OrderDelivered, order.OrderStatus)
	assert.Equal(t, models.DeliveryDelivered, order.DeliveryInfo.Status)
}

func TestApplyNeverOverwritesTerminalStatus(t *testing.T) {
	for _, terminal := range []string{models.OrderDelivered, models.OrderCancelled, models.OrderReturned} {
		order := &models.Order{OrderStatus: terminal}
		Apply(order, models.DeliveryInTransit, nil, nil)
		assert.Equal(t, terminal, order.OrderStatus, "terminal %s must latch", terminal)
		// the delivery-level status still reflects the carrier feed
		assert.Equal(t, models.DeliveryInTransit, order.DeliveryInfo.Status)
	}
}

func TestApplyCancelledAndFailed(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderConfirmed}
	Apply(order, models.DeliveryFailed, nil, nil)
	assert.Equal(t, models.OrderCancelled, order.OrderStatus)

	order = &models.Order{OrderStatus: models.OrderConfirmed}
	Apply(order, models.DeliveryCancelled, nil, nil)
	assert.Equal(t, models.OrderCancelled, order.OrderStatus)
}

func TestApplyIsIdempotent(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderShipped}
	order.DeliveryInfo.Status = models.DeliveryInTransit

	changed := Apply(order, models.DeliveryInTransit, nil, nil)
	assert.False(t, changed)
}

func TestApplyReplacesHistoryWholesale(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderShipped}
	order.DeliveryInfo.TrackingHistory = []models.TrackingEvent{
		{Status: models.DeliveryShipped}, {Status: models.DeliveryInTransit},
	}

	fresh := []models.TrackingEvent{{Status: models.DeliveryOutForDelivery, Date: time.Now()}}
	Apply(order, models.DeliveryOutForDelivery, fresh, nil)

	assert.Equal(t, fresh, order.DeliveryInfo.TrackingHistory)
}

func TestApplyEstimatedDelivery(t *testing.T) {
	order := &models.Order{OrderStatus: models.OrderShipped}
	etd := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	Apply(order, "", nil, &etd)
	require.NotNil(t, order.DeliveryInfo.EstimatedDelivery)
	assert.Equal(t, etd, *order.DeliveryInfo.EstimatedDelivery)
}
