// Package tracking reconciles carrier tracking feeds into order state. It is
// used two ways: reactively when a customer loads their orders, and by a
// background sweep over every order still in flight.
package tracking

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
)

// Carrier is the slice of the shipping provider the tracker needs.
type Carrier interface {
	TrackByAWB(ctx context.Context, awbCode string) (*shiprocket.TrackingResult, error)
}

// Normalize converts the carrier's raw scan rows into stored tracking events.
// Rows whose timestamp cannot be parsed are dropped rather than stored with a
// bogus date.
func Normalize(raw []shiprocket.RawTrackEvent) []models.TrackingEvent {
	events := make([]models.TrackingEvent, 0, len(raw))
	for _, r := range raw {
		ts := r.UpdatedTimestamp
		if ts == "" {
			ts = r.PickupDate
		}
		date, ok := shiprocket.ParseDate(ts)
		if !ok {
			log.Printf("⚠️ Dropping tracking event with unparseable date %q", ts)
			continue
		}
		events = append(events, models.TrackingEvent{
			Status:         shiprocket.MapStatus(r.CurrentStatus),
			OriginalStatus: r.CurrentStatus,
			Location:       r.Origin,
			Remark:         r.PodStatus,
			AWB:            r.AWBCode,
			UpdatedDate:    ts,
			Date:           date,
			CourierName:    r.CourierName,
		})
	}
	return events
}

// Latest picks the most recent event by timestamp.
func Latest(events []models.TrackingEvent) *models.TrackingEvent {
	var latest *models.TrackingEvent
	for i := range events {
		if latest == nil || events[i].Date.After(latest.Date) {
			latest = &events[i]
		}
	}
	return latest
}

// Apply folds a canonical delivery status and its normalized events into the
// order. Terminal order statuses are latched and never overwritten by a later
// poll. The tracking history is replaced wholesale with the carrier's feed.
// Returns true when anything on the order changed.
func Apply(order *models.Order, canonical string, events []models.TrackingEvent, etd *time.Time) bool {
	changed := false

	if len(events) > 0 {
		order.DeliveryInfo.TrackingHistory = events
		changed = true
	}
	if etd != nil {
		order.DeliveryInfo.EstimatedDelivery = etd
		changed = true
	}

	if canonical != "" && order.DeliveryInfo.Status != canonical {
		order.DeliveryInfo.Status = canonical
		changed = true
	}

	next := orderStatusFor(canonical)
	if next != "" && !models.IsTerminalStatus(order.OrderStatus) && order.OrderStatus != next {
		order.OrderStatus = next
		changed = true
	}

	if changed {
		order.DeliveryInfo.UpdatedAt = time.Now()
	}
	return changed
}

// orderStatusFor maps a delivery status onto the overall order lifecycle.
// Mid-journey movement keeps the order in Shipped; only the terminal delivery
// outcomes settle it.
func orderStatusFor(delivery string) string {
	switch delivery {
	case models.DeliveryShipped, models.DeliveryInTransit, models.DeliveryOutForDelivery:
		return models.OrderShipped
	case models.DeliveryDelivered:
		return models.OrderDelivered
	case models.DeliveryReturned:
		return models.OrderReturned
	case models.DeliveryCancelled, models.DeliveryFailed:
		return models.OrderCancelled
	}
	return ""
}

// RefreshAndSave polls the carrier for one order and persists the result.
// Orders without an AWB or already settled are skipped.
func RefreshAndSave(ctx context.Context, carrier Carrier, order *models.Order) error {
	if order.DeliveryInfo.AWBCode == "" || models.IsTerminalStatus(order.OrderStatus) {
		return nil
	}

	res, err := carrier.TrackByAWB(ctx, order.DeliveryInfo.AWBCode)
	if err != nil {
		return err
	}

	events := Normalize(res.Events)
	canonical := ""
	if latest := Latest(events); latest != nil {
		canonical = latest.Status
	} else if res.ShipmentStatus != "" {
		canonical = shiprocket.MapStatus(res.ShipmentStatus)
	}

	var etd *time.Time
	if t, ok := shiprocket.ParseDate(res.ETD); ok {
		etd = &t
	}

	if !Apply(order, canonical, events, etd) {
		return nil
	}

	_, err = database.Orders().UpdateByID(ctx, order.ID, bson.M{"$set": bson.M{
		"deliveryInfo": order.DeliveryInfo,
		"orderStatus":  order.OrderStatus,
		"updatedAt":    time.Now(),
	}})
	return err
}

// Sweep polls every in-flight order on a fixed interval until the context is
// cancelled. Individual order failures are logged and do not stop the sweep.
func Sweep(ctx context.Context, carrier Carrier, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("🚚 Tracking sweep running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("🚚 Tracking sweep stopped")
			return
		case <-ticker.C:
			sweepOnce(ctx, carrier)
		}
	}
}

func sweepOnce(ctx context.Context, carrier Carrier) {
	filter := bson.M{
		"deliveryInfo.awbCode": bson.M{"$nin": bson.A{"", nil}},
		"orderStatus": bson.M{"$nin": bson.A{
			models.OrderDelivered, models.OrderCancelled, models.OrderReturned,
		}},
	}

	cursor, err := database.Orders().Find(ctx, filter)
	if err != nil {
		log.Printf("❌ Tracking sweep query failed: %v", err)
		return
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		log.Printf("❌ Tracking sweep decode failed: %v", err)
		return
	}

	for i := range orders {
		if err := RefreshAndSave(ctx, carrier, &orders[i]); err != nil {
			log.Printf("⚠️ Tracking refresh failed for order %s: %v", orders[i].ID.Hex(), err)
		}
	}
	if len(orders) > 0 {
		log.Printf("🚚 Tracking sweep refreshed %d orders", len(orders))
	}
}
