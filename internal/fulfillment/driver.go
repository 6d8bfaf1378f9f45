// Package fulfillment drives an order through carrier onboarding as a
// persisted state machine. Every transition is saved before the next step
// runs, so a crash or carrier outage leaves the order resumable from its
// last recorded state.
package fulfillment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
)

// Carrier is the slice of the shipping provider the driver needs.
type Carrier interface {
	CreateShipment(ctx context.Context, order *models.Order, addr models.Address, paymentMethod string) (*shiprocket.ShipmentResult, error)
	AssignCourier(ctx context.Context, shipmentID string, addr models.Address, items []models.OrderItem) (*shiprocket.AWBResult, error)
	RequestPickup(ctx context.Context, shipmentID string) error
	GenerateLabel(ctx context.Context, shipmentID string) (string, error)
}

// SaveFunc persists the order's delivery info after each transition.
type SaveFunc func(ctx context.Context, order *models.Order) error

type Driver struct {
	carrier Carrier
	save    SaveFunc
}

func NewDriver(carrier Carrier, save SaveFunc) *Driver {
	return &Driver{carrier: carrier, save: save}
}

// Run advances the order until it reaches LabelReady or a step fails.
// Failures are recorded on the order and returned; the order itself stays
// valid and a later Run picks up from the persisted state.
func (d *Driver) Run(ctx context.Context, order *models.Order) error {
	for {
		done, err := d.Advance(ctx, order)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Advance performs exactly one state transition and persists it. It returns
// true when the order has nothing left to do.
func (d *Driver) Advance(ctx context.Context, order *models.Order) (bool, error) {
	state := order.DeliveryInfo.FulfillmentState
	if state == "" {
		state = models.ShipmentPending
	}

	switch state {
	case models.ShipmentPending:
		return false, d.createShipment(ctx, order)
	case models.ShipmentCreated:
		return false, d.assignCourier(ctx, order)
	case models.AWBAssigned:
		return false, d.requestPickup(ctx, order)
	case models.PickupRequested:
		return false, d.generateLabel(ctx, order)
	case models.LabelFailed:
		// label retry is the only recoverable terminal state
		return false, d.generateLabel(ctx, order)
	case models.LabelReady:
		return true, nil
	default:
		return true, fmt.Errorf("unknown fulfillment state %q", state)
	}
}

func (d *Driver) createShipment(ctx context.Context, order *models.Order) error {
	res, err := d.carrier.CreateShipment(ctx, order, order.ShippingAddress, order.PaymentInfo.Method)
	if err != nil {
		return d.fail(ctx, order, err)
	}

	order.DeliveryInfo.ShipmentID = res.ShipmentID
	order.DeliveryInfo.TrackingID = res.CarrierOrderID
	order.DeliveryInfo.Courier = "Shiprocket"
	order.DeliveryInfo.Error = ""
	return d.transition(ctx, order, models.ShipmentCreated)
}

func (d *Driver) assignCourier(ctx context.Context, order *models.Order) error {
	res, err := d.carrier.AssignCourier(ctx, order.DeliveryInfo.ShipmentID, order.ShippingAddress, order.Items)
	if err != nil {
		return d.fail(ctx, order, err)
	}

	order.DeliveryInfo.AWBCode = res.AWBCode
	order.DeliveryInfo.CourierName = res.CourierName
	order.DeliveryInfo.Error = ""
	return d.transition(ctx, order, models.AWBAssigned)
}

func (d *Driver) requestPickup(ctx context.Context, order *models.Order) error {
	if err := d.carrier.RequestPickup(ctx, order.DeliveryInfo.ShipmentID); err != nil {
		return d.fail(ctx, order, err)
	}

	order.DeliveryInfo.Status = models.DeliveryPickupGenerated
	order.DeliveryInfo.Error = ""
	return d.transition(ctx, order, models.PickupRequested)
}

func (d *Driver) generateLabel(ctx context.Context, order *models.Order) error {
	labelURL, err := d.carrier.GenerateLabel(ctx, order.DeliveryInfo.ShipmentID)
	if err != nil {
		order.DeliveryInfo.Error = err.Error()
		if saveErr := d.transition(ctx, order, models.LabelFailed); saveErr != nil {
			return saveErr
		}
		return err
	}

	order.DeliveryInfo.LabelURL = labelURL
	order.DeliveryInfo.Error = ""
	return d.transition(ctx, order, models.LabelReady)
}

func (d *Driver) transition(ctx context.Context, order *models.Order, state string) error {
	order.DeliveryInfo.FulfillmentState = state
	order.DeliveryInfo.UpdatedAt = time.Now()
	if err := d.save(ctx, order); err != nil {
		return fmt.Errorf("persist fulfillment state %s: %w", state, err)
	}
	log.Printf("📦 Order %s fulfillment advanced to %s", order.ID.Hex(), state)
	return nil
}

// fail records a step failure without moving the state machine forward, so
// the same step is retried on the next Run.
func (d *Driver) fail(ctx context.Context, order *models.Order, cause error) error {
	order.DeliveryInfo.Error = cause.Error()
	order.DeliveryInfo.UpdatedAt = time.Now()
	if saveErr := d.save(ctx, order); saveErr != nil {
		log.Printf("❌ Could not record fulfillment error for order %s: %v", order.ID.Hex(), saveErr)
	}
	return cause
}
