package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/models"
	"github.com/MikyMack/stayRare-full/internal/shiprocket"
)

type fakeCarrier struct {
	createErr error
	assignErr error
	pickupErr error
	labelErr  error

	createCalls int
	labelCalls  int
}

func (f *fakeCarrier) CreateShipment(ctx context.Context, order *models.Order, addr models.Address, method string) (*shiprocket.ShipmentResult, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &shiprocket.ShipmentResult{ShipmentID: "424242", CarrierOrderID: "9001"}, nil
}

func (f *fakeCarrier) AssignCourier(ctx context.Context, shipmentID string, addr models.Address, items []models.OrderItem) (*shiprocket.AWBResult, error) {
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	return &shiprocket.AWBResult{AWBCode: "AWB123456", CourierName: "Delhivery Surface"}, nil
}

func (f *fakeCarrier) RequestPickup(ctx context.Context, shipmentID string) error {
	return f.pickupErr
}

func (f *fakeCarrier) GenerateLabel(ctx context.Context, shipmentID string) (string, error) {
	f.labelCalls++
	if f.labelErr != nil {
		return "", f.labelErr
	}
	return "https://labels.example.com/424242.pdf", nil
}

func newTestDriver(carrier Carrier) (*Driver, *[]string) {
	var saved []string
	save := func(ctx context.Context, order *models.Order) error {
		saved = append(saved, order.DeliveryInfo.FulfillmentState)
		return nil
	}
	return NewDriver(carrier, save), &saved
}

func freshOrder() *models.Order {
	return &models.Order{
		ID:          primitive.NewObjectID(),
		Items:       []models.OrderItem{{Product: primitive.NewObjectID(), Quantity: 1, Price: 999}},
		PaymentInfo: models.PaymentInfo{Method: models.MethodRazorpay},
	}
}

func TestRunHappyPath(t *testing.T) {
	carrier := &fakeCarrier{}
	driver, saved := newTestDriver(carrier)
	order := freshOrder()

	require.NoError(t, driver.Run(context.Background(), order))

	assert.Equal(t, models.LabelReady, order.DeliveryInfo.FulfillmentState)
	assert.Equal(t, "424242", order.DeliveryInfo.ShipmentID)
	assert.Equal(t, "AWB123456", order.DeliveryInfo.AWBCode)
	assert.Equal(t, "Delhivery Surface", order.DeliveryInfo.CourierName)
	assert.Equal(t, "https://labels.example.com/424242.pdf", order.DeliveryInfo.LabelURL)
	assert.Equal(t, models.DeliveryPickupGenerated, order.DeliveryInfo.Status)
	assert.Empty(t, order.DeliveryInfo.Error)

	// every transition was persisted, in order
	assert.Equal(t, []string{
		models.ShipmentCreated,
		models.AWBAssigned,
		models.PickupRequested,
		models.LabelReady,
	}, *saved)
}

func TestRunStopsAtFailedStep(t *testing.T) {
	carrier := &fakeCarrier{assignErr: shiprocket.ErrNoCourierAvailable}
	driver, _ := newTestDriver(carrier)
	order := freshOrder()

	err := driver.Run(context.Background(), order)
	assert.ErrorIs(t, err, shiprocket.ErrNoCourierAvailable)

	// partial progress is kept and the failed step is where we resume
	assert.Equal(t, models.ShipmentCreated, order.DeliveryInfo.FulfillmentState)
	assert.Equal(t, "424242", order.DeliveryInfo.ShipmentID)
	assert.Contains(t, order.DeliveryInfo.Error, "no serviceable courier")
}

func TestRunResumesFromPersistedState(t *testing.T) {
	carrier := &fakeCarrier{}
	driver, _ := newTestDriver(carrier)
	order := freshOrder()
	order.DeliveryInfo.FulfillmentState = models.AWBAssigned
	order.DeliveryInfo.ShipmentID = "424242"

	require.NoError(t, driver.Run(context.Background(), order))

	assert.Equal(t, models.LabelReady, order.DeliveryInfo.FulfillmentState)
	// a resumed run never re-creates the shipment
	assert.Zero(t, carrier.createCalls)
}

func TestLabelFailureIsRecoverable(t *testing.T) {
	carrier := &fakeCarrier{labelErr: shiprocket.ErrLabelGeneration}
	driver, _ := newTestDriver(carrier)
	order := freshOrder()

	err := driver.Run(context.Background(), order)
	assert.ErrorIs(t, err, shiprocket.ErrLabelGeneration)
	assert.Equal(t, models.LabelFailed, order.DeliveryInfo.FulfillmentState)
	assert.NotEmpty(t, order.DeliveryInfo.Error)

	// the carrier recovers, a later run retries only the label
	carrier.labelErr = nil
	require.NoError(t, driver.Run(context.Background(), order))
	assert.Equal(t, models.LabelReady, order.DeliveryInfo.FulfillmentState)
	assert.Empty(t, order.DeliveryInfo.Error)
	assert.Equal(t, 2, carrier.labelCalls)
	assert.Zero(t, carrier.createCalls)
}

func TestAdvanceOneStep(t *testing.T) {
	carrier := &fakeCarrier{}
	driver, _ := newTestDriver(carrier)
	order := freshOrder()

	done, err := driver.Advance(context.Background(), order)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, models.ShipmentCreated, order.DeliveryInfo.FulfillmentState)

	order.DeliveryInfo.FulfillmentState = models.LabelReady
	done, err = driver.Advance(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSaveFailureSurfaces(t *testing.T) {
	carrier := &fakeCarrier{}
	boom := errors.New("write conflict")
	driver := NewDriver(carrier, func(ctx context.Context, order *models.Order) error {
		return boom
	})

	err := driver.Run(context.Background(), freshOrder())
	assert.ErrorIs(t, err, boom)
}
