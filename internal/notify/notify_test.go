package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/models"
)

func TestOrderConfirmedMessage(t *testing.T) {
	o := models.Order{
		ID:          primitive.NewObjectID(),
		TotalAmount: 1499,
		PaymentInfo: models.PaymentInfo{Method: models.MethodRazorpay},
	}

	title, body := OrderConfirmedMessage(o)
	assert.Equal(t, "Order confirmed 🎉", title)
	assert.Contains(t, body, "₹1499.00")
	assert.Contains(t, body, o.ID.Hex()[:8])
	assert.NotContains(t, body, "ready at delivery")
}

func TestOrderConfirmedMessageCOD(t *testing.T) {
	o := models.Order{
		ID:          primitive.NewObjectID(),
		TotalAmount: 250,
		PaymentInfo: models.PaymentInfo{Method: models.MethodCOD},
	}

	_, body := OrderConfirmedMessage(o)
	assert.Contains(t, body, "ready at delivery")
}
