package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret"
	orderID := "order_Nxq2Lk8Zb1"
	paymentID := "pay_Nxq3Pm0Xc2"

	err := VerifySignature(secret, orderID, paymentID, sign(secret, orderID, paymentID))
	assert.NoError(t, err)
}

func TestVerifySignatureTampered(t *testing.T) {
	secret := "test_secret"
	orderID := "order_Nxq2Lk8Zb1"
	paymentID := "pay_Nxq3Pm0Xc2"

	good := sign(secret, orderID, paymentID)
	assert.ErrorIs(t, VerifySignature(secret, orderID, paymentID, good+"00"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, orderID, "pay_other", good), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("wrong_secret", orderID, paymentID, good), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(secret, orderID, paymentID, ""), ErrInvalidSignature)
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("", "")
	assert.False(t, c.Configured())

	_, err := c.CreateOrder(117000, "INR", "receipt_1")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	_, err = c.Refund("pay_x", 117000)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
