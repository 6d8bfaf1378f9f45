// Package payment wraps the Razorpay gateway: order creation for online
// checkout, refunds on cancellation, and callback signature verification.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	razorpay "github.com/razorpay/razorpay-go"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
	ErrInvalidSignature   = errors.New("invalid payment signature")
)

type Client struct {
	keyID     string
	keySecret string
	api       *razorpay.Client
}

// NewClient returns a gateway client, or one that fails with
// ErrGatewayUnavailable when the credentials are missing.
func NewClient(keyID, keySecret string) *Client {
	c := &Client{keyID: keyID, keySecret: keySecret}
	if keyID != "" && keySecret != "" {
		c.api = razorpay.NewClient(keyID, keySecret)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.api != nil
}

// KeyID is handed to the frontend so it can open the payment widget.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder opens a gateway order for the given amount in paise and
// returns the gateway order id.
func (c *Client) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	if !c.Configured() {
		return "", ErrGatewayUnavailable
	}

	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		log.Printf("❌ Razorpay order create failed: %v", err)
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		log.Printf("❌ Razorpay order create returned no id: %v", body)
		return "", fmt.Errorf("razorpay order create: missing order id")
	}
	return id, nil
}

// Refund refunds a captured payment. The amount is in paise. Refund failure
// is fatal to the caller's flow: money must never silently stay captured.
func (c *Client) Refund(paymentID string, amountPaise int) (string, error) {
	if !c.Configured() {
		return "", ErrGatewayUnavailable
	}

	data := map[string]interface{}{
		"speed": "normal",
		"notes": map[string]interface{}{
			"reason": "Customer requested cancellation",
		},
	}
	body, err := c.api.Payment.Refund(paymentID, amountPaise, data, nil)
	if err != nil {
		log.Printf("❌ Razorpay refund failed for %s: %v", paymentID, err)
		return "", fmt.Errorf("razorpay refund: %w", err)
	}

	refundID, _ := body["id"].(string)
	return refundID, nil
}

// VerifySignature checks the gateway callback: the signature must equal
// HMAC-SHA256(secret, "<orderID>|<paymentID>") hex-encoded. This is the sole
// authenticity check for online payments.
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

func VerifySignature(secret, orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
