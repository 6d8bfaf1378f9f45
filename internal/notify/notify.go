// Package notify records fire-and-forget user notifications. Delivery is
// best-effort: failures are logged, never surfaced to the caller.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MikyMack/stayRare-full/internal/database"
	"github.com/MikyMack/stayRare-full/internal/models"
)

const writeTimeout = 10 * time.Second

// NotifyUser stores a notification for one user in the background.
func NotifyUser(userID primitive.ObjectID, title, body string) {
	if userID.IsZero() {
		return
	}
	go insert(models.Notification{
		User:      userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	})
}

// NotifyAllUsers stores a broadcast notification visible to every user.
func NotifyAllUsers(title, body string) {
	go insert(models.Notification{
		Broadcast: true,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	})
}

func insert(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := database.Notifications().InsertOne(ctx, n); err != nil {
		log.Printf("⚠️ Could not store notification %q: %v", n.Title, err)
		return
	}
	log.Printf("🔔 Notification stored: %s", n.Title)
}

// OrderConfirmed notifies the order's owner that the order went through.
// Guest orders have no account to notify.
func OrderConfirmed(o models.Order) {
	title, body := OrderConfirmedMessage(o)
	NotifyUser(o.User, title, body)
}

// OrderConfirmedMessage builds the confirmation notification content.
func OrderConfirmedMessage(o models.Order) (string, string) {
	body := fmt.Sprintf("Your StayRare order #%s for ₹%.2f has been placed.", shortID(o.ID), o.TotalAmount)
	if o.PaymentInfo.Method == models.MethodCOD {
		body += " Please keep the amount ready at delivery."
	}
	return "Order confirmed 🎉", body
}

func shortID(id primitive.ObjectID) string {
	hex := id.Hex()
	if len(hex) > 8 {
		return hex[:8]
	}
	return hex
}
