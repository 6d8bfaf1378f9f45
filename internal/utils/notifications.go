package utils

import (
	"fmt"
	"log"

	"github.com/MikyMack/stayRare-full/internal/models"
)

// SendOrderStatusEmail notifies the customer of a status change. Fired on a
// best-effort basis; failures are logged by the caller.
func SendOrderStatusEmail(order models.Order, email, newStatus string) error {
	subject := statusEmailSubject(newStatus)
	html := statusEmailHTML(order, newStatus)

	if err := SendEmail(email, subject, html); err != nil {
		log.Printf("❌ Status email failed: %v", err)
		return err
	}

	log.Printf("📧 Status email sent: %s → %s", newStatus, email)
	return nil
}

func statusEmailSubject(status string) string {
	switch status {
	case models.OrderShipped:
		return "📦 Your order is on its way - StayRare"
	case models.OrderDelivered:
		return "🎉 Your order has been delivered - StayRare"
	case models.OrderCancelled:
		return "❌ Order cancelled - StayRare"
	case models.OrderReturned:
		return "↩️ Return processed - StayRare"
	default:
		return "📋 Order update - StayRare"
	}
}

func statusMessage(status string) string {
	switch status {
	case models.OrderShipped:
		return "Good news! Your order has been shipped and is on its way to you."
	case models.OrderDelivered:
		return "Your order has been delivered. We hope you love it!"
	case models.OrderCancelled:
		return "Your order has been cancelled. If a payment was made, the refund has been initiated."
	case models.OrderReturned:
		return "Your return has been processed."
	default:
		return "The status of your order has been updated."
	}
}

func statusEmailHTML(order models.Order, status string) string {
	tracking := ""
	if order.DeliveryInfo.AWBCode != "" {
		tracking = fmt.Sprintf(`
			<p style="color: #555;">
				<strong>Courier:</strong> %s<br>
				<strong>Tracking number:</strong> %s
			</p>`, order.DeliveryInfo.CourierName, order.DeliveryInfo.AWBCode)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Order Update</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Order #%s</h2>
		<p>%s</p>
		%s
		<p style="margin-top: 30px; color: #555;">
			Warm regards,<br>
			<strong>Team StayRare</strong>
		</p>
	</div>
</body>
</html>`, order.ID.Hex()[:8], statusMessage(status), tracking)
}
