package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/wneessen/go-mail"

	"github.com/MikyMack/stayRare-full/internal/models"
)

// SendEmail delivers an HTML email through the configured SMTP relay.
func SendEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@stayrare.in"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Sending email to", to)
	return client.DialAndSend(msg)
}

// SendOrderInvoice emails the order confirmation. Callers treat a failure as
// non-fatal: the order is already durable by the time this runs.
func SendOrderInvoice(order models.Order, to string) error {
	if to == "" {
		return fmt.Errorf("no recipient email on order %s", order.ID.Hex())
	}
	subject := fmt.Sprintf("🛍️ Order Confirmed - StayRare #%s", order.ID.Hex()[:8])
	return SendEmail(to, subject, GenerateOrderInvoiceHTML(order))
}

// GenerateOrderInvoiceHTML renders the order confirmation body.
func GenerateOrderInvoiceHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		variant := ""
		if item.SelectedColor != "" {
			variant += " / " + item.SelectedColor
		}
		if item.SelectedSize != "" {
			variant += " / " + item.SelectedSize
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">₹%.2f</td>
			</tr>`, item.Name, variant, item.Quantity, item.Price)
	}

	discountHTML := ""
	if order.CouponUsed != nil && order.CouponUsed.DiscountAmount > 0 {
		discountHTML = fmt.Sprintf(`
				<tr>
					<td colspan="2" style="padding: 10px; text-align: right;">Discount (%s):</td>
					<td style="padding: 10px; color: #10b981;">-₹%.2f</td>
				</tr>`, order.CouponUsed.Code, order.CouponUsed.DiscountAmount)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Order Confirmation</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thank you for your order!</h2>
		<p>Hi %s,</p>
		<p>Your order <strong>#%s</strong> has been confirmed and is being prepared for dispatch.</p>

		<h3>Order details</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Product</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Qty</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Price</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				%s
				<tr>
					<td colspan="2" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">₹%.2f</td>
				</tr>
			</tfoot>
		</table>

		<h3>Delivery address</h3>
		<p style="color: #555;">
			%s<br>
			%s, %s<br>
			%s - %s<br>
			📞 %s
		</p>

		<p style="margin-top: 30px; color: #555;">
			Warm regards,<br>
			<strong>Team StayRare</strong>
		</p>
	</div>
</body>
</html>`,
		order.ShippingAddress.Name,
		order.ID.Hex()[:8],
		itemsHTML,
		discountHTML,
		order.TotalAmount,
		order.ShippingAddress.AddressLine1,
		order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.District, order.ShippingAddress.Pincode,
		order.ShippingAddress.Phone)
}
