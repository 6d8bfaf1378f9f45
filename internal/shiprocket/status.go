package shiprocket

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MikyMack/stayRare-full/internal/models"
)

var (
	deliveredRx = regexp.MustCompile(`(?i)delivered`)
	shippedRx   = regexp.MustCompile(`(?i)shipped|picked up`)
	transitRx   = regexp.MustCompile(`(?i)in transit`)
	outRx       = regexp.MustCompile(`(?i)out for delivery`)
)

// Shiprocket numeric shipment status codes.
var statusByCode = map[int]string{
	1: models.DeliveryPending,
	2: models.DeliveryProcessing,
	3: models.DeliveryShipped,
	4: models.DeliveryInTransit,
	5: models.DeliveryOutForDelivery,
	6: models.DeliveryDelivered,
	7: models.DeliveryReturned,
	8: models.DeliveryCancelled,
	9: models.DeliveryFailed,
}

// MapStatus normalizes a carrier status to a canonical delivery status.
// Textual statuses are matched first, then numeric codes; anything
// unrecognized maps to Processing so a sweep never stalls an order.
func MapStatus(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.DeliveryProcessing
	}

	switch {
	case deliveredRx.MatchString(s):
		return models.DeliveryDelivered
	case outRx.MatchString(s):
		return models.DeliveryOutForDelivery
	case shippedRx.MatchString(s):
		return models.DeliveryShipped
	case transitRx.MatchString(s):
		return models.DeliveryInTransit
	}

	if code, err := strconv.Atoi(s); err == nil {
		if mapped, ok := statusByCode[code]; ok {
			return mapped
		}
	}
	return models.DeliveryProcessing
}

// Carrier timestamps arrive in several shapes depending on the courier
// partner behind the AWB.
var dateLayouts = []string{
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"02 Jan 2006, 03:04 PM",
}

// ParseDate attempts the known carrier timestamp formats in order. The
// boolean is false when no format matches; callers drop such events rather
// than recording a bogus time.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
