package assign

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// immediatePhrase is the driver-facing rendering of the "immediately"
// pickup-time sentinel.
const immediatePhrase = "as soon as possible"

// DriverSMS renders a ride as the text message sent to the assigned driver:
// a numbered route followed by the customer details and optional notes.
func DriverSMS(req models.RideRequest) string {
	var b strings.Builder
	b.WriteString("Route:\n")
	for i, stop := range req.Stops {
		fmt.Fprintf(&b, "%d. %s\n", i+1, stop)
	}
	fmt.Fprintf(&b, "Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&b, "Passengers: %d\n", req.Passengers)
	fmt.Fprintf(&b, "Pickup: %s", pickupPhrase(req.PickupTime))
	if req.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", req.Notes)
	}
	return b.String()
}

func pickupPhrase(pickupTime string) string {
	if pickupTime == "" || pickupTime == models.PickupImmediately {
		return immediatePhrase
	}
	if t, err := time.Parse(time.RFC3339, pickupTime); err == nil {
		return t.Format("15:04")
	}
	// Unparseable timestamps are passed through rather than dropped.
	return pickupTime
}
