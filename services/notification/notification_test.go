package notification

import (
	"context"
	"strings"
	"testing"

	"voyager/models"
)

type recordingSender struct {
	to   string
	body string
}

func (r *recordingSender) SendSMS(ctx context.Context, to, body string) error {
	r.to = to
	r.body = body
	return nil
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:              "bkg-1",
		Phone:           "+15550001111",
		OriginIATA:      "TUL",
		DestinationIATA: "ATL",
		DepartureDate:   "2026-10-01",
		PNR:             "Q4X",
		PriceTotal:      "215.40",
		Currency:        "USD",
		Status:          models.BookingStatusConfirmed,
	}
}

func TestConfirmationBody(t *testing.T) {
	b := testBooking()
	body := ConfirmationBody(PayloadFor(b))
	for _, want := range []string{"TUL to ATL", "2026-10-01", "Q4X", "$215.40"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %q missing %q", body, want)
		}
	}
	if strings.Contains(body, "returning") {
		t.Errorf("one-way body %q mentions a return", body)
	}

	b.ReturnDate = "2026-10-08"
	b.Currency = "EUR"
	body = ConfirmationBody(PayloadFor(b))
	if !strings.Contains(body, "returning 2026-10-08") {
		t.Errorf("round-trip body %q missing the return date", body)
	}
	if !strings.Contains(body, "215.40 EUR") || strings.Contains(body, "$") {
		t.Errorf("non-dollar body %q should spell the currency code", body)
	}
}

func TestDirectServiceDelivers(t *testing.T) {
	sender := &recordingSender{}
	svc := NewDirectService(sender)

	if err := svc.DispatchBookingConfirmation(testBooking()); err != nil {
		t.Fatalf("DispatchBookingConfirmation: %v", err)
	}
	if sender.to != "+15550001111" {
		t.Errorf("sent to %q", sender.to)
	}
	if !strings.Contains(sender.body, "Q4X") {
		t.Errorf("body %q missing the confirmation code", sender.body)
	}
}
