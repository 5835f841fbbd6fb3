package trip

import (
	"fmt"
	"strings"

	"voyager/models"
	"voyager/services/flights"
	"voyager/utils"
)

// summarizeOffer renders one cached offer as a single spoken line. Option
// numbers are 1-based because that is how the caller picks ("option two").
func summarizeOffer(n int, offer models.FlightOffer) string {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return fmt.Sprintf("Option %d: flight details unavailable.", n)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Option %d: %s, %s.", n, airlineFor(offer), describeLeg(offer.Itineraries[0]))
	if len(offer.Itineraries) > 1 && len(offer.Itineraries[1].Segments) > 0 {
		fmt.Fprintf(&b, " Returning, %s.", describeLeg(offer.Itineraries[1]))
	}
	fmt.Fprintf(&b, " Total price %s.", spokenPrice(offer.Price))
	return b.String()
}

// describeLeg speaks one itinerary: stops, local departure and arrival
// times, and total duration.
func describeLeg(it models.Itinerary) string {
	segs := it.Segments
	first, last := segs[0], segs[len(segs)-1]
	stops := "nonstop"
	switch n := len(segs) - 1; {
	case n == 1:
		stops = "1 stop"
	case n > 1:
		stops = fmt.Sprintf("%d stops", n)
	}
	return fmt.Sprintf("%s, departs %s, arrives %s, %s",
		stops,
		utils.FormatClock12(first.Departure.At),
		utils.FormatClock12(last.Arrival.At),
		utils.FormatISODuration(it.Duration))
}

func airlineFor(offer models.FlightOffer) string {
	if len(offer.ValidatingAirlineCodes) > 0 {
		return flights.AirlineName(offer.ValidatingAirlineCodes[0])
	}
	return flights.AirlineName(offer.Itineraries[0].Segments[0].CarrierCode)
}

// spokenPrice favors the grand total, which includes fees, over the base
// total. Dollar amounts read naturally with the sign; anything else is
// spelled out with the currency code.
func spokenPrice(p models.OfferPrice) string {
	amount := p.GrandTotal
	if amount == "" {
		amount = p.Total
	}
	if p.Currency == "" || strings.EqualFold(p.Currency, "USD") {
		return "$" + amount
	}
	return amount + " " + p.Currency
}
