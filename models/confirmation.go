package models

// ConfirmationPayload is the queued SMS job for a completed booking. It
// carries everything delivery needs so the worker never reads Mongo.
type ConfirmationPayload struct {
	BookingID       string `json:"bookingId"`
	Phone           string `json:"phone"`
	OriginIATA      string `json:"originIata"`
	DestinationIATA string `json:"destinationIata"`
	DepartureDate   string `json:"departureDate"`
	ReturnDate      string `json:"returnDate,omitempty"`
	PNR             string `json:"pnr"`
	PriceTotal      string `json:"priceTotal"`
	Currency        string `json:"currency"`
}
