package models

import "time"

// Booking status values. The dashboard may move a confirmed booking to
// completed or cancelled; nothing moves out of those two.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking is the permanent record of a successful purchase.
type Booking struct {
	ID              string    `bson:"id" json:"id"`
	CallID          string    `bson:"call_id" json:"call_id"`
	Phone           string    `bson:"phone" json:"phone"`
	PassengerName   string    `bson:"passenger_name" json:"passenger_name"`
	OriginIATA      string    `bson:"origin_iata" json:"origin_iata"`
	DestinationIATA string    `bson:"destination_iata" json:"destination_iata"`
	DepartureDate   string    `bson:"departure_date" json:"departure_date"`
	ReturnDate      string    `bson:"return_date,omitempty" json:"return_date,omitempty"`
	TripType        string    `bson:"trip_type" json:"trip_type"`
	Adults          int       `bson:"adults" json:"adults"`
	CabinClass      string    `bson:"cabin_class" json:"cabin_class"`
	PriceTotal      string    `bson:"price_total" json:"price_total"`
	Currency        string    `bson:"currency" json:"currency"`
	OrderID         string    `bson:"order_id" json:"order_id"`
	PNR             string    `bson:"pnr" json:"pnr"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidBookingStatus reports whether s is one of the known statuses.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}
