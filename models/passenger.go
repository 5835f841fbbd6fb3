package models

import "time"

// Passenger is the permanent profile record, keyed by phone number. Created
// on first successful profile completion; later calls load it instead of
// re-collecting, unless the caller restarts profile setup.
type Passenger struct {
	Phone           string    `bson:"phone" json:"phone"`
	FirstName       string    `bson:"first_name" json:"first_name"`
	LastName        string    `bson:"last_name" json:"last_name"`
	DateOfBirth     string    `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Gender          string    `bson:"gender,omitempty" json:"gender,omitempty"`
	Email           string    `bson:"email,omitempty" json:"email,omitempty"`
	SeatPreference  string    `bson:"seat_preference,omitempty" json:"seat_preference,omitempty"`
	CabinPreference string    `bson:"cabin_preference,omitempty" json:"cabin_preference,omitempty"`
	HomeAirport     string    `bson:"home_airport,omitempty" json:"home_airport,omitempty"`
	HomeAirportIATA string    `bson:"home_airport_iata,omitempty" json:"home_airport_iata,omitempty"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins the name parts for voice prompts and booking records.
func (p *Passenger) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
