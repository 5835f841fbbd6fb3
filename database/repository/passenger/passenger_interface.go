package passengerRepo

import "voyager/models"

// PassengerRepository defines methods for passenger profile data access.
// Profiles are keyed by phone number, the caller's stable identity.
type PassengerRepository interface {
	// GetByPhone retrieves a passenger by phone number; (nil, nil) on miss.
	GetByPhone(phone string) (*models.Passenger, error)
	// Upsert inserts a new profile or merges into an existing one. Only
	// non-empty incoming fields overwrite stored values.
	Upsert(p *models.Passenger) error
}
