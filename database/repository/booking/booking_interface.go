package bookingRepo

import "voyager/models"

// BookingRepository defines methods for permanent booking records.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(b *models.Booking) error
	// GetByID retrieves a booking by its internal id; (nil, nil) on miss.
	GetByID(id string) (*models.Booking, error)
	// GetByPhone retrieves all bookings made by one caller, newest first.
	GetByPhone(phone string) ([]models.Booking, error)
	// List retrieves bookings newest first, optionally filtered by status.
	List(status string, limit int64) ([]models.Booking, error)
	// UpdateStatus moves a confirmed booking to completed or cancelled.
	// Any other transition is rejected.
	UpdateStatus(id, status string) error
}
