package flights

import (
	"context"
	"errors"

	"voyager/models"
)

// Backend errors. The conversation core maps these onto its own error kinds;
// anything else coming out of a backend is treated as unavailable too.
var (
	// ErrUnavailable covers failed or timed-out backend calls.
	ErrUnavailable = errors.New("flight backend unavailable")
	// ErrStaleOffer means the offer can no longer be priced or purchased,
	// usually because inventory moved between search and now.
	ErrStaleOffer = errors.New("flight offer no longer available")
)

// Backend is the flight inventory capability: search, price, book, and
// airport lookup. Exactly one implementation is active per process; the
// conversation core never branches on which one.
type Backend interface {
	// SearchFlights returns bookable offers cheapest-first. An empty slice
	// with a nil error means the route has no availability for those dates.
	SearchFlights(ctx context.Context, query models.FlightSearchQuery) ([]models.FlightOffer, error)

	// PriceOffer re-quotes a selected offer; the returned total may differ
	// slightly from the search-time quote.
	PriceOffer(ctx context.Context, offer models.FlightOffer) (*models.FlightOffer, error)

	// CreateOrder purchases a priced offer for one traveler.
	CreateOrder(ctx context.Context, offer models.FlightOffer, traveler models.Passenger) (*models.FlightOrder, error)

	// SearchAirports finds airports whose name, city or code matches the
	// keyword, most prominent first.
	SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error)

	// NearestAirports lists airports closest to a coordinate.
	NearestAirports(ctx context.Context, lat, lon float64, limit int) ([]models.Airport, error)
}
