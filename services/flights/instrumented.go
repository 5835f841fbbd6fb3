package flights

import (
	"context"
	"time"

	"voyager/metrics"
	"voyager/models"
)

// InstrumentedBackend wraps a Backend with per-operation latency metrics.
// The conversation core stays unaware of it; main wires it in.
type InstrumentedBackend struct {
	inner Backend
}

func WithMetrics(inner Backend) *InstrumentedBackend {
	return &InstrumentedBackend{inner: inner}
}

func (b *InstrumentedBackend) SearchFlights(ctx context.Context, query models.FlightSearchQuery) ([]models.FlightOffer, error) {
	start := time.Now()
	offers, err := b.inner.SearchFlights(ctx, query)
	observe("search_flights", start, err)
	return offers, err
}

func (b *InstrumentedBackend) PriceOffer(ctx context.Context, offer models.FlightOffer) (*models.FlightOffer, error) {
	start := time.Now()
	priced, err := b.inner.PriceOffer(ctx, offer)
	observe("price_offer", start, err)
	return priced, err
}

func (b *InstrumentedBackend) CreateOrder(ctx context.Context, offer models.FlightOffer, traveler models.Passenger) (*models.FlightOrder, error) {
	start := time.Now()
	order, err := b.inner.CreateOrder(ctx, offer, traveler)
	observe("create_order", start, err)
	return order, err
}

func (b *InstrumentedBackend) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	start := time.Now()
	airports, err := b.inner.SearchAirports(ctx, keyword)
	observe("search_airports", start, err)
	return airports, err
}

func (b *InstrumentedBackend) NearestAirports(ctx context.Context, lat, lon float64, limit int) ([]models.Airport, error) {
	start := time.Now()
	airports, err := b.inner.NearestAirports(ctx, lat, lon, limit)
	observe("nearest_airports", start, err)
	return airports, err
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BackendDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
