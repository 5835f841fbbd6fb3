package flights

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"voyager/models"

	"github.com/google/uuid"
)

// Fare model constants shared with the live backend's vocabulary.
var cabinMultipliers = map[string]float64{
	"ECONOMY":         1.0,
	"PREMIUM_ECONOMY": 1.8,
	"BUSINESS":        3.5,
	"FIRST":           6.0,
}

var cabinBookingClass = map[string]string{
	"ECONOMY":         "Y",
	"PREMIUM_ECONOMY": "W",
	"BUSINESS":        "J",
	"FIRST":           "F",
}

var cabinCheckedBags = map[string]int{
	"ECONOMY":         0,
	"PREMIUM_ECONOMY": 1,
	"BUSINESS":        2,
	"FIRST":           3,
}

const pnrCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MockBackend generates plausible inventory from the static airport table.
// Prices derive from great-circle distance, cabin, and time of day, so the
// same route yields stable magnitudes while individual offers vary with the
// seed. Safe for concurrent use.
type MockBackend struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockBackend seeds the generator; the same seed replays the same
// inventory, which the tests rely on.
func NewMockBackend(seed int64) *MockBackend {
	return &MockBackend{rng: rand.New(rand.NewSource(seed))}
}

func (m *MockBackend) SearchFlights(ctx context.Context, query models.FlightSearchQuery) ([]models.FlightOffer, error) {
	origin, ok := AirportByIATA(query.OriginIATA)
	if !ok {
		return nil, fmt.Errorf("unknown origin %q: %w", query.OriginIATA, ErrUnavailable)
	}
	dest, ok := AirportByIATA(query.DestinationIATA)
	if !ok {
		return nil, fmt.Errorf("unknown destination %q: %w", query.DestinationIATA, ErrUnavailable)
	}
	if origin.IATA == dest.IATA {
		return nil, fmt.Errorf("origin and destination are both %s: %w", origin.IATA, ErrUnavailable)
	}
	depDay, err := time.Parse("2006-01-02", query.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("bad departure date %q: %w", query.DepartureDate, ErrUnavailable)
	}
	var retDay time.Time
	roundTrip := query.ReturnDate != ""
	if roundTrip {
		retDay, err = time.Parse("2006-01-02", query.ReturnDate)
		if err != nil {
			return nil, fmt.Errorf("bad return date %q: %w", query.ReturnDate, ErrUnavailable)
		}
	}
	adults := query.Adults
	if adults < 1 {
		adults = 1
	}
	cabin := strings.ToUpper(query.CabinClass)
	if _, ok := cabinMultipliers[cabin]; !ok {
		cabin = "ECONOMY"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dist := haversineMiles(origin.Latitude, origin.Longitude, dest.Latitude, dest.Longitude)
	count := 3 + m.rng.Intn(3)
	offers := make([]models.FlightOffer, 0, count)
	for i := 0; i < count; i++ {
		carrier := m.pickAirline(origin.IATA, dest.IATA)
		outbound, depHour, oneStop := m.buildItinerary(origin, dest, depDay, carrier, dist)

		price := basePrice(dist) * cabinMultipliers[cabin] * timeOfDayFactor(depHour)
		if oneStop {
			price *= 0.80
		}
		price *= 0.85 + m.rng.Float64()*0.30
		price *= float64(adults)

		offer := models.FlightOffer{
			OneWay:                 !roundTrip,
			Itineraries:            []models.Itinerary{outbound},
			ValidatingAirlineCodes: []string{carrier.Code},
		}
		if roundTrip {
			inbound, _, _ := m.buildItinerary(dest, origin, retDay, carrier, dist)
			offer.Itineraries = append(offer.Itineraries, inbound)
			price *= 1.8
		}
		if price < 89 {
			price = 89
		}
		offer.Price = models.OfferPrice{
			Currency: "USD",
			Total:    strconv.FormatFloat(round2(price), 'f', 2, 64),
		}
		offers = append(offers, offer)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return mustFloat(offers[i].Price.Total) < mustFloat(offers[j].Price.Total)
	})
	for i := range offers {
		offers[i].ID = strconv.Itoa(i + 1)
		renumberSegments(&offers[i])
	}
	return offers, nil
}

func (m *MockBackend) PriceOffer(ctx context.Context, offer models.FlightOffer) (*models.FlightOffer, error) {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return nil, fmt.Errorf("offer has no segments: %w", ErrStaleOffer)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	priced := offer
	total := mustFloat(offer.Price.Total) * (1.00 + m.rng.Float64()*0.03)
	totalStr := strconv.FormatFloat(round2(total), 'f', 2, 64)
	priced.Price.Total = totalStr
	priced.Price.GrandTotal = totalStr
	if priced.Price.Currency == "" {
		priced.Price.Currency = "USD"
	}

	cabin := "ECONOMY"
	if fd := firstFareCabin(offer); fd != "" {
		cabin = fd
	}
	var details []models.FareDetail
	for _, itin := range priced.Itineraries {
		for _, seg := range itin.Segments {
			details = append(details, models.FareDetail{
				SegmentID:           seg.ID,
				Cabin:               cabin,
				Class:               cabinBookingClass[cabin],
				IncludedCheckedBags: models.CheckedBags{Quantity: cabinCheckedBags[cabin]},
			})
		}
	}
	priced.TravelerPricings = []models.TravelerPricing{{
		TravelerID:           "1",
		FareOption:           "STANDARD",
		TravelerType:         "ADULT",
		Price:                priced.Price,
		FareDetailsBySegment: details,
	}}
	return &priced, nil
}

func (m *MockBackend) CreateOrder(ctx context.Context, offer models.FlightOffer, traveler models.Passenger) (*models.FlightOrder, error) {
	if len(offer.Itineraries) == 0 {
		return nil, fmt.Errorf("offer has no itineraries: %w", ErrStaleOffer)
	}
	if traveler.FullName() == "" {
		return nil, fmt.Errorf("traveler has no name: %w", ErrUnavailable)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pnr := make([]byte, 6)
	for i := range pnr {
		pnr[i] = pnrCharset[m.rng.Intn(len(pnrCharset))]
	}
	orderID := "VO" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return &models.FlightOrder{OrderID: orderID, PNR: string(pnr)}, nil
}

func (m *MockBackend) SearchAirports(ctx context.Context, keyword string) ([]models.Airport, error) {
	matches := matchAirports(keyword)
	if len(matches) > 8 {
		matches = matches[:8]
	}
	return matches, nil
}

func (m *MockBackend) NearestAirports(ctx context.Context, lat, lon float64, limit int) ([]models.Airport, error) {
	if limit <= 0 {
		limit = 5
	}
	out := make([]models.Airport, len(airportTable))
	copy(out, airportTable)
	sort.SliceStable(out, func(i, j int) bool {
		return haversineMiles(lat, lon, out[i].Latitude, out[i].Longitude) <
			haversineMiles(lat, lon, out[j].Latitude, out[j].Longitude)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// pickAirline prefers carriers with a hub at either endpoint.
func (m *MockBackend) pickAirline(origin, dest string) airline {
	var local []airline
	for _, a := range airlines {
		for _, h := range a.Hubs {
			if h == origin || h == dest {
				local = append(local, a)
				break
			}
		}
	}
	if len(local) == 0 {
		local = airlines
	}
	return local[m.rng.Intn(len(local))]
}

// buildItinerary creates a nonstop or one-stop itinerary departing on day.
func (m *MockBackend) buildItinerary(origin, dest models.Airport, day time.Time, carrier airline, dist float64) (models.Itinerary, int, bool) {
	depHour := m.rng.Intn(24)
	depMin := m.rng.Intn(12) * 5
	dep := time.Date(day.Year(), day.Month(), day.Day(), depHour, depMin, 0, 0, time.UTC)

	nonstopProb := 0.8
	if dist >= 1200 {
		nonstopProb = 0.4
	}
	if m.rng.Float64() < nonstopProb {
		dur := flightMinutes(dist)
		seg := m.segment(origin.IATA, dest.IATA, dep, dur, carrier)
		return models.Itinerary{
			Duration: isoDuration(dur),
			Segments: []models.Segment{seg},
		}, depHour, false
	}

	via := m.pickHub(origin, dest)
	leg1Dist := haversineMiles(origin.Latitude, origin.Longitude, via.Latitude, via.Longitude)
	leg2Dist := haversineMiles(via.Latitude, via.Longitude, dest.Latitude, dest.Longitude)
	leg1 := flightMinutes(leg1Dist)
	leg2 := flightMinutes(leg2Dist)
	layover := 60 + m.rng.Intn(90)

	seg1 := m.segment(origin.IATA, via.IATA, dep, leg1, carrier)
	seg2 := m.segment(via.IATA, dest.IATA, dep.Add(time.Duration(leg1+layover)*time.Minute), leg2, carrier)
	return models.Itinerary{
		Duration: isoDuration(leg1 + layover + leg2),
		Segments: []models.Segment{seg1, seg2},
	}, depHour, true
}

// pickHub chooses a connection airport with a small detour.
func (m *MockBackend) pickHub(origin, dest models.Airport) models.Airport {
	type scored struct {
		airport models.Airport
		detour  float64
	}
	var candidates []scored
	for _, code := range hubCodes {
		if code == origin.IATA || code == dest.IATA {
			continue
		}
		hub := airportsByIATA[code]
		detour := haversineMiles(origin.Latitude, origin.Longitude, hub.Latitude, hub.Longitude) +
			haversineMiles(hub.Latitude, hub.Longitude, dest.Latitude, dest.Longitude)
		candidates = append(candidates, scored{hub, detour})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].detour < candidates[j].detour })
	top := 3
	if len(candidates) < top {
		top = len(candidates)
	}
	return candidates[m.rng.Intn(top)].airport
}

func (m *MockBackend) segment(from, to string, dep time.Time, minutes int, carrier airline) models.Segment {
	return models.Segment{
		Departure:   models.FlightPoint{IataCode: from, At: dep.Format("2006-01-02T15:04:05")},
		Arrival:     models.FlightPoint{IataCode: to, At: dep.Add(time.Duration(minutes) * time.Minute).Format("2006-01-02T15:04:05")},
		CarrierCode: carrier.Code,
		Number:      strconv.Itoa(100 + m.rng.Intn(4800)),
		Duration:    isoDuration(minutes),
	}
}

func renumberSegments(offer *models.FlightOffer) {
	n := 1
	for i := range offer.Itineraries {
		for j := range offer.Itineraries[i].Segments {
			offer.Itineraries[i].Segments[j].ID = strconv.Itoa(n)
			n++
		}
	}
}

func firstFareCabin(offer models.FlightOffer) string {
	for _, tp := range offer.TravelerPricings {
		for _, fd := range tp.FareDetailsBySegment {
			if fd.Cabin != "" {
				return fd.Cabin
			}
		}
	}
	return ""
}

// flightMinutes estimates block time at ~500 mph plus taxi overhead.
func flightMinutes(distMiles float64) int {
	return int(distMiles/500*60) + 30
}

func basePrice(distMiles float64) float64 {
	switch {
	case distMiles < 500:
		return distMiles*0.25 + 50
	case distMiles < 1500:
		return distMiles*0.18 + 30
	default:
		return distMiles*0.12 + 80
	}
}

// timeOfDayFactor discounts red-eyes and marks up peak departures.
func timeOfDayFactor(hour int) float64 {
	switch {
	case hour < 6 || hour >= 22:
		return 0.85
	case (hour >= 7 && hour <= 9) || (hour >= 16 && hour <= 19):
		return 1.12
	default:
		return 1.0
	}
}

func isoDuration(minutes int) string {
	return fmt.Sprintf("PT%dH%dM", minutes/60, minutes%60)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func mustFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
