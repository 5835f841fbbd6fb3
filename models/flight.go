package models

// Flight offer wire shapes. These follow the flight backend's JSON (Amadeus
// style: price totals are decimal strings, datetimes are local ISO-8601
// without zone) so both backend implementations marshal identically.

type FlightOffer struct {
	ID                     string            `json:"id" bson:"id"`
	OneWay                 bool              `json:"oneWay" bson:"oneWay"`
	Itineraries            []Itinerary       `json:"itineraries" bson:"itineraries"`
	Price                  OfferPrice        `json:"price" bson:"price"`
	ValidatingAirlineCodes []string          `json:"validatingAirlineCodes,omitempty" bson:"validatingAirlineCodes,omitempty"`
	TravelerPricings       []TravelerPricing `json:"travelerPricings,omitempty" bson:"travelerPricings,omitempty"`
}

type Itinerary struct {
	Duration string    `json:"duration" bson:"duration"`
	Segments []Segment `json:"segments" bson:"segments"`
}

type Segment struct {
	Departure   FlightPoint `json:"departure" bson:"departure"`
	Arrival     FlightPoint `json:"arrival" bson:"arrival"`
	CarrierCode string      `json:"carrierCode" bson:"carrierCode"`
	Number      string      `json:"number" bson:"number"`
	Duration    string      `json:"duration,omitempty" bson:"duration,omitempty"`
	ID          string      `json:"id,omitempty" bson:"id,omitempty"`
}

type FlightPoint struct {
	IataCode string `json:"iataCode" bson:"iataCode"`
	At       string `json:"at" bson:"at"`
}

type OfferPrice struct {
	Currency   string `json:"currency" bson:"currency"`
	Total      string `json:"total" bson:"total"`
	GrandTotal string `json:"grandTotal,omitempty" bson:"grandTotal,omitempty"`
}

type TravelerPricing struct {
	TravelerID           string       `json:"travelerId" bson:"travelerId"`
	FareOption           string       `json:"fareOption" bson:"fareOption"`
	TravelerType         string       `json:"travelerType" bson:"travelerType"`
	Price                OfferPrice   `json:"price" bson:"price"`
	FareDetailsBySegment []FareDetail `json:"fareDetailsBySegment,omitempty" bson:"fareDetailsBySegment,omitempty"`
}

type FareDetail struct {
	SegmentID           string      `json:"segmentId" bson:"segmentId"`
	Cabin               string      `json:"cabin" bson:"cabin"`
	Class               string      `json:"class" bson:"class"`
	IncludedCheckedBags CheckedBags `json:"includedCheckedBags" bson:"includedCheckedBags"`
}

type CheckedBags struct {
	Quantity int `json:"quantity" bson:"quantity"`
}

// Airport is one entry of a backend airport lookup.
type Airport struct {
	IATA      string  `json:"iata"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Relative prominence used for ranking keyword matches (major hubs first).
	Tier int `json:"tier"`
}

// FlightSearchQuery is the input to a backend flight search.
type FlightSearchQuery struct {
	OriginIATA      string `json:"originIata"`
	DestinationIATA string `json:"destinationIata"`
	DepartureDate   string `json:"departureDate"`
	ReturnDate      string `json:"returnDate,omitempty"`
	Adults          int    `json:"adults"`
	CabinClass      string `json:"cabinClass"`
}

// FlightOrder is the result of a successful backend purchase.
type FlightOrder struct {
	OrderID string `json:"orderId"`
	PNR     string `json:"pnr"`
}
