package models

import "time"

// Question group ids. Closed set; runtime state is keyed by these.
const (
	GroupProfile   = "profile"
	GroupOneWay    = "oneway"
	GroupRoundTrip = "roundtrip"
)

// Trip types.
const (
	TripOneWay    = "one_way"
	TripRoundTrip = "round_trip"
)

// CallState is the transient, per-call conversation state. It is persisted
// externally between turns (the platform serializes tool calls per call, but
// any process may handle the next turn) and discarded at hangup. Permanent
// outcomes live in Passenger and Booking records instead.
type CallState struct {
	CallID string `json:"callId" bson:"callId"`
	Phone  string `json:"phone" bson:"phone"`
	Step   string `json:"step" bson:"step"`

	// True when a passenger record existed for the phone number at call start.
	HasProfile bool `json:"hasProfile" bson:"hasProfile"`

	// Copied from the profile at call start; anchors the "airports near
	// you" fallback and the suggested origin in the greeting.
	HomeAirportIATA string `json:"homeAirportIata,omitempty" bson:"homeAirportIata,omitempty"`

	// Resolved route.
	OriginIATA      string `json:"originIata,omitempty" bson:"originIata,omitempty"`
	OriginName      string `json:"originName,omitempty" bson:"originName,omitempty"`
	DestinationIATA string `json:"destinationIata,omitempty" bson:"destinationIata,omitempty"`
	DestinationName string `json:"destinationName,omitempty" bson:"destinationName,omitempty"`

	// Disambiguation candidates held while the matching step is active.
	OriginCandidates      []AirportCandidate `json:"originCandidates,omitempty" bson:"originCandidates,omitempty"`
	DestinationCandidates []AirportCandidate `json:"destinationCandidates,omitempty" bson:"destinationCandidates,omitempty"`

	// "one_way" or "round_trip"; empty until chosen.
	TripType string `json:"tripType,omitempty" bson:"tripType,omitempty"`

	// Question-group runtime state, keyed by group id.
	Groups map[string]*QuestionGroupState `json:"groups,omitempty" bson:"groups,omitempty"`

	// Booking pipeline state.
	Offers         []FlightOffer `json:"offers,omitempty" bson:"offers,omitempty"`
	OfferSummaries []string      `json:"offerSummaries,omitempty" bson:"offerSummaries,omitempty"`
	SelectedOffer  *FlightOffer  `json:"selectedOffer,omitempty" bson:"selectedOffer,omitempty"`
	PricedOffer    *FlightOffer  `json:"pricedOffer,omitempty" bson:"pricedOffer,omitempty"`
	ConfirmedPrice string        `json:"confirmedPrice,omitempty" bson:"confirmedPrice,omitempty"`
	Currency       string        `json:"currency,omitempty" bson:"currency,omitempty"`

	// Set after a successful purchase.
	BookingID string `json:"bookingId,omitempty" bson:"bookingId,omitempty"`
	PNR       string `json:"pnr,omitempty" bson:"pnr,omitempty"`

	// Wall-clock of the previous successful per-field save (cooldown anchor).
	LastSaveAt time.Time `json:"lastSaveAt,omitempty" bson:"lastSaveAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// BookingGroupID maps the chosen trip type to its question group, or ""
// when no trip type has been chosen yet.
func (s *CallState) BookingGroupID() string {
	switch s.TripType {
	case TripOneWay:
		return GroupOneWay
	case TripRoundTrip:
		return GroupRoundTrip
	}
	return ""
}

// ResetGroup replaces a group's runtime state with a fresh, started one.
// Used both to begin a group and to wipe it on restart.
func (s *CallState) ResetGroup(group string) *QuestionGroupState {
	if s.Groups == nil {
		s.Groups = make(map[string]*QuestionGroupState)
	}
	g := &QuestionGroupState{Group: group, Started: true, Answers: make(map[string]string)}
	s.Groups[group] = g
	return g
}

// GroupState returns the runtime state for a group, or nil.
func (s *CallState) GroupState(group string) *QuestionGroupState {
	if s.Groups == nil {
		return nil
	}
	return s.Groups[group]
}

// AnswerFor returns one accumulated answer, or "".
func (s *CallState) AnswerFor(group, key string) string {
	g := s.GroupState(group)
	if g == nil || g.Answers == nil {
		return ""
	}
	return g.Answers[key]
}

// QuestionGroupState tracks one question group's progress on one call.
// The accumulator only grows until the group is finalized and cleared.
type QuestionGroupState struct {
	Group   string            `json:"group" bson:"group"`
	Started bool              `json:"started" bson:"started"`
	Cursor  int               `json:"cursor" bson:"cursor"`
	Answers map[string]string `json:"answers" bson:"answers"`

	// Key currently awaiting the caller's yes, with the answer text that was
	// read back. Empty when nothing is pending. Cleared on advance.
	PendingConfirmation string `json:"pendingConfirmation,omitempty" bson:"pendingConfirmation,omitempty"`
	PendingAnswer       string `json:"pendingAnswer,omitempty" bson:"pendingAnswer,omitempty"`
}

// AirportCandidate is one possible airport match for a spoken location.
type AirportCandidate struct {
	IATA  string  `json:"iata" bson:"iata"`
	Name  string  `json:"name" bson:"name"`
	City  string  `json:"city,omitempty" bson:"city,omitempty"`
	Score float64 `json:"score" bson:"score"`
}

// CallSummary is a lightweight dashboard projection of live call state.
// It is computed on read and never stored.
type CallSummary struct {
	CallID          string   `json:"callId"`
	Phone           string   `json:"phone"`
	Step            string   `json:"step"`
	HasProfile      bool     `json:"hasProfile"`
	OriginIATA      string   `json:"originIata,omitempty"`
	DestinationIATA string   `json:"destinationIata,omitempty"`
	TripType        string   `json:"tripType,omitempty"`
	DepartureDate   string   `json:"departureDate,omitempty"`
	ReturnDate      string   `json:"returnDate,omitempty"`
	HasFlightOffers bool     `json:"hasFlightOffers"`
	HasPricedOffer  bool     `json:"hasPricedOffer"`
	ConfirmedPrice  string   `json:"confirmedPrice,omitempty"`
	OfferSummaries  []string `json:"offerSummaries,omitempty"`
	BookingID       string   `json:"bookingId,omitempty"`
	PNR             string   `json:"pnr,omitempty"`
	UpdatedAt       string   `json:"updatedAt"`
}
