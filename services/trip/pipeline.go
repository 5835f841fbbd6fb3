// Package trip drives the transactional half of a call: searching flights,
// narrowing to one offer, locking a price, and purchasing. Offers are cached
// on the call state between turns, so every stage revalidates what it needs
// instead of trusting that the previous stage just ran.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "voyager/database/repository/booking"
	passengerRepo "voyager/database/repository/passenger"
	"voyager/models"
	"voyager/services/dialog"
	"voyager/services/flights"
	"voyager/services/slots"
	"voyager/services/validate"
	"voyager/utils"
)

// defaultMaxOffers caps how many search results are cached and read out.
// Three is about what a caller can hold in their head over the phone.
const defaultMaxOffers = 3

// ConfirmationDispatcher sends the post-purchase confirmation message. The
// notification service implements it; delivery is best effort and never
// fails the booking.
type ConfirmationDispatcher interface {
	DispatchBookingConfirmation(b *models.Booking) error
}

// Pipeline is the tool surface for the search, select, price, and book
// stages, plus the two forced restarts out of them.
type Pipeline interface {
	SearchFlights(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	SelectFlight(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	GetFlightPrice(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	BookFlight(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	RestartSearch(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	RestartBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
}

// DefaultPipeline is the production implementation.
type DefaultPipeline struct {
	Backend    flights.Backend
	Passengers passengerRepo.PassengerRepository
	Bookings   bookingRepo.BookingRepository
	Notifier   ConfirmationDispatcher
	MaxOffers  int
}

// NewPipeline wires a pipeline with the default offer cap.
func NewPipeline(backend flights.Backend, passengers passengerRepo.PassengerRepository, bookings bookingRepo.BookingRepository, notifier ConfirmationDispatcher) *DefaultPipeline {
	return &DefaultPipeline{
		Backend:    backend,
		Passengers: passengers,
		Bookings:   bookings,
		Notifier:   notifier,
		MaxOffers:  defaultMaxOffers,
	}
}

// SearchFlights runs the backend search and caches the top offers against
// the call. A fresh search always drops any earlier selection and price
// lock, since those pointed into the previous result set.
func (p *DefaultPipeline) SearchFlights(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	query, err := p.buildQuery(state)
	if err != nil {
		return nil, err
	}
	offers, err := p.Backend.SearchFlights(ctx, query)
	if err != nil {
		utils.GetLogger().Warn("flight search failed",
			zap.String("callID", state.CallID), zap.Error(err))
		fe := dialog.FromBackend(err, "I'm having trouble reaching the flight search right now. Let's give it a moment and try again.")
		return &dialog.Result{Response: fe.Message, Next: dialog.StepErrorRecovery, Kind: fe.Kind}, nil
	}
	if len(offers) == 0 {
		clearOffers(state)
		return &dialog.Result{
			Response: fmt.Sprintf("I couldn't find any flights from %s to %s on %s. Would different dates work?",
				state.OriginIATA, state.DestinationIATA, query.DepartureDate),
		}, nil
	}
	max := p.MaxOffers
	if max <= 0 {
		max = defaultMaxOffers
	}
	if len(offers) > max {
		offers = offers[:max]
	}
	state.Offers = offers
	state.OfferSummaries = make([]string, len(offers))
	for i, o := range offers {
		state.OfferSummaries[i] = summarizeOffer(i+1, o)
	}
	state.SelectedOffer = nil
	state.PricedOffer = nil
	state.ConfirmedPrice = ""

	readout := strings.Join(state.OfferSummaries, " ")
	resp := fmt.Sprintf("I found %d options. %s Which one would you like?", len(offers), readout)
	if len(offers) == 1 {
		resp = fmt.Sprintf("I found one option. %s Shall we go with it?", readout)
	}
	return &dialog.Result{Response: resp, Next: nextIfDifferent(state, dialog.StepPresentOptions)}, nil
}

// SelectFlight picks one cached offer by its 1-based option number. Picking
// again replaces the selection and throws away any price lock on the old
// one.
func (p *DefaultPipeline) SelectFlight(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	if len(state.Offers) == 0 {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have any flight options to choose from. Let me run the search first.")
	}
	n, err := strconv.Atoi(strings.TrimSpace(args["option"]))
	if err != nil || n < 1 || n > len(state.Offers) {
		return nil, dialog.NewFieldError(dialog.KindValidationFailed, "option",
			fmt.Sprintf("That's not one of the options. Pick a number from 1 to %d.", len(state.Offers)))
	}
	offer := state.Offers[n-1]
	state.SelectedOffer = &offer
	state.PricedOffer = nil
	state.ConfirmedPrice = ""
	return &dialog.Result{
		Response: fmt.Sprintf("%s Shall I get the final price for it?", summarizeOffer(n, offer)),
		Next:     nextIfDifferent(state, dialog.StepConfirmPrice),
	}, nil
}

// GetFlightPrice locks in the final price for the selected offer. The
// backend may nudge the total versus the search-time quote, so the response
// calls out a change when there is one.
func (p *DefaultPipeline) GetFlightPrice(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	if state.SelectedOffer == nil {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"You haven't picked one of the options yet. Which one would you like?")
	}
	priced, err := p.Backend.PriceOffer(ctx, *state.SelectedOffer)
	if err != nil {
		utils.GetLogger().Warn("offer pricing failed",
			zap.String("callID", state.CallID), zap.Error(err))
		msg := "I couldn't confirm the price for that option right now. Let's try again in a moment."
		if errors.Is(err, flights.ErrStaleOffer) {
			msg = "That fare expired while we were talking. Let me run a fresh search."
		}
		fe := dialog.FromBackend(err, msg)
		return &dialog.Result{Response: fe.Message, Next: dialog.StepErrorRecovery, Kind: fe.Kind}, nil
	}
	state.PricedOffer = priced
	state.ConfirmedPrice = finalPrice(priced)

	resp := fmt.Sprintf("The total comes to %s.", spokenPrice(priced.Price))
	if quoted := finalPrice(state.SelectedOffer); quoted != "" && quoted != state.ConfirmedPrice {
		resp = fmt.Sprintf("The total comes to %s, a small change from the %s quote.",
			spokenPrice(priced.Price), spokenPrice(state.SelectedOffer.Price))
	}
	return &dialog.Result{
		Response: resp + " Shall I book it?",
		Next:     nextIfDifferent(state, dialog.StepCreateBooking),
	}, nil
}

// BookFlight is the purchase stage. Inventory can shift between the price
// lock and this call, and the pricing endpoint echoes whatever departure
// times it was given rather than refreshing them, so purchasing the stored
// offer directly risks a mismatch rejection. Instead: re-run the search,
// find the same flight in the fresh results by carrier and flight number,
// re-price that, and buy it.
func (p *DefaultPipeline) BookFlight(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	passenger, err := p.Passengers.GetByPhone(state.Phone)
	if err != nil {
		utils.GetLogger().Error("passenger lookup failed",
			zap.String("phone", state.Phone), zap.Error(err))
		return nil, dialog.NewFlowError(dialog.KindBackendUnavailable,
			"I'm having trouble pulling up your profile. Give me a second and ask me to book again.")
	}
	if passenger == nil {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have a passenger profile for this number, and I can't complete a booking without one.")
	}
	if state.PricedOffer == nil || state.ConfirmedPrice == "" {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I haven't confirmed a final price yet. Let me price the option you picked first.")
	}
	query, err := p.buildQuery(state)
	if err != nil {
		return nil, err
	}

	// Overrides apply to this order only; update_passenger is the
	// persistent path.
	traveler := *passenger
	if v := strings.TrimSpace(args["email"]); v != "" {
		email, verr := validate.Email(v)
		if verr != nil {
			return nil, dialog.FromValidation(verr)
		}
		traveler.Email = email
	}

	fresh, err := p.Backend.SearchFlights(ctx, query)
	if err != nil {
		utils.GetLogger().Warn("pre-purchase search failed",
			zap.String("callID", state.CallID), zap.Error(err))
		fe := dialog.FromBackend(err, "The booking system isn't responding right now. Let's try again in a moment.")
		return &dialog.Result{Response: fe.Message, Next: dialog.StepErrorRecovery, Kind: fe.Kind}, nil
	}
	wanted := flightKey(*state.PricedOffer)
	match, ok := matchOffer(fresh, wanted)
	if !ok {
		return &dialog.Result{
			Response: "That flight has sold out since we priced it. Let's run a new search.",
			Next:     dialog.StepErrorRecovery,
			Kind:     dialog.KindStaleOffer,
		}, nil
	}
	priced, err := p.Backend.PriceOffer(ctx, match)
	if err != nil {
		utils.GetLogger().Warn("pre-purchase repricing failed",
			zap.String("callID", state.CallID), zap.Error(err))
		msg := "I couldn't re-confirm that fare before purchase. Let's try once more."
		if errors.Is(err, flights.ErrStaleOffer) {
			msg = "That fare expired right before purchase. Let's run a fresh search."
		}
		fe := dialog.FromBackend(err, msg)
		return &dialog.Result{Response: fe.Message, Next: dialog.StepErrorRecovery, Kind: fe.Kind}, nil
	}
	order, err := p.Backend.CreateOrder(ctx, *priced, traveler)
	if err != nil {
		utils.GetLogger().Error("flight order failed",
			zap.String("callID", state.CallID), zap.Error(err))
		msg := "The airline's booking system isn't responding, so nothing was charged. Let's try again in a moment."
		if errors.Is(err, flights.ErrStaleOffer) {
			msg = "The airline rejected that fare at the last second, so nothing was charged. Let's search again."
		}
		fe := dialog.FromBackend(err, msg)
		return &dialog.Result{Response: fe.Message, Next: dialog.StepErrorRecovery, Kind: fe.Kind}, nil
	}

	group := state.BookingGroupID()
	booking := &models.Booking{
		ID:              uuid.NewString(),
		CallID:          state.CallID,
		Phone:           state.Phone,
		PassengerName:   traveler.FullName(),
		OriginIATA:      state.OriginIATA,
		DestinationIATA: state.DestinationIATA,
		DepartureDate:   state.AnswerFor(group, slots.KeyDepartureDate),
		ReturnDate:      state.AnswerFor(group, slots.KeyReturnDate),
		TripType:        state.TripType,
		Adults:          query.Adults,
		CabinClass:      query.CabinClass,
		PriceTotal:      finalPrice(priced),
		Currency:        priced.Price.Currency,
		OrderID:         order.OrderID,
		PNR:             order.PNR,
		Status:          models.BookingStatusConfirmed,
	}
	if err := p.Bookings.Create(booking); err != nil {
		// The order exists with the airline either way. Losing the local
		// record is an ops problem, not a reason to tell the caller the
		// booking failed.
		utils.GetLogger().Error("booking record save failed",
			zap.String("orderID", order.OrderID), zap.Error(err))
	}
	if p.Notifier != nil {
		if err := p.Notifier.DispatchBookingConfirmation(booking); err != nil {
			utils.GetLogger().Warn("confirmation dispatch failed",
				zap.String("bookingID", booking.ID), zap.Error(err))
		}
	}
	state.PricedOffer = priced
	state.ConfirmedPrice = booking.PriceTotal
	state.Currency = booking.Currency
	state.BookingID = booking.ID
	state.PNR = order.PNR

	var b strings.Builder
	if flightKey(*priced) != wanted {
		b.WriteString("The exact flight we priced sold out, so I booked the closest match on the same route. ")
	}
	fmt.Fprintf(&b, "You're booked! Your confirmation code is %s, that's %s. Total charged: %s. A confirmation text is on its way to your phone.",
		order.PNR, utils.SpellPhonetic(order.PNR), spokenPrice(priced.Price))
	return &dialog.Result{Response: b.String(), Next: dialog.StepWrapUp}, nil
}

// RestartSearch throws away cached offers and any selection or price lock,
// and drops the call back at the search step. Route and trip details stay
// as they are; the forced transition skips re-validating them.
func (p *DefaultPipeline) RestartSearch(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	if reason := strings.TrimSpace(args["reason"]); reason != "" {
		utils.GetLogger().Info("search restarted",
			zap.String("callID", state.CallID), zap.String("reason", reason))
	}
	clearOffers(state)
	return &dialog.Result{
		Response: "Okay, let's search again. Tell me what to change, or say go ahead to rerun it as is.",
		Next:     nextIfDifferent(state, dialog.StepSearch),
	}, nil
}

// RestartBooking resets the collected trip details for another pass. The
// chosen trip type survives so the caller is not re-asked something they
// already answered.
func (p *DefaultPipeline) RestartBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	group := state.BookingGroupID()
	if group == "" {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't know yet whether this is one way or round trip. Which would you like?")
	}
	if reason := strings.TrimSpace(args["reason"]); reason != "" {
		utils.GetLogger().Info("booking details restarted",
			zap.String("callID", state.CallID), zap.String("reason", reason))
	}
	clearOffers(state)
	state.ResetGroup(group)
	return &dialog.Result{
		Response: "Okay, let's redo the trip details. Trip type preserved. " + slots.FirstPrompt(group),
		Next:     nextIfDifferent(state, dialog.CollectBookingStep(state.TripType)),
	}, nil
}

// buildQuery assembles the backend search request from the resolved route
// and the accumulated trip details. Any gap short-circuits with an
// instruction naming what to go collect; searching with guessed defaults
// would hide the gap until purchase.
func (p *DefaultPipeline) buildQuery(state *models.CallState) (models.FlightSearchQuery, error) {
	var q models.FlightSearchQuery
	if state.OriginIATA == "" {
		return q, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have your departure city yet. Where are you flying from?")
	}
	if state.DestinationIATA == "" {
		return q, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have your destination yet. Where are you flying to?")
	}
	group := state.BookingGroupID()
	if group == "" {
		return q, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't know yet whether this is one way or round trip. Which would you like?")
	}
	if field := slots.MissingField(state, group); field != "" {
		return q, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			fmt.Sprintf("I still need your %s before I can search.", field))
	}
	adults := 1
	if n, err := strconv.Atoi(state.AnswerFor(group, slots.KeyAdults)); err == nil && n > 0 {
		adults = n
	}
	cabin := state.AnswerFor(group, slots.KeyCabinClass)
	if cabin == "" {
		cabin = "ECONOMY"
	}
	q = models.FlightSearchQuery{
		OriginIATA:      state.OriginIATA,
		DestinationIATA: state.DestinationIATA,
		DepartureDate:   state.AnswerFor(group, slots.KeyDepartureDate),
		Adults:          adults,
		CabinClass:      cabin,
	}
	if state.TripType == models.TripRoundTrip {
		q.ReturnDate = state.AnswerFor(group, slots.KeyReturnDate)
	}
	return q, nil
}

// flightKey identifies a flight by its carrier and flight-number pairs
// across all segments. Offer IDs and segment timestamps go stale between
// search and purchase; the airline and number do not.
func flightKey(offer models.FlightOffer) string {
	var parts []string
	for _, it := range offer.Itineraries {
		for _, seg := range it.Segments {
			parts = append(parts, seg.CarrierCode+seg.Number)
		}
	}
	return strings.Join(parts, "|")
}

// matchOffer finds the priced flight inside fresh search results. When the
// exact flight is gone, the first fresh offer stands in: same route, date,
// and cabin, and it gets re-priced before anything is charged.
func matchOffer(fresh []models.FlightOffer, key string) (models.FlightOffer, bool) {
	for _, o := range fresh {
		if flightKey(o) == key {
			return o, true
		}
	}
	if len(fresh) > 0 {
		return fresh[0], true
	}
	return models.FlightOffer{}, false
}

func finalPrice(o *models.FlightOffer) string {
	if o == nil {
		return ""
	}
	if o.Price.GrandTotal != "" {
		return o.Price.GrandTotal
	}
	return o.Price.Total
}

func clearOffers(state *models.CallState) {
	state.Offers = nil
	state.OfferSummaries = nil
	state.SelectedOffer = nil
	state.PricedOffer = nil
	state.ConfirmedPrice = ""
}

// nextIfDifferent suppresses self-transitions, which the step tables do not
// carry. An empty Next tells the orchestrator to stay put.
func nextIfDifferent(state *models.CallState, next dialog.Step) dialog.Step {
	if state.Step == string(next) {
		return ""
	}
	return next
}
