package dialog

import "fmt"

// Step is one stage of the conversation. The active step decides which
// tools the platform may invoke and which steps are reachable next.
type Step string

const (
	StepGreeting                Step = "greeting"
	StepCollectProfile          Step = "collect-profile"
	StepGetOrigin               Step = "get-origin"
	StepDisambiguateOrigin      Step = "disambiguate-origin"
	StepGetDestination          Step = "get-destination"
	StepDisambiguateDestination Step = "disambiguate-destination"
	StepCollectTripType         Step = "collect-trip-type"
	StepCollectBookingOneWay    Step = "collect-booking-oneway"
	StepCollectBookingRoundTrip Step = "collect-booking-roundtrip"
	StepSearch                  Step = "search"
	StepPresentOptions          Step = "present-options"
	StepConfirmPrice            Step = "confirm-price"
	StepCreateBooking           Step = "create-booking"
	StepErrorRecovery           Step = "error-recovery"
	StepWrapUp                  Step = "wrap-up"
)

// Tool names, matching the function names registered with the platform.
const (
	ToolStartProfileQuestions = "start_profile_questions"
	ToolSubmitProfileAnswer   = "submit_profile_answer"
	ToolFinalizeProfile       = "finalize_profile"
	ToolRestartProfile        = "restart_profile"
	ToolResolveLocation       = "resolve_location"
	ToolSelectAirport         = "select_airport"
	ToolSelectTripType        = "select_trip_type"
	ToolSubmitBookingAnswer   = "submit_booking_answer"
	ToolSaveDepartureDate     = "save_departure_date"
	ToolSaveReturnDate        = "save_return_date"
	ToolSaveAdults            = "save_adults"
	ToolSaveCabin             = "save_cabin"
	ToolFinalizeBooking       = "finalize_booking"
	ToolSearchFlights         = "search_flights"
	ToolSelectFlight          = "select_flight"
	ToolGetFlightPrice        = "get_flight_price"
	ToolBookFlight            = "book_flight"
	ToolUpdatePassenger       = "update_passenger"
	ToolRestartSearch         = "restart_search"
	ToolRestartBooking        = "restart_booking"
)

// stepTools is the closed authorization table: tools callable per step.
// A tool invoked outside its steps is rejected before touching state.
var stepTools = map[Step][]string{
	StepGreeting:                {ToolStartProfileQuestions, ToolResolveLocation},
	StepCollectProfile:          {ToolSubmitProfileAnswer, ToolFinalizeProfile, ToolRestartProfile},
	StepGetOrigin:               {ToolResolveLocation},
	StepDisambiguateOrigin:      {ToolSelectAirport, ToolResolveLocation},
	StepGetDestination:          {ToolResolveLocation},
	StepDisambiguateDestination: {ToolSelectAirport, ToolResolveLocation},
	StepCollectTripType:         {ToolSelectTripType},
	StepCollectBookingOneWay: {
		ToolSubmitBookingAnswer, ToolSaveDepartureDate, ToolSaveAdults,
		ToolSaveCabin, ToolFinalizeBooking, ToolRestartBooking,
	},
	StepCollectBookingRoundTrip: {
		ToolSubmitBookingAnswer, ToolSaveDepartureDate, ToolSaveReturnDate,
		ToolSaveAdults, ToolSaveCabin, ToolFinalizeBooking, ToolRestartBooking,
	},
	StepSearch:         {ToolSearchFlights, ToolRestartSearch, ToolRestartBooking},
	StepPresentOptions: {ToolSelectFlight, ToolSearchFlights, ToolRestartSearch, ToolRestartBooking},
	StepConfirmPrice:   {ToolGetFlightPrice, ToolSelectFlight, ToolRestartSearch, ToolRestartBooking},
	StepCreateBooking:  {ToolBookFlight, ToolUpdatePassenger, ToolRestartSearch, ToolRestartBooking},
	StepErrorRecovery:  {ToolRestartSearch, ToolRestartBooking, ToolResolveLocation},
	StepWrapUp:         {},
}

// stepNext is the closed transition table. The origin steps fan out wide
// because re-resolving an origin mid-trip rejoins the flow at the furthest
// step the saved data justifies.
var stepNext = map[Step][]Step{
	// Greeting reaches past get-origin because a caller may skip profile
	// setup and name an origin in their first utterance.
	StepGreeting:       {StepCollectProfile, StepGetOrigin, StepDisambiguateOrigin, StepGetDestination},
	StepCollectProfile: {StepGetOrigin},
	StepGetOrigin: {
		StepDisambiguateOrigin, StepGetDestination, StepCollectTripType,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip, StepSearch,
	},
	StepDisambiguateOrigin: {
		StepGetOrigin, StepGetDestination, StepCollectTripType,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip, StepSearch,
	},
	StepGetDestination:          {StepDisambiguateDestination, StepCollectTripType},
	StepDisambiguateDestination: {StepGetDestination, StepCollectTripType},
	StepCollectTripType:         {StepCollectBookingOneWay, StepCollectBookingRoundTrip},
	StepCollectBookingOneWay:    {StepCollectBookingRoundTrip, StepSearch, StepErrorRecovery},
	StepCollectBookingRoundTrip: {StepCollectBookingOneWay, StepSearch, StepErrorRecovery},
	// The downstream pipeline steps all admit the forced restart edges
	// back into collection; restarts skip re-validation, not the table.
	StepSearch: {
		StepPresentOptions, StepErrorRecovery,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip,
	},
	StepPresentOptions: {
		StepConfirmPrice, StepSearch, StepErrorRecovery,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip,
	},
	StepConfirmPrice: {
		StepCreateBooking, StepPresentOptions, StepSearch, StepErrorRecovery,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip,
	},
	StepCreateBooking: {
		StepWrapUp, StepErrorRecovery, StepSearch,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip,
	},
	StepErrorRecovery: {
		StepSearch, StepGetOrigin, StepDisambiguateOrigin,
		StepDisambiguateDestination, StepCollectTripType,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip, StepWrapUp,
	},
	StepWrapUp: {},
}

// transitionHints name the missing prerequisite when a jump is refused.
var transitionHints = map[Step]string{
	StepGetDestination:          "resolve an origin airport first",
	StepCollectTripType:         "resolve both origin and destination airports first",
	StepCollectBookingOneWay:    "choose a trip type first",
	StepCollectBookingRoundTrip: "choose a trip type first",
	StepSearch:                  "finish collecting the trip details first",
	StepPresentOptions:          "run a flight search first",
	StepConfirmPrice:            "pick one of the presented flight options first",
	StepCreateBooking:           "confirm the price first",
	StepWrapUp:                  "complete the booking first",
}

func init() {
	if err := validateTables(); err != nil {
		panic(err)
	}
}

// validateTables checks the static tables at startup: every step appears in
// both tables, and every step either reaches somewhere or is terminal.
func validateTables() error {
	all := []Step{
		StepGreeting, StepCollectProfile, StepGetOrigin, StepDisambiguateOrigin,
		StepGetDestination, StepDisambiguateDestination, StepCollectTripType,
		StepCollectBookingOneWay, StepCollectBookingRoundTrip, StepSearch,
		StepPresentOptions, StepConfirmPrice, StepCreateBooking,
		StepErrorRecovery, StepWrapUp,
	}
	known := make(map[Step]bool, len(all))
	for _, s := range all {
		known[s] = true
		if _, ok := stepTools[s]; !ok {
			return fmt.Errorf("dialog: step %q missing from tool table", s)
		}
		next, ok := stepNext[s]
		if !ok {
			return fmt.Errorf("dialog: step %q missing from transition table", s)
		}
		if len(next) == 0 && s != StepWrapUp {
			return fmt.Errorf("dialog: step %q is a dead end", s)
		}
	}
	for s, next := range stepNext {
		if !known[s] {
			return fmt.Errorf("dialog: transition table names unknown step %q", s)
		}
		for _, n := range next {
			if !known[n] {
				return fmt.Errorf("dialog: step %q reaches unknown step %q", s, n)
			}
		}
	}
	for s := range stepTools {
		if !known[s] {
			return fmt.Errorf("dialog: tool table names unknown step %q", s)
		}
	}
	return nil
}

// ParseStep validates a stored step name. Unknown names mean the call state
// is structurally broken and the invocation cannot proceed.
func ParseStep(s string) (Step, error) {
	step := Step(s)
	if _, ok := stepTools[step]; !ok {
		return "", fmt.Errorf("dialog: unknown step %q", s)
	}
	return step, nil
}

// KnownTool reports whether name is in the closed tool set.
func KnownTool(name string) bool {
	for _, tools := range stepTools {
		for _, t := range tools {
			if t == name {
				return true
			}
		}
	}
	return false
}

// AllTools returns every tool name the authorization table mentions,
// deduplicated. Callers use it to verify their handler registry is complete.
func AllTools() []string {
	seen := make(map[string]bool)
	var names []string
	for _, tools := range stepTools {
		for _, t := range tools {
			if !seen[t] {
				seen[t] = true
				names = append(names, t)
			}
		}
	}
	return names
}

// CollectBookingStep maps a trip type to its detail-collection step.
func CollectBookingStep(tripType string) Step {
	if tripType == "round_trip" {
		return StepCollectBookingRoundTrip
	}
	return StepCollectBookingOneWay
}
