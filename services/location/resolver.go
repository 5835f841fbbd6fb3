package location

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"voyager/models"
	"voyager/services/dialog"
	"voyager/services/flights"
	"voyager/services/slots"
	"voyager/services/validate"
	"voyager/utils"

	"go.uber.org/zap"
)

const (
	// maxCandidates is the longest shortlist a caller can be asked to
	// pick from; anything longer is unusable over the phone.
	maxCandidates = 3
	// autoSelectRatio is how decisively the top match has to beat the
	// runner-up before it is taken without asking.
	autoSelectRatio = 3.0
)

// Resolver turns spoken locations into concrete airports: a direct code
// when the caller gives one, otherwise a scored lookup that either
// auto-selects a clear winner or parks a shortlist for disambiguation.
type Resolver interface {
	// ResolveLocation handles the resolve_location tool.
	ResolveLocation(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// SelectAirport handles the select_airport tool against a stored shortlist.
	SelectAirport(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// VerifyAirport resolves text to a single airport without touching the
	// call's route; the profile flow uses it for the home airport.
	VerifyAirport(ctx context.Context, text string) (iata, name string, ok bool)
}

// DefaultResolver is the production implementation.
type DefaultResolver struct {
	Backend flights.Backend
}

// NewResolver wires a resolver over the active flight backend.
func NewResolver(backend flights.Backend) *DefaultResolver {
	return &DefaultResolver{Backend: backend}
}

// ResolveLocation resolves free text for one side of the route. Exactly one
// match (or a decisive top score) saves and advances; several matches stash
// a shortlist and enter the matching disambiguation step; zero matches
// change nothing. With mode=verify it only reports what it found.
func (r *DefaultResolver) ResolveLocation(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	text := strings.TrimSpace(args["text"])
	if text == "" {
		return nil, dialog.NewFieldError(dialog.KindValidationFailed, "location",
			"Which city or airport did you mean?")
	}
	locType, err := parseLocType(args["type"])
	if err != nil {
		return nil, err
	}
	verify := strings.EqualFold(strings.TrimSpace(args["mode"]), "verify")

	if locType == "destination" && state.OriginIATA == "" && !verify {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"Let's pin down where you're flying from first. Which city or airport are you leaving from?")
	}

	cands, err := r.lookup(ctx, text)
	if err != nil {
		utils.GetLogger().Warn("Airport lookup failed",
			zap.String("text", text), zap.Error(err))
		return nil, dialog.FromBackend(err,
			"I'm having trouble looking up airports right now. Give me a moment and tell me the city again.")
	}

	if len(cands) == 0 {
		// For origins we can still offer the airports around home.
		if locType == "origin" && state.HomeAirportIATA != "" {
			if nearby := r.nearHome(ctx, state.HomeAirportIATA); len(nearby) > 0 {
				state.OriginCandidates = nearby
				return &dialog.Result{
					Response: fmt.Sprintf("I couldn't find %q, but close to home I have: %s. Would any of those work?",
						text, candidateList(nearby)),
					Next: nextIfDifferent(state, dialog.StepDisambiguateOrigin),
				}, nil
			}
		}
		return nil, dialog.NewFieldError(dialog.KindValidationFailed, "location",
			fmt.Sprintf("I couldn't find an airport matching %q. Could you give me the city or the airport's name?", text))
	}

	if verify {
		top := cands[0]
		return &dialog.Result{
			Response: fmt.Sprintf("That's %s (%s).", top.Name, top.IATA),
		}, nil
	}

	if decisive(cands) {
		top := cands[0]
		return r.saveResolved(state, locType, top.IATA, top.Name)
	}

	shortlist := cands
	if len(shortlist) > maxCandidates {
		shortlist = shortlist[:maxCandidates]
	}
	var next dialog.Step
	if locType == "origin" {
		state.OriginCandidates = shortlist
		next = dialog.StepDisambiguateOrigin
	} else {
		state.DestinationCandidates = shortlist
		next = dialog.StepDisambiguateDestination
	}
	return &dialog.Result{
		Response: fmt.Sprintf("I found a few airports: %s. Which one would you like?", candidateList(shortlist)),
		Next:     nextIfDifferent(state, next),
	}, nil
}

// SelectAirport picks from the shortlist a previous resolution stored. A
// code outside the shortlist is rejected; an empty shortlist sends the
// caller back to name the place again.
func (r *DefaultResolver) SelectAirport(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	locType, err := parseLocType(args["type"])
	if err != nil {
		return nil, err
	}
	cands := state.OriginCandidates
	if locType == "destination" {
		cands = state.DestinationCandidates
	}
	if len(cands) == 0 {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have a shortlist to pick from. Tell me the city again and I'll look it up.")
	}

	iata := strings.ToUpper(strings.TrimSpace(args["iata"]))
	for _, c := range cands {
		if c.IATA == iata {
			return r.saveResolved(state, locType, c.IATA, c.Name)
		}
	}
	return nil, dialog.NewFieldError(dialog.KindValidationFailed, "iata",
		fmt.Sprintf("That wasn't one of the options. I have: %s. Which of those?", candidateList(cands)))
}

// VerifyAirport resolves text to a single airport when the lookup is
// decisive, without touching the call state.
func (r *DefaultResolver) VerifyAirport(ctx context.Context, text string) (string, string, bool) {
	cands, err := r.lookup(ctx, text)
	if err != nil || len(cands) == 0 || !decisive(cands) {
		return "", "", false
	}
	return cands[0].IATA, cands[0].Name, true
}

// saveResolved writes one side of the route, drops its shortlist, and
// figures out where the call goes next.
func (r *DefaultResolver) saveResolved(state *models.CallState, locType, iata, name string) (*dialog.Result, error) {
	if locType == "origin" {
		state.OriginIATA = iata
		state.OriginName = name
		state.OriginCandidates = nil
		next := rejoinAfterOrigin(state)
		return &dialog.Result{
			Response: fmt.Sprintf("%s (%s), got it. %s", name, iata, stepPrompt(next)),
			Next:     nextIfDifferent(state, next),
		}, nil
	}
	state.DestinationIATA = iata
	state.DestinationName = name
	state.DestinationCandidates = nil
	return &dialog.Result{
		Response: fmt.Sprintf("%s (%s), got it. %s", name, iata, stepPrompt(dialog.StepCollectTripType)),
		Next:     nextIfDifferent(state, dialog.StepCollectTripType),
	}, nil
}

// rejoinAfterOrigin picks the furthest step the saved data justifies, so
// changing the origin mid-trip does not restart the whole conversation.
func rejoinAfterOrigin(state *models.CallState) dialog.Step {
	if state.DestinationIATA == "" {
		return dialog.StepGetDestination
	}
	if state.TripType == "" {
		return dialog.StepCollectTripType
	}
	if slots.Complete(state, state.BookingGroupID()) {
		return dialog.StepSearch
	}
	return dialog.CollectBookingStep(state.TripType)
}

// stepPrompt is the line that moves the conversation into the next step.
func stepPrompt(next dialog.Step) string {
	switch next {
	case dialog.StepGetDestination:
		return "And where are you flying to?"
	case dialog.StepCollectTripType:
		return "Will this be one-way or a round trip?"
	case dialog.StepCollectBookingOneWay, dialog.StepCollectBookingRoundTrip:
		return "Let's pick the trip details back up where we left off."
	case dialog.StepSearch:
		return "I can re-run the search from there whenever you're ready."
	}
	return ""
}

// nextIfDifferent suppresses a self-transition; the step tables have no
// self-loops, so staying put is expressed as no transition at all.
func nextIfDifferent(state *models.CallState, next dialog.Step) dialog.Step {
	if state.Step == string(next) {
		return ""
	}
	return next
}

// lookup is the shared resolution path: the code fast path first, then a
// scored keyword search.
func (r *DefaultResolver) lookup(ctx context.Context, text string) ([]models.AirportCandidate, error) {
	if code, err := validate.ExtractIATA(text); err == nil {
		found, lerr := r.Backend.SearchAirports(ctx, code)
		if lerr != nil {
			return nil, lerr
		}
		for _, a := range found {
			if a.IATA == code {
				return []models.AirportCandidate{{IATA: a.IATA, Name: a.Name, City: a.City, Score: 100}}, nil
			}
		}
		// The code did not check out; fall through and treat the whole
		// phrase as a keyword.
	}

	found, err := r.Backend.SearchAirports(ctx, text)
	if err != nil {
		return nil, err
	}
	cands := make([]models.AirportCandidate, 0, len(found))
	for _, a := range found {
		if s := scoreAirport(text, a); s > 0 {
			cands = append(cands, models.AirportCandidate{IATA: a.IATA, Name: a.Name, City: a.City, Score: s})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	return cands, nil
}

// scoreAirport ranks how well one airport answers the query: match quality
// first, airport prominence as the tie-breaker.
func scoreAirport(query string, a models.Airport) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	city := strings.ToLower(a.City)
	name := strings.ToLower(a.Name)

	var quality float64
	switch {
	case strings.EqualFold(a.IATA, q):
		quality = 100
	case city != "" && city == q:
		quality = 90
	case city != "" && strings.HasPrefix(city, q):
		quality = 70
	case city != "" && strings.Contains(city, q):
		quality = 50
	case strings.Contains(name, q):
		quality = 40
	default:
		// The backend thought it relevant even though our text rules
		// don't see why; keep it, ranked last.
		quality = 25
	}
	return quality + tierBoost(a.Tier)
}

func tierBoost(tier int) float64 {
	if tier < 1 || tier > 3 {
		tier = 3
	}
	return float64((4 - tier) * 10)
}

// decisive reports whether the top candidate can be taken without asking.
func decisive(cands []models.AirportCandidate) bool {
	if len(cands) == 1 {
		return true
	}
	return cands[0].Score > autoSelectRatio*cands[1].Score
}

// nearHome suggests airports around the caller's home airport when a
// spoken origin cannot be found at all.
func (r *DefaultResolver) nearHome(ctx context.Context, homeIATA string) []models.AirportCandidate {
	found, err := r.Backend.SearchAirports(ctx, homeIATA)
	if err != nil {
		return nil
	}
	var home *models.Airport
	for i := range found {
		if found[i].IATA == homeIATA {
			home = &found[i]
			break
		}
	}
	if home == nil {
		return nil
	}
	nearby, err := r.Backend.NearestAirports(ctx, home.Latitude, home.Longitude, maxCandidates)
	if err != nil {
		return nil
	}
	cands := make([]models.AirportCandidate, 0, len(nearby))
	for _, a := range nearby {
		cands = append(cands, models.AirportCandidate{IATA: a.IATA, Name: a.Name, City: a.City, Score: tierBoost(a.Tier)})
	}
	return cands
}

func candidateList(cands []models.AirportCandidate) string {
	parts := make([]string, len(cands))
	for i, c := range cands {
		if c.City != "" {
			parts[i] = fmt.Sprintf("%s (%s) in %s", c.Name, c.IATA, c.City)
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.IATA)
		}
	}
	return strings.Join(parts, "; ")
}

func parseLocType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "origin":
		return "origin", nil
	case "destination":
		return "destination", nil
	}
	return "", dialog.NewFieldError(dialog.KindValidationFailed, "type",
		"I need to know whether that's where you're leaving from or flying to.")
}
