package slots

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	passengerRepo "voyager/database/repository/passenger"
	"voyager/models"
	"voyager/services/dialog"
	"voyager/services/validate"
	"voyager/utils"

	"go.uber.org/zap"
)

// AirportVerifier resolves a spoken home-airport phrase to a concrete
// airport without touching the trip route. The profile flow uses it to
// annotate the stored answer with the airport code.
type AirportVerifier interface {
	VerifyAirport(ctx context.Context, text string) (iata, name string, ok bool)
}

// Engine drives the question groups: one cursor per group, answers
// accumulated in order, confirmation bounces for the keys flagged for it,
// and per-field saves with a cooldown for the booking groups. Every method
// matches dialog.ToolFunc so the dispatcher can register them directly.
type Engine interface {
	// StartProfile begins the profile question group.
	StartProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// SubmitProfile records one profile answer at the cursor.
	SubmitProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// FinalizeProfile validates the completed group and upserts the passenger.
	FinalizeProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// RestartProfile wipes the profile group and asks again from the top.
	RestartProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// SelectTripType branches into the matching booking question group.
	SelectTripType(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// SubmitBooking records one booking answer at the cursor.
	SubmitBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// SaveDepartureDate, SaveReturnDate, SaveAdults and SaveCabin are the
	// discrete field saves; they share a cooldown and write the same
	// accumulator the cursor path does.
	SaveDepartureDate(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	SaveReturnDate(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	SaveAdults(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	SaveCabin(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
	// FinalizeBooking batch-validates the booking group and releases the
	// call into the flight search.
	FinalizeBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error)
}

// DefaultEngine is the production implementation.
type DefaultEngine struct {
	Passengers passengerRepo.PassengerRepository
	Airports   AirportVerifier
	Cooldown   time.Duration
	Clock      func() time.Time
}

// NewEngine wires an engine with the standard clock.
func NewEngine(passengers passengerRepo.PassengerRepository, airports AirportVerifier, cooldown time.Duration) *DefaultEngine {
	return &DefaultEngine{
		Passengers: passengers,
		Airports:   airports,
		Cooldown:   cooldown,
		Clock:      time.Now,
	}
}

func (e *DefaultEngine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// StartProfile begins the profile question group. Re-invocation on an
// already-running group is an idempotent no-op that repeats the current
// question rather than derailing the call.
func (e *DefaultEngine) StartProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	if g := state.GroupState(models.GroupProfile); g != nil && g.Started {
		syncCursor(g, profileQuestions)
		return &dialog.Result{
			Response: promptAt(g, profileQuestions, models.GroupProfile),
			Next:     dialog.StepCollectProfile,
			Kind:     dialog.KindAlreadyStarted,
		}, nil
	}
	state.ResetGroup(models.GroupProfile)
	return &dialog.Result{
		Response: "Happy to get you set up. " + profileQuestions[0].Prompt,
		Next:     dialog.StepCollectProfile,
	}, nil
}

// SubmitProfile records one profile answer at the cursor.
func (e *DefaultEngine) SubmitProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	return e.submit(ctx, state, models.GroupProfile, args)
}

// SubmitBooking records one booking answer at the cursor of whichever
// booking group the chosen trip type selected.
func (e *DefaultEngine) SubmitBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	group := state.BookingGroupID()
	if group == "" {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"We haven't chosen a trip type yet. One-way or round trip?")
	}
	return e.submit(ctx, state, group, args)
}

// submit is the shared cursor path: duplicate guard, confirmation bounce,
// validation, then advance.
func (e *DefaultEngine) submit(ctx context.Context, state *models.CallState, group string, args map[string]string) (*dialog.Result, error) {
	qs := questionsFor(group)
	g := state.GroupState(group)
	if g == nil || !g.Started {
		return nil, dialog.NewFlowError(dialog.KindNotStarted,
			"We haven't started those questions yet.")
	}
	syncCursor(g, qs)
	if g.Cursor >= len(qs) {
		return nil, dialog.NewFlowError(dialog.KindOutOfOrder,
			"I already have all of those answers. "+completionSignal(group))
	}

	q := qs[g.Cursor]
	if key := strings.TrimSpace(args["key"]); key != "" && key != q.Key {
		if _, answered := g.Answers[key]; answered {
			return nil, dialog.NewFieldError(dialog.KindOutOfOrder, key,
				fmt.Sprintf("I already have your %s. %s", fieldLabel(key), q.Prompt))
		}
		return nil, dialog.NewFieldError(dialog.KindOutOfOrder, key,
			"Let's take these one at a time. "+q.Prompt)
	}

	answer := strings.TrimSpace(args["answer"])
	confirmed := parseBool(args["confirmed"])
	if answer == "" {
		if q.Confirm && g.PendingConfirmation == q.Key && confirmed {
			answer = g.PendingAnswer
		}
		if answer == "" {
			return nil, dialog.NewFieldError(dialog.KindValidationFailed, q.Key,
				"I didn't catch that. "+q.Prompt)
		}
	}

	// Two-phase bounce: the first submission for a confirm-flagged key is
	// always read back, whatever the confirmed flag claims. The caller
	// has to hear the transcription before a yes can mean anything.
	if q.Confirm {
		if g.PendingConfirmation != q.Key || !confirmed {
			g.PendingConfirmation = q.Key
			g.PendingAnswer = answer
			return &dialog.Result{
				Response: fmt.Sprintf("I have your %s as %s. Is that right?", fieldLabel(q.Key), answer),
				Kind:     dialog.KindConfirmationPending,
			}, nil
		}
	}

	value := answer
	if q.Validate != nil {
		v, err := q.Validate(e.now(), g.Answers, answer)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		value = v
	}
	if group == models.GroupProfile && q.Key == KeyHomeAirport && e.Airports != nil {
		if iata, name, ok := e.Airports.VerifyAirport(ctx, answer); ok {
			value = fmt.Sprintf("%s (%s)", name, iata)
		}
	}

	g.Answers[q.Key] = value
	g.PendingConfirmation = ""
	g.PendingAnswer = ""
	syncCursor(g, qs)

	if g.Cursor >= len(qs) {
		return &dialog.Result{Response: "Got it. " + completionSignal(group)}, nil
	}
	return &dialog.Result{Response: "Got it. " + qs[g.Cursor].Prompt}, nil
}

// FinalizeProfile validates the completed group, builds the passenger
// record and upserts it by phone number.
func (e *DefaultEngine) FinalizeProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	g := state.GroupState(models.GroupProfile)
	if g == nil || !g.Started {
		return nil, dialog.NewFlowError(dialog.KindNotStarted,
			"We haven't started your profile yet.")
	}
	syncCursor(g, profileQuestions)
	if g.Cursor < len(profileQuestions) {
		q := profileQuestions[g.Cursor]
		return nil, dialog.NewFieldError(dialog.KindMissingPrerequisite, q.Key,
			fmt.Sprintf("I still need your %s. %s", fieldLabel(q.Key), q.Prompt))
	}

	first, last, err := validate.Name(g.Answers[KeyFullName])
	if err != nil {
		rewind(g, profileQuestions, KeyFullName)
		return nil, dialog.FromValidation(err)
	}

	p := &models.Passenger{
		Phone:           state.Phone,
		FirstName:       first,
		LastName:        last,
		DateOfBirth:     g.Answers[KeyDateOfBirth],
		Gender:          g.Answers[KeyGender],
		Email:           g.Answers[KeyEmail],
		SeatPreference:  g.Answers[KeySeatPreference],
		CabinPreference: g.Answers[KeyCabinPreference],
		HomeAirport:     g.Answers[KeyHomeAirport],
	}
	if iata, err := validate.ExtractIATA(p.HomeAirport); err == nil {
		p.HomeAirportIATA = iata
	}

	if e.Passengers != nil {
		if err := e.Passengers.Upsert(p); err != nil {
			utils.GetLogger().Error("Failed to upsert passenger profile",
				zap.String("phone", state.Phone), zap.Error(err))
			return nil, dialog.NewFlowError(dialog.KindBackendUnavailable,
				"I couldn't save your profile just now. Let's try that once more.")
		}
	}
	state.HasProfile = true

	return &dialog.Result{
		Response: fmt.Sprintf("You're all set, %s. Now, which city or airport are you flying from?", first),
		Next:     dialog.StepGetOrigin,
	}, nil
}

// RestartProfile wipes the group and asks again from the top.
func (e *DefaultEngine) RestartProfile(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	state.ResetGroup(models.GroupProfile)
	return &dialog.Result{
		Response: "Sure, let's start your profile over. " + profileQuestions[0].Prompt,
	}, nil
}

// SelectTripType validates the choice against the closed set and branches
// into the matching booking question group. An existing group for that type
// keeps its answers, so flipping back after a restart resumes where the
// caller left off.
func (e *DefaultEngine) SelectTripType(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	tripType, ok := normalizeTripType(args["trip_type"])
	if !ok {
		return nil, dialog.NewFieldError(dialog.KindValidationFailed, "trip_type",
			"I can book a one-way or a round trip. Which would you like?")
	}

	state.TripType = tripType
	group := state.BookingGroupID()
	qs := questionsFor(group)
	g := state.GroupState(group)
	if g == nil || !g.Started {
		g = state.ResetGroup(group)
	}
	syncCursor(g, qs)

	lead := "A one-way trip, got it. "
	if tripType == models.TripRoundTrip {
		lead = "A round trip, got it. "
	}
	return &dialog.Result{
		Response: lead + promptAt(g, qs, group),
		Next:     dialog.CollectBookingStep(tripType),
	}, nil
}

// FinalizeBooking batch-validates the accumulated booking answers. Dates
// are re-checked against the clock (calls cross midnight), the passenger
// count takes the lenient parse, and an oversized party is handed off to a
// human agent by parking the call in error recovery.
func (e *DefaultEngine) FinalizeBooking(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	group := state.BookingGroupID()
	if group == "" {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"We haven't chosen a trip type yet. One-way or round trip?")
	}
	qs := questionsFor(group)
	g := state.GroupState(group)
	if g == nil || !g.Started {
		return nil, dialog.NewFlowError(dialog.KindNotStarted,
			"We haven't collected the trip details yet.")
	}
	syncCursor(g, qs)
	if g.Cursor < len(qs) {
		q := qs[g.Cursor]
		return nil, dialog.NewFieldError(dialog.KindMissingPrerequisite, q.Key,
			fmt.Sprintf("I still need the %s. %s", fieldLabel(q.Key), q.Prompt))
	}

	now := e.now()
	dep := g.Answers[KeyDepartureDate]
	if _, err := validate.FutureDate(KeyDepartureDate, dep, now); err != nil {
		rewind(g, qs, KeyDepartureDate)
		return nil, dialog.FromValidation(err)
	}
	if group == models.GroupRoundTrip {
		if _, err := validate.ReturnDate(g.Answers[KeyReturnDate], dep, now); err != nil {
			rewind(g, qs, KeyReturnDate)
			return nil, dialog.FromValidation(err)
		}
	}

	adults, err := validate.AdultsLenient(g.Answers[KeyAdults])
	if err != nil {
		fe := dialog.FromValidation(err)
		return &dialog.Result{
			Response: fe.Message + " Is there anything else I can help you with?",
			Next:     dialog.StepErrorRecovery,
			Kind:     dialog.KindPartyTooLarge,
		}, nil
	}
	g.Answers[KeyAdults] = strconv.Itoa(adults)

	cabin, err := validate.Cabin(g.Answers[KeyCabinClass])
	if err != nil {
		rewind(g, qs, KeyCabinClass)
		return nil, dialog.FromValidation(err)
	}
	g.Answers[KeyCabinClass] = cabin

	return &dialog.Result{
		Response: "Perfect, I have everything I need. Let me look for flights.",
		Next:     dialog.StepSearch,
	}, nil
}

// syncCursor points the cursor at the first unanswered question. Both the
// cursor path and the discrete saves write the same accumulator, so the
// cursor is always derived from it rather than counted.
func syncCursor(g *models.QuestionGroupState, qs []Question) {
	g.Cursor = firstUnanswered(qs, g.Answers)
}

// rewind clears one answer so the caller can re-answer it without tripping
// the duplicate guard, and drops any pending confirmation with it.
func rewind(g *models.QuestionGroupState, qs []Question, key string) {
	delete(g.Answers, key)
	g.PendingConfirmation = ""
	g.PendingAnswer = ""
	syncCursor(g, qs)
}

// promptAt is the current question's prompt, or the completion signal when
// the group is already done.
func promptAt(g *models.QuestionGroupState, qs []Question, group string) string {
	if g.Cursor >= len(qs) {
		return completionSignal(group)
	}
	return qs[g.Cursor].Prompt
}

// completionSignal names the finalize operation the agent must call next.
func completionSignal(group string) string {
	if group == models.GroupProfile {
		return "That's everything for your profile. Call finalize_profile to save it."
	}
	return "That's all the trip details. Call finalize_booking to continue to the search."
}

func normalizeTripType(raw string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case models.TripOneWay, "oneway":
		return models.TripOneWay, true
	case models.TripRoundTrip, "roundtrip", "return":
		return models.TripRoundTrip, true
	}
	return "", false
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "correct":
		return true
	}
	return false
}
