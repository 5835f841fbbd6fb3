// Package agent is the dispatch seam between the voice platform's webhooks
// and the conversation services. Every tool invocation follows the same
// path: load the call state, authorize against the active step, run the
// tool on an in-memory copy, transition, and persist exactly once. A failure
// anywhere on that path commits nothing, so the caller can simply try again.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voyager/metrics"
	"voyager/models"
	"voyager/services/callstate"
	"voyager/services/dialog"
	"voyager/services/location"
	"voyager/services/slots"
	"voyager/services/trip"
	"voyager/services/validate"
	"voyager/utils"

	passengerRepo "voyager/database/repository/passenger"

	"go.uber.org/zap"
)

// Agent handles the three webhook events of a call's life.
type Agent interface {
	// StartCall creates (or resumes) state for an inbound call and returns
	// the opening line.
	StartCall(ctx context.Context, callID, phone string) (*models.CallStartResponse, error)
	// HandleTool runs one tool invocation. It always returns a speakable
	// response; failures become corrective prompts, never dead air.
	HandleTool(ctx context.Context, req *models.ToolRequest) *models.ToolResponse
	// EndCall logs a summary and discards the call's transient state.
	EndCall(ctx context.Context, callID string) error
}

// DefaultAgent is the production implementation.
type DefaultAgent struct {
	Store      callstate.Store
	Passengers passengerRepo.PassengerRepository

	tools map[string]dialog.ToolFunc
}

// NewAgent wires the dispatcher. Every tool named in the authorization
// table must resolve to a handler; a gap is caught here, at startup, rather
// than mid-call.
func NewAgent(
	store callstate.Store,
	passengers passengerRepo.PassengerRepository,
	engine slots.Engine,
	resolver location.Resolver,
	pipeline trip.Pipeline,
) (*DefaultAgent, error) {
	if store == nil || passengers == nil || engine == nil || resolver == nil || pipeline == nil {
		return nil, fmt.Errorf("agent: all dependencies are required")
	}
	a := &DefaultAgent{Store: store, Passengers: passengers}
	a.tools = map[string]dialog.ToolFunc{
		dialog.ToolStartProfileQuestions: engine.StartProfile,
		dialog.ToolSubmitProfileAnswer:   engine.SubmitProfile,
		dialog.ToolFinalizeProfile:       engine.FinalizeProfile,
		dialog.ToolRestartProfile:        engine.RestartProfile,
		dialog.ToolResolveLocation:       resolver.ResolveLocation,
		dialog.ToolSelectAirport:         resolver.SelectAirport,
		dialog.ToolSelectTripType:        engine.SelectTripType,
		dialog.ToolSubmitBookingAnswer:   engine.SubmitBooking,
		dialog.ToolSaveDepartureDate:     engine.SaveDepartureDate,
		dialog.ToolSaveReturnDate:        engine.SaveReturnDate,
		dialog.ToolSaveAdults:            engine.SaveAdults,
		dialog.ToolSaveCabin:             engine.SaveCabin,
		dialog.ToolFinalizeBooking:       engine.FinalizeBooking,
		dialog.ToolSearchFlights:         pipeline.SearchFlights,
		dialog.ToolSelectFlight:          pipeline.SelectFlight,
		dialog.ToolGetFlightPrice:        pipeline.GetFlightPrice,
		dialog.ToolBookFlight:            pipeline.BookFlight,
		dialog.ToolUpdatePassenger:       a.updatePassenger,
		dialog.ToolRestartSearch:         pipeline.RestartSearch,
		dialog.ToolRestartBooking:        pipeline.RestartBooking,
	}
	for _, name := range dialog.AllTools() {
		if _, ok := a.tools[name]; !ok {
			return nil, fmt.Errorf("agent: tool %q has no handler", name)
		}
	}
	return a, nil
}

// StartCall bootstraps call state. Known phone numbers skip straight to the
// origin question with a personal greeting; a re-announced call id resumes
// in place, because platforms re-send the start event after a reconnect.
func (a *DefaultAgent) StartCall(ctx context.Context, callID, phone string) (*models.CallStartResponse, error) {
	if callID == "" || phone == "" {
		return nil, fmt.Errorf("agent: call id and phone are required")
	}

	existing, err := a.Store.Get(ctx, callID)
	if err == nil {
		return &models.CallStartResponse{
			Response: "We got cut off for a moment, but I still have everything. Let's pick up where we left off.",
			Step:     existing.Step,
		}, nil
	}
	if !errors.Is(err, callstate.ErrNotFound) {
		return nil, fmt.Errorf("agent: load call %s: %w", callID, err)
	}

	state := &models.CallState{
		CallID:    callID,
		Phone:     phone,
		Step:      string(dialog.StepGreeting),
		CreatedAt: time.Now().UTC(),
	}

	greeting := "Hi, thanks for calling! I can search and book flights for you. " +
		"Where are you flying from today? Or say set up my profile and I'll remember your details for next time."

	p, err := a.Passengers.GetByPhone(phone)
	if err != nil {
		// Treat a profile lookup failure as an unknown caller; the call can
		// still proceed without personalization.
		utils.GetLogger().Warn("passenger lookup failed on call start",
			zap.String("phone", phone), zap.Error(err))
		p = nil
	}
	if p != nil {
		state.HasProfile = true
		state.HomeAirportIATA = p.HomeAirportIATA
		state.Step = string(dialog.StepGetOrigin)
		greeting = greetReturning(p)
	}

	if err := a.Store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("agent: save call %s: %w", callID, err)
	}

	metrics.CallsTotal.Inc()
	metrics.CallsActive.Inc()

	return &models.CallStartResponse{Response: greeting, Step: state.Step}, nil
}

// HandleTool runs one authorized tool and persists the outcome, in that
// order. Rejections carry the step unchanged so the platform can re-prompt.
func (a *DefaultAgent) HandleTool(ctx context.Context, req *models.ToolRequest) *models.ToolResponse {
	logger := utils.GetLogger()

	// 1) Load the saved state for this call.
	state, err := a.Store.Get(ctx, req.CallID)
	if err != nil {
		if errors.Is(err, callstate.ErrNotFound) {
			return reject(req.Function, "", dialog.NewFlowError(dialog.KindNotStarted,
				"I've lost track of this call. Please hang up and dial again."))
		}
		logger.Error("call state load failed",
			zap.String("callID", req.CallID), zap.Error(err))
		return reject(req.Function, "", dialog.NewFlowError(dialog.KindBackendUnavailable,
			"I'm having trouble pulling up our conversation. Give me a second and try that again."))
	}
	fromStep := state.Step

	// 2) Fail closed before touching anything.
	step, err := dialog.ParseStep(state.Step)
	if err != nil {
		logger.Error("stored step is invalid",
			zap.String("callID", req.CallID), zap.String("step", state.Step))
		return reject(req.Function, fromStep, dialog.NewFlowError(dialog.KindUnauthorized,
			"Something has gone wrong with this call. Please hang up and dial again."))
	}
	if err := dialog.Authorize(step, req.Function); err != nil {
		return reject(req.Function, fromStep, err)
	}
	tool, ok := a.tools[req.Function]
	if !ok {
		// Authorize passed, so the table names a tool that was never
		// registered. NewAgent checks for exactly this.
		logger.Error("tool authorized but not registered", zap.String("tool", req.Function))
		return reject(req.Function, fromStep, dialog.NewFlowError(dialog.KindUnauthorized,
			fmt.Sprintf("I can't do %q.", req.Function)))
	}

	// 3) Run the tool against the in-memory copy. On error the saved state
	// is untouched and the caller just hears the corrective prompt.
	res, err := tool(ctx, state, req.Arguments)
	if err != nil {
		return reject(req.Function, fromStep, err)
	}

	// 4) Move the step when the tool asked to go somewhere new.
	if res.Next != "" && string(res.Next) != state.Step {
		if err := dialog.Transition(state, res.Next); err != nil {
			logger.Error("tool returned an unreachable step",
				zap.String("tool", req.Function),
				zap.String("from", fromStep),
				zap.String("to", string(res.Next)))
			return reject(req.Function, fromStep, err)
		}
	}

	// 5) Persist once, now that the tool and the transition both succeeded.
	if err := a.Store.Save(ctx, state); err != nil {
		logger.Error("call state save failed",
			zap.String("callID", req.CallID), zap.Error(err))
		return reject(req.Function, fromStep, dialog.NewFlowError(dialog.KindBackendUnavailable,
			"I couldn't hold on to that. Could you say it again?"))
	}

	if state.Step != fromStep {
		metrics.StepTransitions.WithLabelValues(fromStep, state.Step).Inc()
	}
	if req.Function == dialog.ToolBookFlight && state.BookingID != "" {
		metrics.BookingsCreated.Inc()
	}
	outcome := res.Kind
	if outcome == "" {
		outcome = "ok"
	}
	metrics.ToolInvocations.WithLabelValues(req.Function, outcome).Inc()

	return &models.ToolResponse{Response: res.Response, Step: state.Step, Kind: res.Kind}
}

// EndCall logs a final summary and deletes the transient state. Permanent
// outcomes already live in the passenger and booking records.
func (a *DefaultAgent) EndCall(ctx context.Context, callID string) error {
	state, err := a.Store.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, callstate.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("agent: load call %s: %w", callID, err)
	}

	summary := callstate.BuildSummary(state)
	utils.GetLogger().Info("call ended",
		zap.String("callID", summary.CallID),
		zap.String("step", summary.Step),
		zap.String("origin", summary.OriginIATA),
		zap.String("destination", summary.DestinationIATA),
		zap.String("bookingID", summary.BookingID),
		zap.String("pnr", summary.PNR),
	)
	metrics.CallsActive.Dec()

	if err := a.Store.Delete(ctx, callID); err != nil {
		return fmt.Errorf("agent: delete call %s: %w", callID, err)
	}
	return nil
}

// updatePassenger edits the stored profile mid-call. Only contact and
// preference fields are editable by voice; a name or date of birth changes
// through a fresh profile setup, where it gets the full confirm loop.
func (a *DefaultAgent) updatePassenger(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	p, err := a.Passengers.GetByPhone(state.Phone)
	if err != nil {
		return nil, dialog.NewFlowError(dialog.KindBackendUnavailable,
			"I can't reach your profile right now. Let's keep going; you can update it later.")
	}
	if p == nil {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"I don't have a profile for this number yet. Say set up my profile and we'll create one.")
	}

	var changed []string
	if v := strings.TrimSpace(args["email"]); v != "" {
		norm, err := validate.Email(v)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		p.Email = norm
		changed = append(changed, "email")
	}
	if v := strings.TrimSpace(args["seat_preference"]); v != "" {
		norm, err := validate.Seat(v)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		p.SeatPreference = norm
		changed = append(changed, "seat preference")
	}
	if v := strings.TrimSpace(args["cabin_preference"]); v != "" {
		norm, err := validate.Cabin(v)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		p.CabinPreference = norm
		changed = append(changed, "cabin preference")
	}
	if len(changed) == 0 {
		return nil, dialog.NewFlowError(dialog.KindValidationFailed,
			"Tell me what to change, like your email, seat preference, or cabin preference.")
	}

	if err := a.Passengers.Upsert(p); err != nil {
		return nil, dialog.NewFlowError(dialog.KindBackendUnavailable,
			"I couldn't save that change. Let's keep going; try again in a moment.")
	}
	return &dialog.Result{
		Response: fmt.Sprintf("Done, I've updated your %s.", humanJoin(changed)),
	}, nil
}

// greetReturning builds the personalized opening for a known caller.
func greetReturning(p *models.Passenger) string {
	name := p.FirstName
	if name == "" {
		name = p.FullName()
	}
	hello := "Welcome back!"
	if name != "" {
		hello = fmt.Sprintf("Welcome back, %s!", name)
	}
	if p.HomeAirport != "" {
		return fmt.Sprintf("%s Flying out of %s as usual, or somewhere else this time?",
			hello, p.HomeAirport)
	}
	return hello + " Where are you flying from today?"
}

// reject converts a failed invocation into a speakable response with the
// step unchanged, and records the outcome.
func reject(tool, step string, err error) *models.ToolResponse {
	kind := dialog.KindOf(err)
	outcome := kind
	if outcome == "" {
		outcome = "error"
	}
	metrics.ToolInvocations.WithLabelValues(tool, outcome).Inc()
	if kind == "" {
		kind = dialog.KindBackendUnavailable
	}
	return &models.ToolResponse{
		Response: dialog.MessageOf(err),
		Step:     step,
		Kind:     kind,
	}
}

// humanJoin renders a short list the way it would be spoken.
func humanJoin(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
