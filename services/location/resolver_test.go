package location

import (
	"context"
	"strings"
	"testing"

	"voyager/models"
	"voyager/services/dialog"
	"voyager/services/flights"
)

func newResolver() *DefaultResolver {
	return NewResolver(flights.NewMockBackend(42))
}

func originState() *models.CallState {
	return &models.CallState{
		CallID: "call-1",
		Phone:  "+15551230000",
		Step:   string(dialog.StepGetOrigin),
	}
}

func TestResolveTulsaAutoSelects(t *testing.T) {
	r := newResolver()
	state := originState()

	res, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Tulsa", "type": "origin",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if state.OriginIATA != "TUL" {
		t.Fatalf("origin = %q, want TUL", state.OriginIATA)
	}
	if len(state.OriginCandidates) != 0 {
		t.Errorf("auto-select left candidates: %v", state.OriginCandidates)
	}
	if res.Next != dialog.StepGetDestination {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepGetDestination)
	}
	if !strings.Contains(res.Response, "(TUL)") {
		t.Errorf("response = %q", res.Response)
	}
}

func TestResolveFastPathCode(t *testing.T) {
	r := newResolver()
	state := originState()
	ctx := context.Background()

	if _, err := r.ResolveLocation(ctx, state, map[string]string{
		"text": "Tulsa International (TUL)", "type": "origin",
	}); err != nil {
		t.Fatalf("paren code: %v", err)
	}
	if state.OriginIATA != "TUL" {
		t.Fatalf("origin = %q", state.OriginIATA)
	}

	res, err := r.ResolveLocation(ctx, state, map[string]string{
		"text": "ATL", "type": "destination",
	})
	if err != nil {
		t.Fatalf("bare code: %v", err)
	}
	if state.DestinationIATA != "ATL" {
		t.Fatalf("destination = %q", state.DestinationIATA)
	}
	if res.Next != dialog.StepCollectTripType {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepCollectTripType)
	}
}

func TestResolveNewYorkDisambiguates(t *testing.T) {
	r := newResolver()
	state := originState()

	res, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "New York", "type": "origin",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if state.OriginIATA != "" {
		t.Fatalf("ambiguous resolve saved origin %q", state.OriginIATA)
	}
	if len(state.OriginCandidates) < 2 || len(state.OriginCandidates) > 3 {
		t.Fatalf("candidates = %d, want 2 or 3", len(state.OriginCandidates))
	}
	if res.Next != dialog.StepDisambiguateOrigin {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepDisambiguateOrigin)
	}
	codes := map[string]bool{}
	for _, c := range state.OriginCandidates {
		codes[c.IATA] = true
	}
	if !codes["JFK"] || !codes["LGA"] {
		t.Errorf("candidates missing the New York pair: %v", state.OriginCandidates)
	}
}

func TestSelectAirportFromShortlist(t *testing.T) {
	r := newResolver()
	state := originState()
	ctx := context.Background()

	if _, err := r.ResolveLocation(ctx, state, map[string]string{
		"text": "New York", "type": "origin",
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	state.Step = string(dialog.StepDisambiguateOrigin)

	// A code outside the shortlist is rejected and changes nothing.
	_, err := r.SelectAirport(ctx, state, map[string]string{"type": "origin", "iata": "ORD"})
	if dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("non-candidate = %v, want %s", err, dialog.KindValidationFailed)
	}
	if state.OriginIATA != "" || len(state.OriginCandidates) == 0 {
		t.Fatal("rejected selection mutated state")
	}

	res, err := r.SelectAirport(ctx, state, map[string]string{"type": "origin", "iata": "jfk"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if state.OriginIATA != "JFK" {
		t.Fatalf("origin = %q, want JFK", state.OriginIATA)
	}
	if len(state.OriginCandidates) != 0 {
		t.Error("selection left the shortlist behind")
	}
	if res.Next != dialog.StepGetDestination {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepGetDestination)
	}
}

func TestSelectAirportWithoutShortlist(t *testing.T) {
	r := newResolver()
	state := originState()
	_, err := r.SelectAirport(context.Background(), state, map[string]string{"type": "origin", "iata": "JFK"})
	if dialog.KindOf(err) != dialog.KindMissingPrerequisite {
		t.Fatalf("no shortlist = %v, want %s", err, dialog.KindMissingPrerequisite)
	}
}

func TestDestinationRequiresOrigin(t *testing.T) {
	r := newResolver()
	state := originState()
	_, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Atlanta", "type": "destination",
	})
	if dialog.KindOf(err) != dialog.KindMissingPrerequisite {
		t.Fatalf("destination first = %v, want %s", err, dialog.KindMissingPrerequisite)
	}
}

func TestResolveUnknownPlace(t *testing.T) {
	r := newResolver()
	state := originState()
	_, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Atlantis", "type": "origin",
	})
	if dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("unknown place = %v, want %s", err, dialog.KindValidationFailed)
	}
	if state.OriginIATA != "" || len(state.OriginCandidates) != 0 {
		t.Fatal("failed resolve mutated state")
	}
}

func TestUnknownPlaceFallsBackToHomeAirports(t *testing.T) {
	r := newResolver()
	state := originState()
	state.HomeAirportIATA = "TUL"

	res, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Atlantis", "type": "origin",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(res.Response, "close to home") {
		t.Errorf("response = %q", res.Response)
	}
	if len(state.OriginCandidates) == 0 {
		t.Fatal("no nearby candidates stored")
	}
	if state.OriginCandidates[0].IATA != "TUL" {
		t.Errorf("nearest to home should lead with home, got %v", state.OriginCandidates)
	}
	if res.Next != dialog.StepDisambiguateOrigin {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepDisambiguateOrigin)
	}
}

func TestVerifyAirport(t *testing.T) {
	r := newResolver()
	iata, name, ok := r.VerifyAirport(context.Background(), "Tulsa")
	if !ok || iata != "TUL" || !strings.Contains(name, "Tulsa") {
		t.Fatalf("verify tulsa = %q %q %v", iata, name, ok)
	}
	if _, _, ok := r.VerifyAirport(context.Background(), "New York"); ok {
		t.Fatal("ambiguous verify should not pick")
	}
	if _, _, ok := r.VerifyAirport(context.Background(), "Atlantis"); ok {
		t.Fatal("unknown verify should not pick")
	}
}

func TestRejoinAfterOriginChange(t *testing.T) {
	r := newResolver()
	state := originState()
	state.Step = string(dialog.StepErrorRecovery)
	state.DestinationIATA = "ATL"
	state.DestinationName = "Hartsfield-Jackson Atlanta International"
	state.TripType = models.TripOneWay
	state.Groups = map[string]*models.QuestionGroupState{
		models.GroupOneWay: {
			Group:   models.GroupOneWay,
			Started: true,
			Cursor:  3,
			Answers: map[string]string{
				"departure_date": "2026-10-01",
				"adults":         "1",
				"cabin_class":    "ECONOMY",
			},
		},
	}

	res, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Denver", "type": "origin",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if state.OriginIATA != "DEN" {
		t.Fatalf("origin = %q", state.OriginIATA)
	}
	// Everything downstream is already collected, so the call rejoins at
	// the search instead of re-walking the collection steps.
	if res.Next != dialog.StepSearch {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepSearch)
	}
}

func TestVerifyModeDoesNotTouchRoute(t *testing.T) {
	r := newResolver()
	state := originState()
	res, err := r.ResolveLocation(context.Background(), state, map[string]string{
		"text": "Tulsa", "type": "origin", "mode": "verify",
	})
	if err != nil {
		t.Fatalf("verify resolve: %v", err)
	}
	if state.OriginIATA != "" {
		t.Fatalf("verify mode saved origin %q", state.OriginIATA)
	}
	if res.Next != "" {
		t.Errorf("verify mode transitioned to %s", res.Next)
	}
	if !strings.Contains(res.Response, "(TUL)") {
		t.Errorf("response = %q", res.Response)
	}
}
