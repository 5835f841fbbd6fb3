package dialog

import (
	"strings"
	"testing"

	"voyager/models"
)

func TestTablesComplete(t *testing.T) {
	if err := validateTables(); err != nil {
		t.Fatalf("tables invalid: %v", err)
	}
	// Every non-terminal step must reach somewhere; wrap-up is the only end.
	for step, next := range stepNext {
		if step != StepWrapUp && len(next) == 0 {
			t.Errorf("step %q has no outgoing transitions", step)
		}
	}
}

func TestAuthorizeFailsClosed(t *testing.T) {
	// A known tool outside its step set is rejected.
	err := Authorize(StepGreeting, ToolBookFlight)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("book_flight in greeting = %v, want %s", err, KindUnauthorized)
	}
	// An unknown tool is rejected everywhere.
	err = Authorize(StepSearch, "transfer_funds")
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("unknown tool = %v, want %s", err, KindUnauthorized)
	}
	// An unknown step rejects everything.
	err = Authorize(Step("limbo"), ToolSearchFlights)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("unknown step = %v, want %s", err, KindUnauthorized)
	}
	// The authorized pairs pass.
	if err := Authorize(StepSearch, ToolSearchFlights); err != nil {
		t.Fatalf("search_flights in search rejected: %v", err)
	}
	if err := Authorize(StepCreateBooking, ToolBookFlight); err != nil {
		t.Fatalf("book_flight in create-booking rejected: %v", err)
	}
}

func TestAuthorizeMatrix(t *testing.T) {
	// For all steps and all tools: authorization passes exactly for the
	// pairs the table lists.
	allTools := map[string]bool{}
	for _, tools := range stepTools {
		for _, tool := range tools {
			allTools[tool] = true
		}
	}
	for step, permitted := range stepTools {
		allowed := map[string]bool{}
		for _, tool := range permitted {
			allowed[tool] = true
		}
		for tool := range allTools {
			err := Authorize(step, tool)
			if allowed[tool] && err != nil {
				t.Errorf("Authorize(%s, %s) = %v, want nil", step, tool, err)
			}
			if !allowed[tool] && KindOf(err) != KindUnauthorized {
				t.Errorf("Authorize(%s, %s) = %v, want %s", step, tool, err, KindUnauthorized)
			}
		}
	}
}

func TestTransition(t *testing.T) {
	state := &models.CallState{CallID: "c1", Step: string(StepGreeting)}
	if err := Transition(state, StepGetOrigin); err != nil {
		t.Fatalf("greeting -> get-origin: %v", err)
	}
	if state.Step != string(StepGetOrigin) {
		t.Fatalf("step not updated: %s", state.Step)
	}

	// Illegal jump: no-op plus an instructive message.
	err := Transition(state, StepCreateBooking)
	if KindOf(err) != KindMissingPrerequisite {
		t.Fatalf("illegal jump = %v, want %s", err, KindMissingPrerequisite)
	}
	if state.Step != string(StepGetOrigin) {
		t.Fatal("illegal jump mutated the step")
	}
	if !strings.Contains(MessageOf(err), "confirm the price") {
		t.Errorf("hint missing from %q", MessageOf(err))
	}
}

func TestParseStep(t *testing.T) {
	if _, err := ParseStep("search"); err != nil {
		t.Fatalf("ParseStep(search): %v", err)
	}
	if _, err := ParseStep("warp-drive"); err == nil {
		t.Fatal("unknown step accepted")
	}
}

func TestCollectBookingStep(t *testing.T) {
	if CollectBookingStep(models.TripRoundTrip) != StepCollectBookingRoundTrip {
		t.Fatal("round_trip mapped wrong")
	}
	if CollectBookingStep(models.TripOneWay) != StepCollectBookingOneWay {
		t.Fatal("one_way mapped wrong")
	}
}
