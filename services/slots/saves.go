package slots

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"voyager/models"
	"voyager/services/dialog"
	"voyager/services/validate"
)

// The discrete save tools let the agent write booking fields in whatever
// order the caller volunteers them. They validate strictly (no lenient
// defaulting; a bad save is rejected outright), enforce field
// prerequisites, and share a per-call cooldown: the upstream conversation
// engine occasionally fires the same tool call twice back to back, and the
// second arrival inside the window is dropped before it can mutate
// anything.

// SaveDepartureDate stores a validated departure date.
func (e *DefaultEngine) SaveDepartureDate(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	return e.saveField(state, KeyDepartureDate, args["date"])
}

// SaveReturnDate stores a validated return date; it requires a departure
// date to already be saved.
func (e *DefaultEngine) SaveReturnDate(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	return e.saveField(state, KeyReturnDate, args["date"])
}

// SaveAdults stores a strictly validated passenger count.
func (e *DefaultEngine) SaveAdults(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	return e.saveField(state, KeyAdults, args["adults"])
}

// SaveCabin stores a normalized cabin class.
func (e *DefaultEngine) SaveCabin(ctx context.Context, state *models.CallState, args map[string]string) (*dialog.Result, error) {
	return e.saveField(state, KeyCabinClass, args["cabin"])
}

func (e *DefaultEngine) saveField(state *models.CallState, key, raw string) (*dialog.Result, error) {
	group := state.BookingGroupID()
	if group == "" {
		return nil, dialog.NewFlowError(dialog.KindMissingPrerequisite,
			"We haven't chosen a trip type yet. One-way or round trip?")
	}

	now := e.now()
	if e.Cooldown > 0 && !state.LastSaveAt.IsZero() && now.Sub(state.LastSaveAt) < e.Cooldown {
		return nil, dialog.NewFieldError(dialog.KindCooldownActive, key,
			"That came through twice in a row, so I kept the first one. Give it a second and try again.")
	}

	qs := questionsFor(group)
	g := state.GroupState(group)
	if g == nil || !g.Started {
		g = state.ResetGroup(group)
	}

	raw = strings.TrimSpace(raw)
	var value string
	switch key {
	case KeyDepartureDate:
		if _, err := validate.FutureDate(key, raw, now); err != nil {
			return nil, dialog.FromValidation(err)
		}
		value = raw
	case KeyReturnDate:
		dep := g.Answers[KeyDepartureDate]
		if dep == "" {
			return nil, dialog.NewFieldError(dialog.KindMissingPrerequisite, key,
				"I need the departure date before I can save the return date. What date would you like to depart?")
		}
		if _, err := validate.ReturnDate(raw, dep, now); err != nil {
			return nil, dialog.FromValidation(err)
		}
		value = raw
	case KeyAdults:
		n, err := validate.AdultsStrict(raw)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		value = strconv.Itoa(n)
	case KeyCabinClass:
		norm, err := validate.Cabin(raw)
		if err != nil {
			return nil, dialog.FromValidation(err)
		}
		value = norm
	default:
		return nil, dialog.NewFieldError(dialog.KindValidationFailed, key,
			fmt.Sprintf("I can't save a %s here.", fieldLabel(key)))
	}

	g.Answers[key] = value
	state.LastSaveAt = now
	syncCursor(g, qs)

	resp := fmt.Sprintf("Saved, %s %s.", fieldLabel(key), value)
	if g.Cursor >= len(qs) {
		return &dialog.Result{Response: resp + " " + completionSignal(group)}, nil
	}
	return &dialog.Result{Response: resp + " " + qs[g.Cursor].Prompt}, nil
}
