package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voyager/models"
	"voyager/services/callstate"
	"voyager/services/tasks"

	"github.com/hibiken/asynq"
)

// fakeStore lets tests backdate UpdatedAt, which the real stores stamp on
// every save.
type fakeStore struct {
	states map[string]*models.CallState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*models.CallState)}
}

func (f *fakeStore) Get(ctx context.Context, callID string) (*models.CallState, error) {
	s, ok := f.states[callID]
	if !ok {
		return nil, callstate.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) Save(ctx context.Context, state *models.CallState) error {
	cp := *state
	f.states[state.CallID] = &cp
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, callID string) error {
	delete(f.states, callID)
	return nil
}

func (f *fakeStore) ListCallIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.states))
	for id := range f.states {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSweepRemovesOnlyIdleCalls(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()

	store.states["stale"] = &models.CallState{
		CallID: "stale", Step: "search", UpdatedAt: now.Add(-2 * time.Hour),
	}
	store.states["active"] = &models.CallState{
		CallID: "active", Step: "get-origin", UpdatedAt: now.Add(-5 * time.Minute),
	}

	sweepOnce(context.Background(), store, time.Hour)

	if _, ok := store.states["stale"]; ok {
		t.Error("stale call should have been removed")
	}
	if _, ok := store.states["active"]; !ok {
		t.Error("active call should have been kept")
	}
}

type recordingSender struct {
	to, body []string
	err      error
}

func (r *recordingSender) SendSMS(ctx context.Context, to, body string) error {
	if r.err != nil {
		return r.err
	}
	r.to = append(r.to, to)
	r.body = append(r.body, body)
	return nil
}

func confirmationTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewConfirmationTask(models.ConfirmationPayload{
		BookingID:       "b-1",
		Phone:           "+15550001111",
		OriginIATA:      "TUL",
		DestinationIATA: "ATL",
		DepartureDate:   "2026-10-01",
		PNR:             "Q4XJ2K",
		PriceTotal:      "215.40",
		Currency:        "USD",
	})
	if err != nil {
		t.Fatalf("NewConfirmationTask: %v", err)
	}
	return task
}

func TestConfirmationHandlerDelivers(t *testing.T) {
	sender := &recordingSender{}
	handler := handleConfirmationTask(sender)

	if err := handler(context.Background(), confirmationTask(t)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "+15550001111" {
		t.Fatalf("sent to %v, want the booking phone", sender.to)
	}
	if !strings.Contains(sender.body[0], "Q4XJ2K") {
		t.Errorf("body should carry the confirmation code, got %q", sender.body[0])
	}
}

func TestConfirmationHandlerPropagatesSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway timeout")}
	handler := handleConfirmationTask(sender)

	// The error must reach asynq so the task is retried.
	if err := handler(context.Background(), confirmationTask(t)); err == nil {
		t.Fatal("expected the delivery error to propagate")
	}
}

func TestConfirmationHandlerRejectsGarbagePayload(t *testing.T) {
	sender := &recordingSender{}
	handler := handleConfirmationTask(sender)

	task := asynq.NewTask(tasks.TypeSendConfirmation, []byte("{not json"))
	if err := handler(context.Background(), task); err == nil {
		t.Fatal("expected an unmarshal error")
	}
	if len(sender.to) != 0 {
		t.Error("nothing should be sent for a broken payload")
	}
}
