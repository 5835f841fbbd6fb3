package slots

import (
	"context"
	"strings"
	"testing"
	"time"

	"voyager/models"
	"voyager/services/dialog"
)

type fakePassengerRepo struct {
	upserts int
	last    *models.Passenger
}

func (f *fakePassengerRepo) GetByPhone(phone string) (*models.Passenger, error) {
	return nil, nil
}

func (f *fakePassengerRepo) Upsert(p *models.Passenger) error {
	f.upserts++
	f.last = p
	return nil
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyAirport(ctx context.Context, text string) (string, string, bool) {
	if strings.Contains(strings.ToLower(text), "tulsa") {
		return "TUL", "Tulsa International Airport", true
	}
	return "", "", false
}

func newTestEngine(repo *fakePassengerRepo) (*DefaultEngine, *time.Time) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	eng := NewEngine(repo, fakeVerifier{}, 2*time.Second)
	eng.Clock = func() time.Time { return now }
	return eng, &now
}

func newCallState() *models.CallState {
	return &models.CallState{
		CallID: "call-1",
		Phone:  "+15551230000",
		Step:   string(dialog.StepCollectProfile),
	}
}

func completeProfile(t *testing.T, eng *DefaultEngine, state *models.CallState) {
	t.Helper()
	ctx := context.Background()
	if _, err := eng.StartProfile(ctx, state, nil); err != nil {
		t.Fatalf("StartProfile: %v", err)
	}
	steps := []struct {
		answer  string
		confirm bool
	}{
		{"Ada Lovelace", true},
		{"1990-05-04", false},
		{"female", false},
		{"ada@example.com", true},
		{"window", false},
		{"economy", false},
		{"Tulsa", false},
	}
	for _, s := range steps {
		res, err := eng.SubmitProfile(ctx, state, map[string]string{"answer": s.answer})
		if err != nil {
			t.Fatalf("submit %q: %v", s.answer, err)
		}
		if s.confirm {
			if res.Kind != dialog.KindConfirmationPending {
				t.Fatalf("submit %q should bounce, got %+v", s.answer, res)
			}
			if _, err := eng.SubmitProfile(ctx, state, map[string]string{"answer": s.answer, "confirmed": "true"}); err != nil {
				t.Fatalf("confirm %q: %v", s.answer, err)
			}
		}
	}
}

func TestSubmitNotStarted(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	_, err := eng.SubmitProfile(context.Background(), state, map[string]string{"answer": "Ada Lovelace"})
	if dialog.KindOf(err) != dialog.KindNotStarted {
		t.Fatalf("submit before start = %v, want %s", err, dialog.KindNotStarted)
	}
}

func TestStartProfileIdempotent(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()

	if _, err := eng.StartProfile(ctx, state, nil); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := eng.SubmitProfile(ctx, state, map[string]string{"answer": "Ada Lovelace", "confirmed": "true"}); err != nil {
		t.Fatalf("bounce: %v", err)
	}
	if _, err := eng.SubmitProfile(ctx, state, map[string]string{"answer": "Ada Lovelace", "confirmed": "true"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	res, err := eng.StartProfile(ctx, state, nil)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if res.Kind != dialog.KindAlreadyStarted {
		t.Errorf("second start kind = %q, want %s", res.Kind, dialog.KindAlreadyStarted)
	}
	if got := state.AnswerFor(models.GroupProfile, KeyFullName); got != "Ada Lovelace" {
		t.Errorf("restarting dropped the answer: %q", got)
	}
	if !strings.Contains(res.Response, "date of birth") {
		t.Errorf("second start should repeat the current question, got %q", res.Response)
	}
}

func TestConfirmBounceNeverAdvancesUnconfirmed(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.StartProfile(ctx, state, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	// However often the unconfirmed submission is retried, the cursor
	// stays put and nothing lands in the accumulator.
	for i := 0; i < 3; i++ {
		res, err := eng.SubmitProfile(ctx, state, map[string]string{"answer": "Ada Lovelace"})
		if err != nil {
			t.Fatalf("unconfirmed submit %d: %v", i, err)
		}
		if res.Kind != dialog.KindConfirmationPending {
			t.Fatalf("unconfirmed submit %d advanced: %+v", i, res)
		}
		g := state.GroupState(models.GroupProfile)
		if g.Cursor != 0 || len(g.Answers) != 0 {
			t.Fatalf("unconfirmed submit %d mutated: cursor=%d answers=%v", i, g.Cursor, g.Answers)
		}
	}

	// The first submission always bounces even when the flag claims
	// confirmation, because the caller has not heard the read-back yet.
	state2 := newCallState()
	if _, err := eng.StartProfile(ctx, state2, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := eng.SubmitProfile(ctx, state2, map[string]string{"answer": "Ada Lovelace", "confirmed": "true"})
	if err != nil {
		t.Fatalf("eager confirm: %v", err)
	}
	if res.Kind != dialog.KindConfirmationPending {
		t.Fatalf("first submission with confirmed=true advanced: %+v", res)
	}

	// Confirming advances exactly once.
	if _, err := eng.SubmitProfile(ctx, state2, map[string]string{"answer": "Ada Lovelace", "confirmed": "true"}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	g := state2.GroupState(models.GroupProfile)
	if g.Cursor != 1 || g.Answers[KeyFullName] != "Ada Lovelace" {
		t.Fatalf("confirm did not advance once: cursor=%d answers=%v", g.Cursor, g.Answers)
	}
	if g.PendingConfirmation != "" || g.PendingAnswer != "" {
		t.Fatalf("pending confirmation not cleared: %+v", g)
	}
}

func TestSubmitAnswersInCursorOrder(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	completeProfile(t, eng, state)

	g := state.GroupState(models.GroupProfile)
	if g.Cursor != len(profileQuestions) {
		t.Fatalf("cursor = %d, want %d", g.Cursor, len(profileQuestions))
	}
	if len(g.Answers) != len(profileQuestions) {
		t.Fatalf("answers = %d, want %d", len(g.Answers), len(profileQuestions))
	}
	// Enum answers are stored normalized; the home airport is annotated
	// with the airport the verifier found.
	if g.Answers[KeyGender] != "FEMALE" || g.Answers[KeySeatPreference] != "WINDOW" {
		t.Errorf("enums not normalized: %v", g.Answers)
	}
	if g.Answers[KeyHomeAirport] != "Tulsa International Airport (TUL)" {
		t.Errorf("home airport = %q", g.Answers[KeyHomeAirport])
	}

	// One more submit has nowhere to go.
	_, err := eng.SubmitProfile(context.Background(), state, map[string]string{"answer": "extra"})
	if dialog.KindOf(err) != dialog.KindOutOfOrder {
		t.Fatalf("submit past the end = %v, want %s", err, dialog.KindOutOfOrder)
	}
}

func TestDuplicateSubmissionGuard(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	if _, err := eng.SubmitBooking(ctx, state, map[string]string{"answer": "2026-10-01"}); err != nil {
		t.Fatalf("departure: %v", err)
	}

	_, err := eng.SubmitBooking(ctx, state, map[string]string{"key": KeyDepartureDate, "answer": "2026-10-02"})
	if dialog.KindOf(err) != dialog.KindOutOfOrder {
		t.Fatalf("resubmit = %v, want %s", err, dialog.KindOutOfOrder)
	}
	if !strings.Contains(dialog.MessageOf(err), "already have") {
		t.Errorf("message = %q", dialog.MessageOf(err))
	}
	if got := state.AnswerFor(models.GroupOneWay, KeyDepartureDate); got != "2026-10-01" {
		t.Errorf("duplicate submit overwrote the answer: %q", got)
	}
}

func TestValidationFailureDoesNotAdvance(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}

	_, err := eng.SubmitBooking(ctx, state, map[string]string{"answer": "next friday"})
	if dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("bad date = %v, want %s", err, dialog.KindValidationFailed)
	}
	g := state.GroupState(models.GroupOneWay)
	if g.Cursor != 0 || len(g.Answers) != 0 {
		t.Fatalf("failed validation advanced: cursor=%d answers=%v", g.Cursor, g.Answers)
	}
}

func TestSelectTripType(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()

	_, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "cruise"})
	if dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("bad trip type = %v, want %s", err, dialog.KindValidationFailed)
	}
	if state.TripType != "" {
		t.Fatalf("rejected branch set trip type %q", state.TripType)
	}

	res, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "round trip"})
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if res.Next != dialog.StepCollectBookingRoundTrip {
		t.Errorf("next = %s", res.Next)
	}
	if state.TripType != models.TripRoundTrip {
		t.Errorf("trip type = %q", state.TripType)
	}
	if g := state.GroupState(models.GroupRoundTrip); g == nil || !g.Started {
		t.Error("round trip group not started")
	}
}

func TestFinalizeBookingTooEarly(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	if _, err := eng.SubmitBooking(ctx, state, map[string]string{"answer": "2026-10-01"}); err != nil {
		t.Fatalf("departure: %v", err)
	}

	_, err := eng.FinalizeBooking(ctx, state, nil)
	if dialog.KindOf(err) != dialog.KindMissingPrerequisite {
		t.Fatalf("early finalize = %v, want %s", err, dialog.KindMissingPrerequisite)
	}
	if !strings.Contains(dialog.MessageOf(err), "adults") {
		t.Errorf("message should name the missing field: %q", dialog.MessageOf(err))
	}
}

func TestFinalizeBookingLenientAdults(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	g := state.GroupState(models.GroupOneWay)
	g.Answers[KeyDepartureDate] = "2026-10-01"
	g.Answers[KeyAdults] = "two"
	g.Answers[KeyCabinClass] = "economy"

	res, err := eng.FinalizeBooking(ctx, state, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Next != dialog.StepSearch {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepSearch)
	}
	if g.Answers[KeyAdults] != "1" {
		t.Errorf("lenient adults = %q, want 1", g.Answers[KeyAdults])
	}
	if g.Answers[KeyCabinClass] != "ECONOMY" {
		t.Errorf("cabin = %q", g.Answers[KeyCabinClass])
	}
}

func TestFinalizeBookingPartyTooLarge(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	g := state.GroupState(models.GroupOneWay)
	g.Answers[KeyDepartureDate] = "2026-10-01"
	g.Answers[KeyAdults] = "12"
	g.Answers[KeyCabinClass] = "economy"

	res, err := eng.FinalizeBooking(ctx, state, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Kind != dialog.KindPartyTooLarge {
		t.Errorf("kind = %q, want %s", res.Kind, dialog.KindPartyTooLarge)
	}
	if res.Next != dialog.StepErrorRecovery {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepErrorRecovery)
	}
	if !strings.Contains(res.Response, "human agents") {
		t.Errorf("response should point at a human agent: %q", res.Response)
	}
}

func TestFinalizeBookingStaleDepartureRewinds(t *testing.T) {
	eng, now := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	g := state.GroupState(models.GroupOneWay)
	g.Answers[KeyDepartureDate] = "2026-09-02"
	g.Answers[KeyAdults] = "2"
	g.Answers[KeyCabinClass] = "economy"

	// The call drags past the saved departure date.
	*now = time.Date(2026, 9, 3, 0, 30, 0, 0, time.UTC)

	_, err := eng.FinalizeBooking(ctx, state, nil)
	if dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("stale departure = %v, want %s", err, dialog.KindValidationFailed)
	}
	if _, ok := g.Answers[KeyDepartureDate]; ok {
		t.Error("stale departure left in the accumulator")
	}
	if g.Cursor != 0 {
		t.Errorf("cursor = %d, want rewound to 0", g.Cursor)
	}
}

func TestSaveCooldown(t *testing.T) {
	eng, now := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "round_trip"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}

	if _, err := eng.SaveDepartureDate(ctx, state, map[string]string{"date": "2026-10-01"}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Inside the window: rejected, nothing written.
	*now = now.Add(1 * time.Second)
	_, err := eng.SaveReturnDate(ctx, state, map[string]string{"date": "2026-10-08"})
	if dialog.KindOf(err) != dialog.KindCooldownActive {
		t.Fatalf("fast save = %v, want %s", err, dialog.KindCooldownActive)
	}
	if got := state.AnswerFor(models.GroupRoundTrip, KeyReturnDate); got != "" {
		t.Fatalf("rejected save wrote %q", got)
	}

	// Past the window: accepted.
	*now = now.Add(2 * time.Second)
	if _, err := eng.SaveReturnDate(ctx, state, map[string]string{"date": "2026-10-08"}); err != nil {
		t.Fatalf("slow save: %v", err)
	}
	if got := state.AnswerFor(models.GroupRoundTrip, KeyReturnDate); got != "2026-10-08" {
		t.Fatalf("return date = %q", got)
	}
}

func TestCooldownAnchoredOnLastSuccessfulSave(t *testing.T) {
	eng, now := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}
	if _, err := eng.SaveDepartureDate(ctx, state, map[string]string{"date": "2026-10-01"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	anchor := state.LastSaveAt

	// A failed save outside the window must not move the anchor.
	*now = now.Add(3 * time.Second)
	if _, err := eng.SaveAdults(ctx, state, map[string]string{"adults": "two"}); dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("junk adults = %v, want %s", dialog.KindOf(err), dialog.KindValidationFailed)
	}
	if !state.LastSaveAt.Equal(anchor) {
		t.Fatal("failed save moved the cooldown anchor")
	}

	// Half a second later the window (anchored on the successful save)
	// has long expired, so this save goes through.
	*now = now.Add(500 * time.Millisecond)
	if _, err := eng.SaveAdults(ctx, state, map[string]string{"adults": "2"}); err != nil {
		t.Fatalf("second save: %v", err)
	}
}

func TestSaveReturnDateRequiresDeparture(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "round_trip"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}

	_, err := eng.SaveReturnDate(ctx, state, map[string]string{"date": "2026-10-08"})
	if dialog.KindOf(err) != dialog.KindMissingPrerequisite {
		t.Fatalf("return without departure = %v, want %s", err, dialog.KindMissingPrerequisite)
	}
	if !strings.Contains(dialog.MessageOf(err), "departure date") {
		t.Errorf("message = %q", dialog.MessageOf(err))
	}
}

func TestSaveAdultsStrict(t *testing.T) {
	eng, now := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}

	if _, err := eng.SaveAdults(ctx, state, map[string]string{"adults": "two"}); dialog.KindOf(err) != dialog.KindValidationFailed {
		t.Fatalf("save adults two = %v, want %s", dialog.KindOf(err), dialog.KindValidationFailed)
	}
	if _, err := eng.SaveAdults(ctx, state, map[string]string{"adults": "10"}); dialog.KindOf(err) != dialog.KindPartyTooLarge {
		t.Fatalf("save adults 10 = %v, want %s", dialog.KindOf(err), dialog.KindPartyTooLarge)
	}
	*now = now.Add(5 * time.Second)
	if _, err := eng.SaveAdults(ctx, state, map[string]string{"adults": "2"}); err != nil {
		t.Fatalf("save adults 2: %v", err)
	}
	if got := state.AnswerFor(models.GroupOneWay, KeyAdults); got != "2" {
		t.Fatalf("adults = %q", got)
	}
}

func TestSavesFeedTheCursorPath(t *testing.T) {
	eng, now := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.SelectTripType(ctx, state, map[string]string{"trip_type": "one_way"}); err != nil {
		t.Fatalf("select trip type: %v", err)
	}

	if _, err := eng.SaveDepartureDate(ctx, state, map[string]string{"date": "2026-10-01"}); err != nil {
		t.Fatalf("save departure: %v", err)
	}
	*now = now.Add(3 * time.Second)
	if _, err := eng.SaveCabin(ctx, state, map[string]string{"cabin": "business"}); err != nil {
		t.Fatalf("save cabin: %v", err)
	}

	// The cursor path picks up at the one question the saves skipped.
	res, err := eng.SubmitBooking(ctx, state, map[string]string{"answer": "2"})
	if err != nil {
		t.Fatalf("submit adults: %v", err)
	}
	if !strings.Contains(res.Response, "finalize_booking") {
		t.Errorf("completion signal missing: %q", res.Response)
	}

	res, err = eng.FinalizeBooking(ctx, state, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Next != dialog.StepSearch {
		t.Errorf("next = %s", res.Next)
	}
}

func TestFinalizeProfile(t *testing.T) {
	repo := &fakePassengerRepo{}
	eng, _ := newTestEngine(repo)
	state := newCallState()
	completeProfile(t, eng, state)

	res, err := eng.FinalizeProfile(context.Background(), state, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Next != dialog.StepGetOrigin {
		t.Errorf("next = %s, want %s", res.Next, dialog.StepGetOrigin)
	}
	if !state.HasProfile {
		t.Error("HasProfile not set")
	}
	if repo.upserts != 1 {
		t.Fatalf("upserts = %d, want 1", repo.upserts)
	}
	p := repo.last
	if p.Phone != state.Phone || p.FirstName != "Ada" || p.LastName != "Lovelace" {
		t.Errorf("passenger = %+v", p)
	}
	if p.HomeAirportIATA != "TUL" {
		t.Errorf("home airport iata = %q", p.HomeAirportIATA)
	}
	if p.Email != "ada@example.com" || p.CabinPreference != "ECONOMY" {
		t.Errorf("profile fields = %+v", p)
	}
}

func TestFinalizeProfileTooEarly(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	ctx := context.Background()
	if _, err := eng.StartProfile(ctx, state, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := eng.FinalizeProfile(ctx, state, nil)
	if dialog.KindOf(err) != dialog.KindMissingPrerequisite {
		t.Fatalf("early finalize = %v, want %s", err, dialog.KindMissingPrerequisite)
	}
	if state.HasProfile {
		t.Error("early finalize set HasProfile")
	}
}

func TestRestartProfile(t *testing.T) {
	eng, _ := newTestEngine(&fakePassengerRepo{})
	state := newCallState()
	completeProfile(t, eng, state)

	res, err := eng.RestartProfile(context.Background(), state, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	g := state.GroupState(models.GroupProfile)
	if g.Cursor != 0 || len(g.Answers) != 0 || !g.Started {
		t.Fatalf("restart left state behind: %+v", g)
	}
	if !strings.Contains(res.Response, "full name") {
		t.Errorf("restart should re-ask the first question: %q", res.Response)
	}
}
