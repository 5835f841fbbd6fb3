package callstate

import (
	"context"
	"testing"
	"time"

	"voyager/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	state := &models.CallState{
		CallID:   "call-1",
		Phone:    "+19185550100",
		Step:     "get-origin",
		TripType: models.TripOneWay,
		Groups: map[string]*models.QuestionGroupState{
			models.GroupOneWay: {
				Group:   models.GroupOneWay,
				Started: true,
				Cursor:  1,
				Answers: map[string]string{"departure_date": "2026-10-01"},
			},
		},
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, "call-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Step != "get-origin" || got.AnswerFor(models.GroupOneWay, "departure_date") != "2026-10-01" {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("Save did not stamp UpdatedAt")
	}

	// Mutating the returned copy must not leak back into the store.
	got.Step = "search"
	again, _ := store.Get(ctx, "call-1")
	if again.Step != "get-origin" {
		t.Fatal("store returned a shared reference")
	}

	if err := store.Delete(ctx, "call-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "call-1"); err != ErrNotFound {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestBuildSummary(t *testing.T) {
	state := &models.CallState{
		CallID:          "call-2",
		Phone:           "+19185550100",
		Step:            "confirm-price",
		HasProfile:      true,
		OriginIATA:      "TUL",
		DestinationIATA: "ATL",
		TripType:        models.TripRoundTrip,
		Groups: map[string]*models.QuestionGroupState{
			models.GroupRoundTrip: {
				Group: models.GroupRoundTrip,
				Answers: map[string]string{
					"departure_date": "2026-10-01",
					"return_date":    "2026-10-08",
				},
			},
			models.GroupProfile: {
				Group:   models.GroupProfile,
				Answers: map[string]string{"full_name": "Ada Lovelace"},
			},
		},
		Offers:         []models.FlightOffer{{ID: "1"}},
		OfferSummaries: []string{"Option 1: ..."},
		PricedOffer:    &models.FlightOffer{ID: "1"},
		ConfirmedPrice: "347.82",
		UpdatedAt:      time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	sum := BuildSummary(state)
	if !sum.HasFlightOffers || !sum.HasPricedOffer {
		t.Fatalf("offer booleans wrong: %+v", sum)
	}
	if sum.DepartureDate != "2026-10-01" || sum.ReturnDate != "2026-10-08" {
		t.Fatalf("dates not projected: %+v", sum)
	}
	if sum.ConfirmedPrice != "347.82" {
		t.Fatalf("price not projected: %+v", sum)
	}
	// Profile answers must not appear anywhere in the projection.
	if sum.Step != "confirm-price" || sum.OriginIATA != "TUL" {
		t.Fatalf("projection fields wrong: %+v", sum)
	}
}
