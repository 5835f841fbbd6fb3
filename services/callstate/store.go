package callstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voyager/models"

	"github.com/go-redis/redis/v8"
)

const callStatePrefix = "call:state:"

// ErrNotFound is returned when no state exists for a call id.
var ErrNotFound = errors.New("call state not found")

// Store persists per-call conversation state between turns. Implementations
// must survive process restart: a new process handling the next turn of the
// same call sees exactly the state the previous turn saved.
type Store interface {
	Get(ctx context.Context, callID string) (*models.CallState, error)
	Save(ctx context.Context, state *models.CallState) error
	Delete(ctx context.Context, callID string) error
	ListCallIDs(ctx context.Context) ([]string, error)
}

// RedisStore keeps call state as JSON blobs with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. TTL bounds how long an abandoned
// call's state lingers; every Save refreshes it.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, callID string) (*models.CallState, error) {
	data, err := s.client.Get(ctx, callStatePrefix+callID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("callstate: get %s: %w", callID, err)
	}
	var state models.CallState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("callstate: unmarshal %s: %w", callID, err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *models.CallState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("callstate: marshal %s: %w", state.CallID, err)
	}
	if err := s.client.Set(ctx, callStatePrefix+state.CallID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("callstate: save %s: %w", state.CallID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.client.Del(ctx, callStatePrefix+callID).Err(); err != nil {
		return fmt.Errorf("callstate: delete %s: %w", callID, err)
	}
	return nil
}

// ListCallIDs scans for live call ids (dashboard and the stale sweep).
func (s *RedisStore) ListCallIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, callStatePrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("callstate: scan: %w", err)
		}
		for _, k := range keys {
			ids = append(ids, k[len(callStatePrefix):])
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}

// BuildSummary projects live call state into the dashboard shape. Profile
// answers never leave this server; only route and pipeline progress do.
func BuildSummary(state *models.CallState) models.CallSummary {
	sum := models.CallSummary{
		CallID:          state.CallID,
		Phone:           state.Phone,
		Step:            state.Step,
		HasProfile:      state.HasProfile,
		OriginIATA:      state.OriginIATA,
		DestinationIATA: state.DestinationIATA,
		TripType:        state.TripType,
		HasFlightOffers: len(state.Offers) > 0,
		HasPricedOffer:  state.PricedOffer != nil,
		ConfirmedPrice:  state.ConfirmedPrice,
		OfferSummaries:  state.OfferSummaries,
		BookingID:       state.BookingID,
		PNR:             state.PNR,
		UpdatedAt:       state.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if group := state.BookingGroupID(); group != "" {
		sum.DepartureDate = state.AnswerFor(group, "departure_date")
		sum.ReturnDate = state.AnswerFor(group, "return_date")
	}
	return sum
}
