package passengerRepo

import (
	"context"
	"fmt"
	"time"

	"voyager/database"
	"voyager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPassengerRepo implements PassengerRepository using MongoDB.
type MongoPassengerRepo struct {
	coll *mongo.Collection
}

// NewMongoPassengerRepo creates a new instance of PassengerRepository using MongoDB.
func NewMongoPassengerRepo() PassengerRepository {
	coll := database.MongoClient.Database("voyager").Collection("passengers")
	repo := &MongoPassengerRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoPassengerRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// GetByPhone retrieves a passenger by phone number; (nil, nil) on miss.
func (r *MongoPassengerRepo) GetByPhone(phone string) (*models.Passenger, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var p models.Passenger
	if err := r.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch passenger %s: %w", phone, err)
	}
	return &p, nil
}

// Upsert inserts or merges a passenger document. Empty incoming fields never
// clobber stored values, so a partial update (say, just a corrected email)
// keeps the rest of the profile intact.
func (r *MongoPassengerRepo) Upsert(p *models.Passenger) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{"updated_at": now}
	fields := map[string]string{
		"first_name":        p.FirstName,
		"last_name":         p.LastName,
		"date_of_birth":     p.DateOfBirth,
		"gender":            p.Gender,
		"email":             p.Email,
		"seat_preference":   p.SeatPreference,
		"cabin_preference":  p.CabinPreference,
		"home_airport":      p.HomeAirport,
		"home_airport_iata": p.HomeAirportIATA,
	}
	for key, val := range fields {
		if val != "" {
			set[key] = val
		}
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"phone": p.Phone, "created_at": now},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"phone": p.Phone}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert passenger %s: %w", p.Phone, err)
	}
	return nil
}
