package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// MongoStore implements Store on a MongoDB users collection, with the
// identity provider subject as the document key.
type MongoStore struct {
	users *mongo.Collection
}

// NewMongoStore creates a store bound to the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{users: db.Collection(usersCollection)}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	return s.findOne(ctx, bson.M{"_id": userID})
}

func (s *MongoStore) FindByCustomerID(ctx context.Context, customerID string) (*Record, error) {
	return s.findOne(ctx, bson.M{"payment_customer_id": customerID})
}

func (s *MongoStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error) {
	return s.findOne(ctx, bson.M{"subscription.external_subscription_id": subscriptionID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Record, error) {
	var rec Record
	err := s.users.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entitlement record: %w", err)
	}
	return &rec, nil
}

// ApplyState upserts the subscription sub-record. The filter only matches
// when the stored event time is absent or not newer than the incoming one,
// so out-of-order webhook deliveries resolve to the newest state instead of
// last-write-wins. When a newer state is already stored the upsert hits the
// existing _id and fails with a duplicate key, which is reported as a
// dropped stale write rather than an error.
func (s *MongoStore) ApplyState(ctx context.Context, userID string, st State) (bool, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"subscription.event_time": bson.M{"$exists": false}},
			bson.M{"subscription.event_time": bson.M{"$lte": st.EventTime}},
		},
	}

	set := bson.M{
		"subscription": SubscriptionState{
			Status:                 st.Status,
			Plan:                   st.Plan,
			ExternalSubscriptionID: st.SubscriptionID,
			CurrentPeriodEnd:       st.CurrentPeriodEnd,
			EventTime:              st.EventTime,
		},
		"updated_at": now,
	}
	if st.CustomerID != "" {
		set["payment_customer_id"] = st.CustomerID
	}
	if st.Email != "" {
		set["email"] = st.Email
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := s.users.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("apply subscription state: %w", err)
	}

	return true, nil
}
