package flashcard

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	cardsCollection        = "flashcards"
	explanationsCollection = "explanations"
	usersCollection        = "users"
)

// MongoStore implements Store on per-user MongoDB collections. Generation
// counters live on the users collection next to the entitlement record.
type MongoStore struct {
	cards        *mongo.Collection
	explanations *mongo.Collection
	users        *mongo.Collection
}

// NewMongoStore creates a store bound to the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		cards:        db.Collection(cardsCollection),
		explanations: db.Collection(explanationsCollection),
		users:        db.Collection(usersCollection),
	}
}

func (s *MongoStore) ListCards(ctx context.Context, userID string) ([]Card, error) {
	cur, err := s.cards.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}

	cards := []Card{}
	if err := cur.All(ctx, &cards); err != nil {
		return nil, fmt.Errorf("decode flashcards: %w", err)
	}
	return cards, nil
}

func (s *MongoStore) SaveCard(ctx context.Context, card *Card) error {
	if _, err := s.cards.InsertOne(ctx, card); err != nil {
		return fmt.Errorf("save flashcard: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveCards(ctx context.Context, cards []Card) error {
	if len(cards) == 0 {
		return nil
	}
	docs := make([]any, len(cards))
	for i := range cards {
		docs[i] = cards[i]
	}
	if _, err := s.cards.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("save flashcards: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveExplanation(ctx context.Context, exp *Explanation) error {
	if _, err := s.explanations.InsertOne(ctx, exp); err != nil {
		return fmt.Errorf("save explanation: %w", err)
	}
	return nil
}

func (s *MongoStore) IncrementFlashcardsGenerated(ctx context.Context, userID string, n int) error {
	return s.incrementCounter(ctx, userID, bson.M{
		"$inc": bson.M{"flashcards_generated": n},
		"$set": bson.M{"last_generation": time.Now().UTC()},
	})
}

func (s *MongoStore) IncrementExplanationsGenerated(ctx context.Context, userID string) error {
	return s.incrementCounter(ctx, userID, bson.M{
		"$inc": bson.M{"explanations_generated": 1},
		"$set": bson.M{"last_explanation": time.Now().UTC()},
	})
}

func (s *MongoStore) incrementCounter(ctx context.Context, userID string, update bson.M) error {
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update user counters: %w", err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
