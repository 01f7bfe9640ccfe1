package boards

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const channelsCollection = "channels"

// MongoStore keeps boards in the "channels" collection, one document per
// request channel guarded by a unique index on requests_channel.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(channelsCollection)}
}

// EnsureIndexes creates the unique index on requests_channel.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requests_channel", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique index on requests_channel: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, requestsChannelID string) (*ChannelPair, error) {
	var p ChannelPair
	err := s.col.FindOne(ctx, bson.M{"requests_channel": requestsChannelID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &p, nil
}

// Upsert replaces the document for the pair's request channel. Two upserts
// racing on a missing key can both try to insert; the loser hits the unique
// index and is replayed once as a plain replace.
func (s *MongoStore) Upsert(ctx context.Context, pair ChannelPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	filter := bson.M{"requests_channel": pair.RequestsChannelID}
	opts := options.Replace().SetUpsert(true)

	_, err := s.col.ReplaceOne(ctx, filter, pair, opts)
	if mongo.IsDuplicateKeyError(err) {
		_, err = s.col.ReplaceOne(ctx, filter, pair, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, requestsChannelID string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"requests_channel": requestsChannelID}); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]ChannelPair, error) {
	cur, err := s.col.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "requests_channel", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	out := make([]ChannelPair, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode boards: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}
