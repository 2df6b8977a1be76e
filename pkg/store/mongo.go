package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB collection
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig holds the connection settings for the progress collection
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// NewMongoStore connects to MongoDB and verifies reachability
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Get returns the stored progress, or (nil, nil) when the player is unknown
func (s *MongoStore) Get(ctx context.Context, playerID string) (*PlayerProgress, error) {
	var p PlayerProgress
	err := s.coll.FindOne(ctx, bson.M{"player_id": playerID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read player document: %w", err)
	}
	return &p, nil
}

// Upsert replaces the full document for p.PlayerID, creating it if absent
func (s *MongoStore) Upsert(ctx context.Context, p PlayerProgress) (UpsertResult, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"player_id": p.PlayerID},
		bson.M{"$set": p},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to upsert player document: %w", err)
	}

	out := UpsertResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}
	if res.UpsertedID != nil {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			out.UpsertedID = oid.Hex()
		} else {
			out.UpsertedID = fmt.Sprintf("%v", res.UpsertedID)
		}
	}
	return out, nil
}

// Delete removes the player's document if present
func (s *MongoStore) Delete(ctx context.Context, playerID string) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"player_id": playerID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete player document: %w", err)
	}
	return res.DeletedCount, nil
}

// Count returns the total number of player documents
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count player documents: %w", err)
	}
	return n, nil
}

// TopPlayers returns the ranked prefix of the collection
func (s *MongoStore) TopPlayers(ctx context.Context, limit int) ([]PlayerProgress, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "max_level", Value: -1}, {Key: "total_score", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer cursor.Close(ctx)

	var players []PlayerProgress
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard documents: %w", err)
	}
	return players, nil
}

// CountOutranking counts players strictly ahead of the given standing
func (s *MongoStore) CountOutranking(ctx context.Context, maxLevel int, totalScore int64) (int64, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"max_level": bson.M{"$gt": maxLevel}},
			bson.M{
				"max_level":   maxLevel,
				"total_score": bson.M{"$gt": totalScore},
			},
		},
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count outranking players: %w", err)
	}
	return n, nil
}

// Totals runs a single $group aggregation over all documents
func (s *MongoStore) Totals(ctx context.Context) (Totals, bool, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_score", Value: bson.D{{Key: "$sum", Value: "$total_score"}}},
			{Key: "total_items_collected", Value: bson.D{{Key: "$sum", Value: "$items_collected"}}},
			{Key: "total_games_played", Value: bson.D{{Key: "$sum", Value: "$games_played"}}},
			{Key: "max_level_reached", Value: bson.D{{Key: "$max", Value: "$max_level"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return Totals{}, false, fmt.Errorf("failed to aggregate statistics: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return Totals{}, false, fmt.Errorf("failed to read aggregation result: %w", err)
		}
		return Totals{}, false, nil
	}

	var totals Totals
	if err := cursor.Decode(&totals); err != nil {
		return Totals{}, false, fmt.Errorf("failed to decode aggregation result: %w", err)
	}
	return totals, true, nil
}

// Ping reports whether the server is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
