// Package journal records batch-migration outcomes in MongoDB so reruns can
// skip episodes that already migrated and operators can audit a run.
package journal

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Record is one episode's migration outcome.
type Record struct {
	Episode     int       `bson:"episode"`
	Status      string    `bson:"status"`
	DocumentKey string    `bson:"document_key,omitempty"`
	Error       string    `bson:"error,omitempty"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// Record statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Store wraps the MongoDB client and collection.
type Store struct {
	mongoClient *mongo.Client
	collection  *mongo.Collection
}

// NewStore creates a journal store.
func NewStore(connectionString, databaseName, collectionName string) *Store {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return store with nil - error will be caught during Connect()
		return &Store{}
	}

	return &Store{
		mongoClient: mongoClient,
		collection:  mongoClient.Database(databaseName).Collection(collectionName),
	}
}

// Connect establishes the connection to MongoDB.
func (s *Store) Connect(ctx context.Context) error {
	if s.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return s.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	if s.mongoClient == nil {
		return nil
	}
	return s.mongoClient.Disconnect(ctx)
}

// Save upserts the record for its episode; reruns overwrite prior outcomes.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	filter := bson.M{"episode": rec.Episode}
	update := bson.M{"$set": rec}
	opts := options.Update().SetUpsert(true)

	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// ProcessedEpisodes returns the set of episodes already recorded as
// succeeded.
func (s *Store) ProcessedEpisodes(ctx context.Context) (map[int]bool, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := s.collection.Find(ctx,
		bson.M{"status": StatusSucceeded},
		options.Find().SetProjection(bson.M{"episode": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query processed episodes: %w", err)
	}
	defer cursor.Close(ctx)

	episodes := make(map[int]bool)
	for cursor.Next(ctx) {
		var result struct {
			Episode int `bson:"episode"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		if result.Episode > 0 {
			episodes[result.Episode] = true
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return episodes, nil
}
