package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kosarica/price-aggregator/internal/location"
	"github.com/kosarica/price-aggregator/internal/optimizer"
)

// Collection names.
const (
	collSearchHistory    = "search_history"
	collPriceComparisons = "price_comparisons"
	collUserLocations    = "user_locations"
	collCarts            = "carts"
)

// MongoConfig configures the MongoDB store.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// MongoStore writes analytics documents to MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// NewMongoStore connects to MongoDB and ensures the collection indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.Database == "" {
		cfg.Database = "price_aggregator"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	s := &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		logger: log.With().Str("component", "mongo_store").Logger(),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	for _, name := range []string{collSearchHistory, collPriceComparisons} {
		_, err := s.db.Collection(name).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		})
		if err != nil {
			return fmt.Errorf("mongodb indexes %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) SaveSearchHistory(ctx context.Context, h *SearchHistory) error {
	if _, err := s.db.Collection(collSearchHistory).InsertOne(ctx, h); err != nil {
		return fmt.Errorf("mongodb insert search history: %w", err)
	}
	return nil
}

func (s *MongoStore) SavePriceComparison(ctx context.Context, c *PriceComparison) error {
	if _, err := s.db.Collection(collPriceComparisons).InsertOne(ctx, c); err != nil {
		return fmt.Errorf("mongodb insert price comparison: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveLocation(ctx context.Context, userID string, loc location.Location) error {
	key := UserKey(userID)
	_, err := s.db.Collection(collUserLocations).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"location": loc, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb save location: %w", err)
	}
	return nil
}

func (s *MongoStore) GetLocation(ctx context.Context, userID string) (*UserLocation, error) {
	var out UserLocation
	err := s.db.Collection(collUserLocations).FindOne(ctx, bson.M{"_id": UserKey(userID)}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb get location: %w", err)
	}
	return &out, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, userID string, items []optimizer.PersistedCartItem) error {
	_, err := s.db.Collection(collCarts).UpdateOne(ctx,
		bson.M{"_id": UserKey(userID)},
		bson.M{"$set": bson.M{"items": items, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb save cart: %w", err)
	}
	return nil
}

func (s *MongoStore) ApplyOptimization(ctx context.Context, userID string, optimization map[string]any) error {
	now := time.Now().UTC()
	_, err := s.db.Collection(collCarts).UpdateOne(ctx,
		bson.M{"_id": UserKey(userID)},
		bson.M{"$set": bson.M{"optimization": optimization, "optimized_at": now, "updated_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb apply optimization: %w", err)
	}
	return nil
}

func (s *MongoStore) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var out Cart
	err := s.db.Collection(collCarts).FindOne(ctx, bson.M{"_id": UserKey(userID)}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb get cart: %w", err)
	}
	return &out, nil
}

func (s *MongoStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, name := range []string{collSearchHistory, collPriceComparisons} {
		res, err := s.db.Collection(name).DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
		if err != nil {
			return total, fmt.Errorf("mongodb purge %s: %w", name, err)
		}
		total += res.DeletedCount
	}
	s.logger.Debug().Int64("deleted", total).Time("cutoff", cutoff).Msg("Purged analytics")
	return total, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.logger.Info().Msg("MongoDB store closing")
	return s.client.Disconnect(ctx)
}
