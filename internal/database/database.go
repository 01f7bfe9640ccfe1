package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/staffbot/internal/boards"
	"github.com/staffbot/internal/config"
	"github.com/staffbot/internal/retry"
)

// connectRetry bounds how long startup waits for the store to answer.
var connectRetry = retry.DefaultConfig()

func ping(ctx context.Context, pinger boards.Pinger) error {
	result := retry.Do(ctx, connectRetry, "store_ping", pinger.Ping)
	if !result.Success {
		return result.LastError
	}
	return nil
}

// BoardStore is a connected board store plus the function that releases it.
type BoardStore struct {
	boards.Store
	Backend string
	close   func()
}

// Close releases the underlying connection.
func (s *BoardStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenBoardStore connects to the store named by cfg.URI, checks that it
// answers and ensures its unique key on request channel exists. Any failure
// here is a startup failure.
func OpenBoardStore(ctx context.Context, cfg config.StoreConfig) (*BoardStore, error) {
	backend, err := config.Backend(cfg.URI)
	if err != nil {
		return nil, err
	}

	var store *BoardStore
	switch backend {
	case config.BackendMongo:
		store, err = openMongo(ctx, cfg)
	case config.BackendPostgres:
		store, err = openPostgres(ctx, cfg)
	default:
		store = &BoardStore{Store: boards.NewInMemoryStore()}
	}
	if err != nil {
		return nil, err
	}

	store.Backend = backend
	log.Info().Str("backend", backend).Msg("Connected to board store")
	return store, nil
}

func openMongo(ctx context.Context, cfg config.StoreConfig) (*BoardStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to configure mongo client: %w", err)
	}
	closeClient := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect from mongo")
		}
	}

	store := boards.NewMongoStore(client.Database(cfg.Database))
	if err := ping(ctx, store); err != nil {
		closeClient()
		return nil, fmt.Errorf("could not ping mongo, check connection: %w", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		closeClient()
		return nil, err
	}

	return &BoardStore{Store: store, close: closeClient}, nil
}

func openPostgres(ctx context.Context, cfg config.StoreConfig) (*BoardStore, error) {
	pool, err := pgxpool.New(ctx, cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	store := boards.NewPostgresStore(pool)
	if err := ping(ctx, store); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &BoardStore{Store: store, close: pool.Close}, nil
}
