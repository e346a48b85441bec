// Package mongostore applies and inspects the lookup schema on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// Config describes how to reach the target database.
type Config struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
}

// Store is a schema target backed by a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the Store.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Connect dials cfg.URI and pings the primary. Any failure to reach the
// server is reported as domain.ErrConnectionFailure.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		clientOpts.SetAppName(cfg.AppName)
	}
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnectionFailure, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrConnectionFailure, err)
	}

	store := New(client, cfg.Database, opts...)
	store.logger.Debug("connected", zap.String("database", cfg.Database))
	return store, nil
}

// New wraps an already connected client.
func New(client *mongo.Client, database string, opts ...Option) *Store {
	s := &Store{
		client: client,
		db:     client.Database(database),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CollectionKind reports whether name exists and whether it is a plain
// collection. Views and other namespace types report their server type.
func (s *Store) CollectionKind(ctx context.Context, name string) (domain.CollectionKind, bool, error) {
	specs, err := s.db.ListCollectionSpecifications(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return "", false, translate(err)
	}
	if len(specs) == 0 {
		return "", false, nil
	}
	switch specs[0].Type {
	case "", string(domain.KindCollection):
		return domain.KindCollection, true, nil
	default:
		return domain.CollectionKind(specs[0].Type), true, nil
	}
}

// CreateCollection creates the named collection. An existing one fails with
// domain.ErrCollectionExists.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := s.db.CreateCollection(ctx, name); err != nil {
		return translate(err)
	}
	s.logger.Debug("collection created", zap.String("collection", name))
	return nil
}

// ListIndexes returns the collection's secondary indexes in server order.
// A missing collection has none.
func (s *Store) ListIndexes(ctx context.Context, collection string) ([]domain.IndexSpec, error) {
	listed, err := s.db.Collection(collection).Indexes().ListSpecifications(ctx)
	if err != nil {
		err = translate(err)
		if errors.Is(err, domain.ErrCollectionNotFound) {
			return []domain.IndexSpec{}, nil
		}
		return nil, err
	}
	specs := make([]domain.IndexSpec, 0, len(listed))
	for _, l := range listed {
		if l.Name == primaryIndexName {
			continue
		}
		spec, err := specFromServer(l)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CreateIndex builds spec. The server treats an identical index as a no-op
// and rejects clashing definitions, which surface as domain.ErrSchemaConflict.
func (s *Store) CreateIndex(ctx context.Context, collection string, spec domain.IndexSpec) error {
	name, err := s.db.Collection(collection).Indexes().CreateOne(ctx, indexModel(spec))
	if err != nil {
		return translate(err)
	}
	s.logger.Debug("index created", zap.String("collection", collection), zap.String("index", name))
	return nil
}
