package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config selects the deployment and database backing the repositories.
type Config struct {
	URI      string
	Database string
	// Timeout bounds the initial connect, ping and index creation.
	Timeout time.Duration
}

// Store bundles the repositories sharing one database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	users       *UserRepository
	communities *CommunityRepository
	accessLogs  *AccessLogRepository
}

// Open connects, verifies the server answers and ensures every collection
// index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("accessadmin").
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:      client,
		db:          db,
		users:       NewUserRepository(db),
		communities: NewCommunityRepository(db),
		accessLogs:  NewAccessLogRepository(db),
	}
	for _, ensure := range []func(context.Context) error{
		s.users.EnsureIndexes,
		s.communities.EnsureIndexes,
		s.accessLogs.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Users() *UserRepository { return s.users }
func (s *Store) Communities() *CommunityRepository { return s.communities }
func (s *Store) AccessLogs() *AccessLogRepository { return s.accessLogs }

// Ping runs a server round trip against the selected database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
