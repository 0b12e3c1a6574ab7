package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

const collectionAccessLogs = "access_logs"

// AccessLogRepository implements ports.AccessLogRepository using MongoDB.
type AccessLogRepository struct {
	col *mongo.Collection
}

func NewAccessLogRepository(db *mongo.Database) *AccessLogRepository {
	return &AccessLogRepository{col: db.Collection(collectionAccessLogs)}
}

func (r *AccessLogRepository) Append(ctx context.Context, entry *domain.AccessLog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, entry)
	return err
}

func (r *AccessLogRepository) ListByCommunity(ctx context.Context, community string, limit int) ([]domain.AccessLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"community": community}, opts)
	if err != nil {
		return nil, fmt.Errorf("find access logs: %w", err)
	}
	entries := []domain.AccessLog{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode access logs: %w", err)
	}
	return entries, nil
}

// EnsureIndexes creates the {community, timestamp} listing index.
func (r *AccessLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "community", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}
