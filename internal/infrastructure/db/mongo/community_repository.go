package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gatehouse/accessadmin/internal/core/domain"
)

const (
	collectionCommunities = "communities"
	collectionMeta        = "meta"

	// communityGuardID is the meta document every capped insert writes, so
	// concurrent creates conflict and the transaction is retried.
	communityGuardID = "community_guard"
)

// CommunityRepository stores each community, with its addresses, people and
// codes embedded, as one document. Create and DeleteWithLogs run in
// multi-document transactions and need a replica set.
type CommunityRepository struct {
	client *mongo.Client
	col    *mongo.Collection
	logs   *mongo.Collection
	meta   *mongo.Collection
}

func NewCommunityRepository(db *mongo.Database) *CommunityRepository {
	return &CommunityRepository{
		client: db.Client(),
		col:    db.Collection(collectionCommunities),
		logs:   db.Collection(collectionAccessLogs),
		meta:   db.Collection(collectionMeta),
	}
}

func (r *CommunityRepository) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	return r.client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		return err
	})
}

func (r *CommunityRepository) List(ctx context.Context) ([]domain.Community, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	list := []domain.Community{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode communities: %w", err)
	}
	return list, nil
}

func (r *CommunityRepository) FindByID(ctx context.Context, id string) (*domain.Community, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CommunityRepository) FindByName(ctx context.Context, name string) (*domain.Community, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *CommunityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Community, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Community
	if err := r.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCommunityNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create counts and inserts in one transaction guarded by the meta document.
func (r *CommunityRepository) Create(ctx context.Context, c *domain.Community, limit int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if limit > 0 {
			_, err := r.meta.UpdateOne(sc,
				bson.M{"_id": communityGuardID},
				bson.M{"$inc": bson.M{"seq": 1}},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return fmt.Errorf("community guard: %w", err)
			}
			n, err := r.col.CountDocuments(sc, bson.M{})
			if err != nil {
				return fmt.Errorf("count communities: %w", err)
			}
			if n >= int64(limit) {
				return domain.ErrCommunityLimit
			}
		}
		if _, err := r.col.InsertOne(sc, c); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrCommunityExists
			}
			return fmt.Errorf("insert community: %w", err)
		}
		return nil
	})
}

// Update replaces the document only while its stored version matches.
func (r *CommunityRepository) Update(ctx context.Context, c *domain.Community) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	next := *c
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID, "version": c.Version}, next)
	if err != nil {
		return fmt.Errorf("replace community: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return fmt.Errorf("replace community: %w", err)
		}
		if n == 0 {
			return domain.ErrCommunityNotFound
		}
		return domain.ErrConflict
	}

	c.Version, c.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

// DeleteWithLogs removes the community document and its access logs in one
// transaction.
func (r *CommunityRepository) DeleteWithLogs(ctx context.Context, id string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var removed int64
	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var c domain.Community
		if err := r.col.FindOneAndDelete(sc, bson.M{"_id": id}).Decode(&c); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.ErrCommunityNotFound
			}
			return fmt.Errorf("delete community: %w", err)
		}
		res, err := r.logs.DeleteMany(sc, bson.M{"community": c.Name})
		if err != nil {
			return fmt.Errorf("delete access logs: %w", err)
		}
		removed = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// RemoveAllowedUser pulls username from every allow-list in one UpdateMany.
// Each document update is atomic and bumps its version.
func (r *CommunityRepository) RemoveAllowedUser(ctx context.Context, username string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	name := domain.NormalizeUsername(username)
	res, err := r.col.UpdateMany(ctx,
		bson.M{"allowed_users": name},
		bson.M{
			"$pull": bson.M{"allowed_users": name},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("pull allowed user: %w", err)
	}
	return res.ModifiedCount, nil
}

// EnsureIndexes creates the unique name index.
func (r *CommunityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "allowed_users", Value: 1}}},
	})
	return err
}
