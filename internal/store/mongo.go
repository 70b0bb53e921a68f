package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/studentily-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store with one collection per resource kind plus "users".
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore creates a MongoStore and makes sure the indexes it relies on exist.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	s := &MongoStore{client: client, db: client.Database(database)}

	_, err := s.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create users index: %w", err)
	}

	for _, spec := range models.Kinds() {
		_, err := s.db.Collection(spec.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "userId", Value: 1}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s index: %w", spec.Collection, err)
		}
	}
	return s, nil
}

func (s *MongoStore) users() *mongo.Collection {
	return s.db.Collection("users")
}

func (s *MongoStore) collection(kind models.Kind) (*mongo.Collection, models.KindSpec, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, models.KindSpec{}, err
	}
	return s.db.Collection(spec.Collection), spec, nil
}

// Ping checks the server connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// CreateAccount inserts a new user document.
func (s *MongoStore) CreateAccount(ctx context.Context, user *models.User) error {
	user.ID = uuid.New().String()
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindAccountByEmail retrieves a user by email.
func (s *MongoStore) FindAccountByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

// FindAccountByID retrieves a user by ID.
func (s *MongoStore) FindAccountByID(ctx context.Context, id string) (models.User, error) {
	return s.findAccount(ctx, bson.M{"_id": id})
}

func (s *MongoStore) findAccount(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := s.users().FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// DeleteAccount removes a user document.
func (s *MongoStore) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// InsertResource inserts a new resource document.
func (s *MongoStore) InsertResource(ctx context.Context, r *models.Resource) error {
	coll, spec, err := s.collection(r.Kind)
	if err != nil {
		return err
	}
	r.ID = uuid.New().String()
	if _, err := coll.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("failed to insert %s: %w", spec.Kind, err)
	}
	return nil
}

// ListResources returns the owner's resources in natural order.
func (s *MongoStore) ListResources(ctx context.Context, kind models.Kind, ownerID string) ([]models.Resource, error) {
	coll, spec, err := s.collection(kind)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", spec.Collection, err)
	}
	defer cursor.Close(ctx)

	resources := []models.Resource{}
	for cursor.Next(ctx) {
		var r models.Resource
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", spec.Kind, err)
		}
		resources = append(resources, normalize(r, spec))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return resources, nil
}

// FindResource retrieves a resource matching both _id and userId.
func (s *MongoStore) FindResource(ctx context.Context, kind models.Kind, ownerID, id string) (models.Resource, error) {
	coll, spec, err := s.collection(kind)
	if err != nil {
		return models.Resource{}, err
	}

	var r models.Resource
	if err := coll.FindOne(ctx, ownedFilter(ownerID, id)).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resource{}, models.ErrNotFound
		}
		return models.Resource{}, fmt.Errorf("failed to get %s %s: %w", spec.Kind, id, err)
	}
	return normalize(r, spec), nil
}

// SaveResource overwrites the mutable fields of an owned resource.
func (s *MongoStore) SaveResource(ctx context.Context, r models.Resource) error {
	coll, spec, err := s.collection(r.Kind)
	if err != nil {
		return err
	}

	set := bson.M{
		"title":       r.Title,
		"textContent": r.Body,
		"isPinned":    r.Pinned,
	}
	if spec.HasTags {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if spec.HasCompleted {
		set["isCompleted"] = r.Completed
	}

	res, err := coll.UpdateOne(ctx, ownedFilter(r.OwnerID, r.ID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", spec.Kind, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetResourceFlag overwrites a single flag and returns the updated document.
func (s *MongoStore) SetResourceFlag(ctx context.Context, kind models.Kind, ownerID, id string, flag Flag, value bool) (models.Resource, error) {
	coll, spec, err := s.collection(kind)
	if err != nil {
		return models.Resource{}, err
	}

	var field string
	switch {
	case flag == FlagPinned:
		field = "isPinned"
	case flag == FlagCompleted && spec.HasCompleted:
		field = "isCompleted"
	default:
		return models.Resource{}, fmt.Errorf("%s has no %s flag", spec.Kind, flag)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Resource
	err = coll.FindOneAndUpdate(ctx, ownedFilter(ownerID, id), bson.M{"$set": bson.M{field: value}}, opts).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resource{}, models.ErrNotFound
		}
		return models.Resource{}, fmt.Errorf("failed to set %s on %s %s: %w", flag, spec.Kind, id, err)
	}
	return normalize(r, spec), nil
}

// DeleteResource removes an owned resource.
func (s *MongoStore) DeleteResource(ctx context.Context, kind models.Kind, ownerID, id string) error {
	coll, spec, err := s.collection(kind)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, ownedFilter(ownerID, id))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", spec.Kind, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PurgeOrphans deletes resources whose userId matches no account.
func (s *MongoStore) PurgeOrphans(ctx context.Context, kind models.Kind) (int64, error) {
	coll, spec, err := s.collection(kind)
	if err != nil {
		return 0, err
	}

	ids, err := s.users().Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to list account ids: %w", err)
	}
	if ids == nil {
		ids = []interface{}{}
	}

	res, err := coll.DeleteMany(ctx, bson.M{"userId": bson.M{"$nin": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge orphaned %s: %w", spec.Collection, err)
	}
	return res.DeletedCount, nil
}

func ownedFilter(ownerID, id string) bson.M {
	return bson.M{"_id": id, "userId": ownerID}
}

// normalize fills in what the document does not store.
func normalize(r models.Resource, spec models.KindSpec) models.Resource {
	r.Kind = spec.Kind
	r.CreatedAt = r.CreatedAt.UTC()
	if spec.HasTags && r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}
