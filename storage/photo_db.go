package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photo-mapper/model"
)

// PhotoDB is the record store for photos and the tag catalog.
type PhotoDB interface {
	CreatePhoto(ctx context.Context, photo *model.Photo) error
	DeletePhoto(ctx context.Context, ownerID, id string) error
	GetPhoto(ctx context.Context, ownerID, id string) (*model.Photo, error)
	ListPhotos(ctx context.Context, ownerID string) ([]model.Photo, error)
	SearchPhotosByLocation(ctx context.Context, ownerID string, long, lat float64, dist int) ([]model.Photo, error)

	GetOrCreateTags(ctx context.Context, names []string) (tags []model.Tag, created []string, err error)
	CreateTag(ctx context.Context, name string) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
	DeleteTag(ctx context.Context, name string) error
	RemoveUnusedTags(ctx context.Context, names []string) error
}

// UserDB holds the accounts photos are owned by.
type UserDB interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

const (
	photosCollection = "photos"
	tagsCollection   = "tags"
	usersCollection  = "users"
)

type MongoPhotoDB struct {
	mongoClient *mongo.Client
	photos      *mongo.Collection
	tags        *mongo.Collection
	users       *mongo.Collection
	log         *zap.Logger
}

func NewMongoPhotoDB(log *zap.Logger) *MongoPhotoDB {
	return &MongoPhotoDB{log: log}
}

func (db *MongoPhotoDB) Connect(ctx context.Context, connectionString, databaseName string) error {
	var err error
	db.mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err = db.mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	database := db.mongoClient.Database(databaseName)
	db.photos = database.Collection(photosCollection)
	db.tags = database.Collection(tagsCollection)
	db.users = database.Collection(usersCollection)

	db.log.Info("connected to MongoDB", zap.String("database", databaseName))
	return nil
}

func (db *MongoPhotoDB) Close(ctx context.Context) error {
	if db.mongoClient != nil {
		if err := db.mongoClient.Disconnect(ctx); err != nil {
			return err
		}
		db.log.Info("disconnected from MongoDB")
	}
	return nil
}

// EnsureIndexes creates the uniqueness constraints the upload flow relies
// on, plus the geo and time indexes used by queries.
func (db *MongoPhotoDB) EnsureIndexes(ctx context.Context) error {
	_, err := db.photos.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "location", Value: 1},
				{Key: "taken_at", Value: 1},
				{Key: "owner_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("unique_time_and_place"),
		},
		{
			Keys:    bson.D{{Key: "taken_at", Value: 1}},
			Options: options.Index().SetName("timestamp_index"),
		},
		{
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
	})
	if err != nil {
		return fmt.Errorf("create photo indexes: %w", err)
	}

	_, err = db.tags.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_tag_name"),
	})
	if err != nil {
		return fmt.Errorf("create tag indexes: %w", err)
	}

	_, err = db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_username"),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (db *MongoPhotoDB) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	_, err := db.photos.InsertOne(ctx, photo)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePhoto
	}
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	db.log.Debug("photo saved", zap.String("id", photo.ID), zap.String("path", photo.ImagePath))
	return nil
}

func (db *MongoPhotoDB) DeletePhoto(ctx context.Context, ownerID, id string) error {
	res, err := db.photos.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *MongoPhotoDB) GetPhoto(ctx context.Context, ownerID, id string) (*model.Photo, error) {
	var photo model.Photo

	filter := bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}}
	err := db.photos.FindOne(ctx, filter).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find photo: %w", err)
	}
	return &photo, nil
}

func (db *MongoPhotoDB) ListPhotos(ctx context.Context, ownerID string) ([]model.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}})
	return db.findPhotos(ctx, bson.D{{Key: "owner_id", Value: ownerID}}, opts)
}

// SearchPhotosByLocation returns the owner's photos within dist meters of
// (long, lat), nearest first.
func (db *MongoPhotoDB) SearchPhotosByLocation(ctx context.Context, ownerID string, long, lat float64, dist int) ([]model.Photo, error) {
	filter := bson.D{
		{Key: "owner_id", Value: ownerID},
		{Key: "location", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: model.NewGeoPoint(long, lat)},
				{Key: "$maxDistance", Value: dist},
			}},
		}},
	}
	return db.findPhotos(ctx, filter)
}

func (db *MongoPhotoDB) findPhotos(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]model.Photo, error) {
	cur, err := db.photos.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find photos: %w", err)
	}
	photos := []model.Photo{}
	if err = cur.All(ctx, &photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	return photos, nil
}

// GetOrCreateTags upserts one tag per name and returns them in the same
// order, along with the names this call inserted. Names must already be
// normalized.
func (db *MongoPhotoDB) GetOrCreateTags(ctx context.Context, names []string) ([]model.Tag, []string, error) {
	tags := make([]model.Tag, 0, len(names))
	var created []string
	for _, name := range names {
		tag, inserted, err := db.getOrCreateTag(ctx, name)
		if err != nil {
			return nil, created, err
		}
		if inserted {
			created = append(created, tag.Name)
		}
		tags = append(tags, *tag)
	}
	return tags, created, nil
}

func (db *MongoPhotoDB) getOrCreateTag(ctx context.Context, name string) (*model.Tag, bool, error) {
	filter := bson.D{{Key: "name_key", Value: model.TagKey(name)}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "name", Value: name},
		{Key: "name_key", Value: model.TagKey(name)},
	}}}

	res, err := db.tags.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	// A duplicate key means a concurrent upsert won; its document is there now.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("upsert tag %q: %w", name, err)
	}
	inserted := err == nil && res.UpsertedCount > 0

	var tag model.Tag
	if err := db.tags.FindOne(ctx, filter).Decode(&tag); err != nil {
		return nil, false, fmt.Errorf("get tag %q: %w", name, err)
	}
	return &tag, inserted, nil
}

func (db *MongoPhotoDB) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	tag := &model.Tag{Name: name, NameKey: model.TagKey(name)}
	_, err := db.tags.InsertOne(ctx, tag)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicateTag
	}
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return tag, nil
}

func (db *MongoPhotoDB) ListTags(ctx context.Context) ([]model.Tag, error) {
	cur, err := db.tags.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name_key", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	tags := []model.Tag{}
	if err = cur.All(ctx, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes the tag from the catalog and detaches it from every
// photo carrying it.
func (db *MongoPhotoDB) DeleteTag(ctx context.Context, name string) error {
	var tag model.Tag
	err := db.tags.FindOneAndDelete(ctx, bson.D{{Key: "name_key", Value: model.TagKey(name)}}).Decode(&tag)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	res, err := db.photos.UpdateMany(ctx,
		bson.D{{Key: "tags", Value: tag.Name}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "tags", Value: tag.Name}}}},
	)
	if err != nil {
		return fmt.Errorf("detach tag %q: %w", tag.Name, err)
	}
	db.log.Info("tag deleted", zap.String("name", tag.Name), zap.Int64("photos", res.ModifiedCount))
	return nil
}

// RemoveUnusedTags deletes the named tags that no photo carries. Upload
// rollback uses it for tags the failed request created.
func (db *MongoPhotoDB) RemoveUnusedTags(ctx context.Context, names []string) error {
	for _, name := range names {
		n, err := db.photos.CountDocuments(ctx, bson.D{{Key: "tags", Value: name}}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("count photos tagged %q: %w", name, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.tags.DeleteOne(ctx, bson.D{{Key: "name_key", Value: model.TagKey(name)}}); err != nil {
			return fmt.Errorf("remove tag %q: %w", name, err)
		}
	}
	return nil
}

func (db *MongoPhotoDB) CreateUser(ctx context.Context, user *model.User) error {
	res, err := db.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (db *MongoPhotoDB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := db.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
