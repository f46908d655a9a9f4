package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/model"
	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

const (
	userCollection    = "users"
	counterCollection = "counters"

	emailIndex          = "users_email_key"
	secondaryEmailIndex = "users_secondary_email_key"
	phoneIndex          = "users_phone_key"
)

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
		{
			Keys:    bson.D{{Key: "secondary_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(secondaryEmailIndex),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(phoneIndex),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	id, err := r.nextID(ctx, userCollection)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	user.SecondaryEmail = nonEmpty(user.SecondaryEmail)
	user.Phone = nonEmpty(user.Phone)
	user.Name = nonEmpty(user.Name)
	user.City = nonEmpty(user.City)
	user.AvatarURL = nonEmpty(user.AvatarURL)
	user.PasswordHash = nonEmpty(user.PasswordHash)

	if _, err := r.db.Collection(userCollection).InsertOne(ctx, user); err != nil {
		return nil, mapMongoError(err)
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) FindUserByIdentifier(
	ctx context.Context,
	id identifier.Identifier,
) (*model.User, error) {
	filters := identifierFilters(id)
	if len(filters) == 0 {
		return nil, ErrUserNotFound
	}

	for _, filter := range filters {
		user, err := r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		return user, err
	}

	return nil, ErrUserNotFound
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id int64,
	params UpdateUserParams,
) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		mongoUpdate(params, time.Now().UTC()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var user model.User
	if err := result.Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, mapMongoError(err)
	}

	return &user, nil
}

func (r *userMongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func (r *userMongoRepository) findOne(
	ctx context.Context,
	filter bson.M,
	opts ...options.Lister[options.FindOneOptions],
) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter, opts...)

	var user model.User
	if err := result.Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &user, nil
}

// nextID allocates the next numeric id for a collection from the counters collection.
func (r *userMongoRepository) nextID(ctx context.Context, name string) (int64, error) {
	result := r.db.Collection(counterCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := result.Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to allocate user id: %w", err)
	}

	return counter.Seq, nil
}

// identifierFilters returns the lookups for id in priority order. A primary email match
// wins over an account that lists the same address as its secondary email.
func identifierFilters(id identifier.Identifier) []bson.M {
	switch id.Kind {
	case identifier.KindEmail:
		return []bson.M{
			{"email": id.Email},
			{"secondary_email": id.Email},
		}
	case identifier.KindPhone:
		return []bson.M{{"phone": id.Phone}}
	default:
		return nil
	}
}

// mongoUpdate builds the update document. Cleared fields are unset so the sparse unique
// indexes keep ignoring them.
func mongoUpdate(params UpdateUserParams, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	for _, f := range params.fields() {
		if f.clears() {
			unset[f.name] = ""
		} else {
			set[f.name] = *f.value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return update
}

func mapMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, secondaryEmailIndex):
			return ErrDuplicateSecondaryEmail
		case strings.Contains(msg, emailIndex):
			return ErrDuplicateEmail
		case strings.Contains(msg, phoneIndex):
			return ErrDuplicatePhone
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
