package store

import (
	"context"
	"strings"
	"time"

	"ecofinds/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser inserts an identity and sets its ID. Emails are stored lower-case.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user.Email = strings.ToLower(user.Email)
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.users.InsertOne(ctx, user)
	return mapError(err)
}

// DeleteUser removes an identity
func (s *Store) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	return mapError(err)
}

// FindUserByEmail looks an identity up by email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": strings.ToLower(email)}).Decode(&user)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// FindUser looks an identity up by ID
func (s *Store) FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// UpsertProfile writes the profile row for an identity. Repeating the call
// with the same profile is harmless.
func (s *Store) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	set := bson.M{"username": profile.Username, "updated_at": now}
	if profile.AvatarURL != nil {
		set["avatar_url"] = *profile.AvatarURL
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.profiles.FindOneAndUpdate(ctx, bson.M{"_id": profile.ID}, update, opts).Decode(profile)
	return mapError(err)
}

// FindProfile returns the profile with the given ID
func (s *Store) FindProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var profile models.Profile
	if err := s.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&profile); err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}

// UpdateProfile changes the username and/or avatar of an existing profile
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, username, avatarURL *string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if username != nil {
		set["username"] = *username
	}
	if avatarURL != nil {
		set["avatar_url"] = *avatarURL
	}

	var profile models.Profile
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.profiles.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&profile)
	if err != nil {
		return nil, mapError(err)
	}
	return &profile, nil
}
