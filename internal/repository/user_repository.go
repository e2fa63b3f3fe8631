package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftmarket/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error)
	Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection("users")}
}

// Upsert creates or refreshes a user keyed on telegramId. Moderation flags are
// only written on insert; repeated upserts refresh profile fields and can never
// unban a user or grant admin. Returns the persisted document and whether it
// was newly created.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	now := time.Now()

	before, err := r.collection.CountDocuments(ctx, bson.M{"telegramId": user.TelegramID})
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}

	set := bson.M{
		"firstName": user.FirstName,
		"updatedAt": now,
	}
	if user.LastName != "" {
		set["lastName"] = user.LastName
	}
	if user.Username != "" {
		set["username"] = user.Username
	}
	if user.PhotoURL != "" {
		set["photoUrl"] = user.PhotoURL
	}
	if user.LanguageCode != "" {
		set["languageCode"] = user.LanguageCode
	}
	if user.TelegramData != nil {
		set["telegramData"] = user.TelegramData
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"telegramId": user.TelegramID,
			"isBanned":   false,
			"isAdmin":    false,
			"createdAt":  now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	persisted := &domain.User{}
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"telegramId": user.TelegramID}, update, opts).Decode(persisted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	return persisted, before == 0, nil
}

// Update applies a partial update and returns the updated document
func (r *userRepository) Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.PhotoURL != nil {
		set["photoUrl"] = *update.PhotoURL
	}
	if update.LanguageCode != nil {
		set["languageCode"] = *update.LanguageCode
	}
	if update.IsBanned != nil {
		set["isBanned"] = *update.IsBanned
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	user := &domain.User{}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"telegramId": telegramID}, bson.M{"$set": set}, opts).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// FindByTelegramID retrieves a user by Telegram identity
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user := &domain.User{}
	err := r.collection.FindOne(ctx, bson.M{"telegramId": telegramID}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// List retrieves all users newest-first
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// Count returns the total registered user count
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
