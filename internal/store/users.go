package store

import (
	"context"
	"sync"

	"giftmarket/internal/client"
	"giftmarket/internal/domain"
	"giftmarket/internal/telegram"

	"go.uber.org/zap"
)

// UserStore is the client-side user directory used by the back office and by
// registration on app open.
type UserStore struct {
	mu      sync.Mutex
	gateway *client.Client
	logger  *zap.Logger

	users   []*domain.User
	loading bool
}

// NewUserStore creates a user store over a gateway client
func NewUserStore(gateway *client.Client, logger *zap.Logger) *UserStore {
	return &UserStore{
		gateway: gateway,
		logger:  logger,
	}
}

// Fetch replaces the cached user directory.
func (s *UserStore) Fetch(ctx context.Context) ([]*domain.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	users, err := s.gateway.Users(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch users", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return users, nil
}

// Update submits a partial update and merges the returned record into the
// cached entry with the same telegramId. Other entries are untouched; on
// failure the cache stays as it was.
func (s *UserStore) Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error) {
	updated, err := s.gateway.UpdateUser(ctx, telegramID, update)
	if err != nil {
		s.logger.Error("Failed to update user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}

	s.mergeInPlace(updated)
	return updated, nil
}

// Register upserts a user from the host identity payload. Repeated calls with
// the same identity refresh the cached entry instead of appending a duplicate.
func (s *UserStore) Register(ctx context.Context, identity *telegram.User) (*domain.User, error) {
	if identity == nil || identity.ID == 0 {
		s.logger.Warn("Registration skipped: no identity payload")
		return nil, nil
	}

	payload := &client.RegisterPayload{
		TelegramID:   identity.ID,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		Username:     identity.Username,
		PhotoURL:     identity.PhotoURL,
		LanguageCode: identity.LanguageCode,
	}

	user, err := s.gateway.RegisterUser(ctx, payload)
	if err != nil {
		s.logger.Error("Failed to register user", zap.Int64("telegram_id", identity.ID), zap.Error(err))
		return nil, err
	}

	s.mergeInPlace(user)
	return user, nil
}

// Users returns the cached directory snapshot.
func (s *UserStore) Users() []*domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*domain.User, len(s.users))
	copy(users, s.users)
	return users
}

// Loading reports whether a directory action is in flight.
func (s *UserStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// mergeInPlace replaces the cached entry sharing the record's telegramId, or
// appends when the record is new to the cache.
func (s *UserStore) mergeInPlace(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.users {
		if existing.TelegramID == user.TelegramID {
			s.users[i] = user
			return
		}
	}
	s.users = append(s.users, user)
}

func (s *UserStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
