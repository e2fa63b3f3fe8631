package domain

import "time"

// User represents a shopper mirrored from Telegram identity. Users are
// created-or-updated through the upsert keyed on TelegramID and are never
// hard-deleted.
type User struct {
	TelegramID   int64          `json:"telegramId" bson:"telegramId"`
	FirstName    string         `json:"firstName" bson:"firstName"`
	LastName     string         `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Username     string         `json:"username,omitempty" bson:"username,omitempty"`
	PhotoURL     string         `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	LanguageCode string         `json:"languageCode,omitempty" bson:"languageCode,omitempty"`
	IsBanned     bool           `json:"isBanned" bson:"isBanned"`
	IsAdmin      bool           `json:"isAdmin" bson:"isAdmin"`
	TelegramData map[string]any `json:"telegramData,omitempty" bson:"telegramData,omitempty"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// UserUpdate carries a partial user update. TelegramID is never part of an
// update; moderation flags move only through the admin routes.
type UserUpdate struct {
	FirstName    *string `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Username     *string `json:"username,omitempty" bson:"username,omitempty"`
	PhotoURL     *string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	LanguageCode *string `json:"languageCode,omitempty" bson:"languageCode,omitempty"`
	IsBanned     *bool   `json:"isBanned,omitempty" bson:"isBanned,omitempty"`
}
