package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Admin  AdminConfig
	TON    TONConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AdminConfig struct {
	// PasskeyHash is the bcrypt hash of the back-office passkey. The plaintext
	// never leaves the admin's keyboard; comparison happens server-side only.
	PasskeyHash   string
	SessionSecret string
	SessionExpiry int // in hours
}

type TONConfig struct {
	// APIBase is the chain explorer endpoint used for balance lookups.
	APIBase string
	APIKey  string
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", "https://web.telegram.org")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "giftmarket")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("ADMIN_SESSION_EXPIRY", 12)
	viper.SetDefault("TON_API_BASE", "https://toncenter.com/api/v2")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Admin: AdminConfig{
			PasskeyHash:   viper.GetString("ADMIN_PASSKEY_HASH"),
			SessionSecret: viper.GetString("ADMIN_SESSION_SECRET"),
			SessionExpiry: viper.GetInt("ADMIN_SESSION_EXPIRY"),
		},
		TON: TONConfig{
			APIBase: viper.GetString("TON_API_BASE"),
			APIKey:  viper.GetString("TON_API_KEY"),
		},
	}
}
