package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Mongo configuration.
	MongoURI string `mapstructure:"MONGO_URI"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisCallStateDB int    `mapstructure:"REDIS_CALL_STATE_DB"`
	RedisQueueDB     int    `mapstructure:"REDIS_QUEUE_DB"`

	// Conversation tuning.
	CallStateTTLMinutes int `mapstructure:"CALL_STATE_TTL_MINUTES"`
	SaveCooldownSeconds int `mapstructure:"SAVE_COOLDOWN_SECONDS"`
	SearchMaxOffers     int `mapstructure:"SEARCH_MAX_OFFERS"`

	// Flight backend selection: "mock" or "amadeus".
	FlightBackend       string `mapstructure:"FLIGHT_BACKEND"`
	AmadeusBaseURL      string `mapstructure:"AMADEUS_BASE_URL"`
	AmadeusClientID     string `mapstructure:"AMADEUS_CLIENT_ID"`
	AmadeusClientSecret string `mapstructure:"AMADEUS_CLIENT_SECRET"`

	// Outbound SMS delivery. An empty webhook URL selects the log sender.
	SMSFromNumber string `mapstructure:"SMS_FROM_NUMBER"`
	SMSWebhookURL string `mapstructure:"SMS_WEBHOOK_URL"`

	// Dashboard admin credentials.
	AdminEmail        string `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string `mapstructure:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CALL_STATE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("CALL_STATE_TTL_MINUTES", 120)
	viper.SetDefault("SAVE_COOLDOWN_SECONDS", 2)
	viper.SetDefault("SEARCH_MAX_OFFERS", 3)
	viper.SetDefault("FLIGHT_BACKEND", "mock")
	viper.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	viper.SetDefault("AMADEUS_CLIENT_ID", "")
	viper.SetDefault("AMADEUS_CLIENT_SECRET", "")
	viper.SetDefault("SMS_FROM_NUMBER", "")
	viper.SetDefault("SMS_WEBHOOK_URL", "")
	viper.SetDefault("ADMIN_EMAIL", "")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("JWT_SECRET", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
