// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"voyager/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CallStateClient is the Redis client backing per-call conversation state.
	CallStateClient *redis.Client
)

// InitRedis initializes every Redis client the server uses.
func InitRedis() {
	InitCallStateClient()
}

// InitCallStateClient initializes the Redis client for call state
// (using the call-state DB from AppConfig).
func InitCallStateClient() {
	CallStateClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCallStateDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CallStateClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Call State): %v", err)
	}
}

// GetCallStateClient returns the Redis client for call state.
func GetCallStateClient() *redis.Client {
	if CallStateClient == nil {
		InitCallStateClient()
	}
	return CallStateClient
}
