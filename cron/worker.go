package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"voyager/config"
	"voyager/models"
	"voyager/services/callstate"
	"voyager/services/notification"
	"voyager/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitConfirmationWorker runs the queue consumer in the background.
func InitConfirmationWorker(sender notification.SMSSender) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendConfirmation, handleConfirmationTask(sender))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[ConfirmationWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ConfirmationWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ConfirmationWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleConfirmationTask(sender notification.SMSSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ConfirmationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ConfirmationHandler] invalid payload: %v", err)
			return err
		}

		// Errors bubble back to asynq, which retries up to the task's
		// MaxRetry before parking it in the dead queue.
		if err := sender.SendSMS(ctx, p.Phone, notification.ConfirmationBody(p)); err != nil {
			log.Printf("[ConfirmationHandler] delivery failed for booking %s: %v", p.BookingID, err)
			return err
		}
		log.Printf("[ConfirmationHandler] delivered confirmation for booking %s", p.BookingID)
		return nil
	}
}

// StartStaleCallSweep periodically deletes call state whose last activity
// is older than maxIdle. Redis TTL normally reclaims abandoned calls; the
// sweep also covers the in-memory store used in development, which has no
// TTL at all.
func StartStaleCallSweep(ctx context.Context, store callstate.Store, maxIdle, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, store, maxIdle)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, store callstate.Store, maxIdle time.Duration) {
	ids, err := store.ListCallIDs(ctx)
	if err != nil {
		log.Printf("[StaleSweep] list failed: %v", err)
		return
	}
	cutoff := time.Now().UTC().Add(-maxIdle)
	removed := 0
	for _, id := range ids {
		state, err := store.Get(ctx, id)
		if err != nil {
			continue
		}
		if state.UpdatedAt.Before(cutoff) {
			if err := store.Delete(ctx, id); err != nil {
				log.Printf("[StaleSweep] delete %s failed: %v", id, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[StaleSweep] removed %d stale call states", removed)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ConfirmationWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
