package tasks

import (
	"encoding/json"
	"time"

	"voyager/models"

	"github.com/hibiken/asynq"
)

const TypeSendConfirmation = "confirmation:send"

// NewConfirmationTask wraps a confirmation payload for the queue. Retries
// are bounded; a gateway outage longer than that shows up in the worker log
// and the booking record still exists either way.
func NewConfirmationTask(payload models.ConfirmationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendConfirmation, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}
