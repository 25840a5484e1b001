package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/blogflow/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Dispatcher hands publish outcome events to the asynq queue. The event id
// doubles as the task id so a re-dispatched event is delivered once.
type Dispatcher struct {
	client *asynq.Client
}

func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev *models.OutcomeEvent) error {
	if ev.EventID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return err
		}
		ev.EventID = id
	}

	taskPayload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeOutcomeNotify, taskPayload)

	_, err = d.client.EnqueueContext(ctx, task, asynq.TaskID(ev.EventID), asynq.MaxRetry(5))
	if err != nil {
		return err
	}

	log.Printf("Outcome event queued: schedule=%d outcome=%s", ev.ScheduleID, ev.Outcome)
	return nil
}
