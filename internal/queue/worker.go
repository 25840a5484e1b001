package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/blogflow/internal/models"
)

func (q *Queue) HandleOutcomeTask(ctx context.Context, task *asynq.Task) error {
	var ev models.OutcomeEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		return err
	}

	return q.ns.RecordOutcome(ctx, &ev)
}
