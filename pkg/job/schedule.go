package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func parseCronSchedule(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return schedule, nil
}

// buildCron prepares a cron runner that enqueues every schedule on its ticks.
func (q *Queue) buildCron(schedules []scheduleConfig) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))

	for _, sched := range schedules {
		schedule, err := parseCronSchedule(sched.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, sched.expr)
		}

		var payload json.RawMessage
		if sched.payload != nil {
			payload, err = json.Marshal(sched.payload)
			if err != nil {
				return nil, errors.Join(ErrInvalidPayload, err)
			}
		}

		c.Schedule(schedule, cron.FuncJob(func() {
			q.enqueueScheduled(sched.name, payload, time.Now())
		}))
	}

	return c, nil
}

// enqueueScheduled inserts one job per schedule slot. The id is derived from
// the slot, so concurrent processes collapse into a single job.
func (q *Queue) enqueueScheduled(name string, payload json.RawMessage, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id := slotID(q.name, name, now)
	_, err := q.Enqueue(ctx, &Submission{ID: id, Payload: payload})
	switch {
	case errors.Is(err, ErrDuplicateJob):
		q.logger.DebugContext(ctx, "scheduled job already enqueued", slog.String("job_id", id))
	case err != nil:
		q.logger.ErrorContext(ctx, "enqueue scheduled job",
			slog.String("schedule", name),
			slog.Any("error", err),
		)
	}
}

func slotID(queue, name string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", queue, name, now.UTC().Truncate(time.Minute).Unix())
}
