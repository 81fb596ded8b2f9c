package job

import (
	"context"
	"time"
)

// Await blocks until the job reaches the completed or failed bucket and
// returns its final snapshot. Terminal events of this process resolve the wait
// immediately; jobs worked elsewhere are picked up by polling.
// A job deleted while waiting yields ErrJobNotFound.
func (q *Queue) Await(ctx context.Context, id string) (*Job, error) {
	ch := q.addWaiter(id)
	defer q.removeWaiter(id, ch)

	ticker := time.NewTicker(q.cfg.pollInterval)
	defer ticker.Stop()

	for {
		j, err := q.Job(ctx, id)
		if err != nil {
			return nil, err
		}
		if j.Finished() {
			return j, nil
		}

		select {
		case ev := <-ch:
			if ev.Job != nil {
				return ev.Job, nil
			}
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *Queue) addWaiter(id string) chan Event {
	ch := make(chan Event, 1)
	q.waitersMu.Lock()
	q.waiters[id] = append(q.waiters[id], ch)
	q.waitersMu.Unlock()
	return ch
}

func (q *Queue) removeWaiter(id string, ch chan Event) {
	q.waitersMu.Lock()
	defer q.waitersMu.Unlock()

	list := q.waiters[id]
	for i, c := range list {
		if c == ch {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(q.waiters, id)
		return
	}
	q.waiters[id] = list
}

// resolve hands a terminal event to everyone awaiting the job.
func (q *Queue) resolve(ev Event) {
	q.waitersMu.Lock()
	defer q.waitersMu.Unlock()

	for _, ch := range q.waiters[ev.JobID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
