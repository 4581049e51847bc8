// Package memory is a process-local job queue for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue"
)

var _ queue.Manager = (*Queue)(nil)

// Queue delivers lower priority numbers first and keeps FIFO order within a priority.
// A Nack with requeue puts the message back in place.
type Queue struct {
	mu      sync.Mutex
	pending []models.JobMessage
}

func New() *Queue { return &Queue{} }

func (q *Queue) EnqueueJob(_ context.Context, msg models.JobMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.insert(msg)
	return msg.ID, nil
}

func (q *Queue) insert(msg models.JobMessage) {
	i := len(q.pending)
	for i > 0 && q.pending[i-1].Priority > msg.Priority {
		i--
	}
	q.pending = append(q.pending, models.JobMessage{})
	copy(q.pending[i+1:], q.pending[i:])
	q.pending[i] = msg
}

func (q *Queue) GetNextJob(ctx context.Context) (*models.JobMessage, queue.AckNacker, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil, nil
	}
	msg := q.pending[0]
	q.pending = q.pending[1:]
	return &msg, &delivery{q: q, msg: msg}, nil
}

func (q *Queue) GetQueueSize(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), nil
}

func (q *Queue) Close() error { return nil }

type delivery struct {
	q       *Queue
	msg     models.JobMessage
	settled bool
	mu      sync.Mutex
}

func (d *delivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.settled = true
	return nil
}

func (d *delivery) Nack(requeue bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return nil
	}
	d.settled = true
	if requeue {
		d.q.mu.Lock()
		d.q.insert(d.msg)
		d.q.mu.Unlock()
	}
	return nil
}
