// Package notify delivers assignment events to students after a bulk
// operation commits. Delivery is fire-and-forget: events ride an in-memory
// worker queue and are published to a Redis channel consumed by the
// notification frontend.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openlearn/openlearn-api/pkg/jobs"
)

const jobTypeAssigned = "assignment.assigned"

// Publisher pushes a serialized event onto a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// AssignmentEvent is the payload consumed by the notification frontend.
type AssignmentEvent struct {
	Type        string    `json:"type"`
	MaterialIDs []string  `json:"material_ids"`
	StudentIDs  []string  `json:"student_ids"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Config tunes the dispatcher worker pool.
type Config struct {
	Workers int
	Buffer  int
	Channel string
}

// Dispatcher queues assignment events and publishes them asynchronously.
type Dispatcher struct {
	queue     *jobs.Queue
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher around the publisher.
func NewDispatcher(publisher Publisher, cfg Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Channel == "" {
		cfg.Channel = "openlearn.assignments"
	}
	d := &Dispatcher{publisher: publisher, channel: cfg.Channel, logger: logger}
	d.queue = jobs.NewQueue("assignment-notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.Buffer,
		Logger:     logger,
	})
	return d
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the worker pool.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// NotifyAssigned enqueues one event covering the created assignments.
func (d *Dispatcher) NotifyAssigned(materialIDs, studentIDs []string) error {
	event := AssignmentEvent{
		Type:        jobTypeAssigned,
		MaterialIDs: materialIDs,
		StudentIDs:  studentIDs,
		OccurredAt:  time.Now().UTC(),
	}
	return d.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeAssigned,
		Payload: event,
	})
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(AssignmentEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode assignment event: %w", err)
	}
	if err := d.publisher.Publish(ctx, d.channel, raw); err != nil {
		return fmt.Errorf("publish assignment event: %w", err)
	}
	d.logger.Debug("assignment event published",
		zap.String("channel", d.channel),
		zap.Int("students", len(event.StudentIDs)),
		zap.Int("materials", len(event.MaterialIDs)))
	return nil
}
