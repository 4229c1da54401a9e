// package queue provides the migration job queue.
//
// The queue delivers each unit of work to exactly one consumer. Acknowledgement
// follows [AckPolicyImmediate]: a message is removed from the queue on receipt,
// before processing, so every job gets at most one attempt and a processing
// failure is recorded on the job rather than redelivered.
package queue

import (
	"context"

	"github.com/desertthunder/syncwave/internal/models"
)

// AckPolicy names how the queue treats a message once delivered.
type AckPolicy string

// AckPolicyImmediate removes the unit of work on receipt, whether the job later
// completes or fails. The alternatives (requeue-with-backoff, dead-letter) are
// deliberately not implemented.
const AckPolicyImmediate AckPolicy = "immediate-delete"

// Delivery is one dequeued unit of work.
type Delivery struct {
	Message models.QueueMessage

	// Raw is the payload as it appeared on the queue, kept for diagnostics.
	Raw string
}

// Queue publishes and consumes migration job messages.
type Queue interface {
	// Enqueue publishes a unit of work.
	Enqueue(ctx context.Context, msg models.QueueMessage) error

	// Receive blocks for up to the queue's long-poll window waiting for one
	// unit of work. Returns (nil, nil) when the window elapses with no work.
	Receive(ctx context.Context) (*Delivery, error)

	// Policy returns the acknowledgement policy in force.
	Policy() AckPolicy
}
