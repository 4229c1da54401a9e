package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/shared"
)

func setupTestQueue(t *testing.T) *RedisQueue {
	t.Helper()

	srv := miniredis.RunT(t)

	q, err := NewRedisQueue(context.Background(), shared.RedisConfig{
		Addr:        srv.Addr(),
		QueueKey:    "test:jobs",
		PollSeconds: 1,
	})
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	t.Cleanup(func() { q.Close() })

	return q
}

func testMessage(jobID string) models.QueueMessage {
	return models.QueueMessage{
		JobID:         jobID,
		Type:          models.JobTypePlaylistMigration,
		SpotifyUserID: "user123",
		PlaylistURLs:  []string{"https://www.youtube.com/playlist?list=PLtest"},
	}
}

func TestRedisQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivers In Submission Order", func(t *testing.T) {
		q := setupTestQueue(t)

		for i := 1; i <= 3; i++ {
			if err := q.Enqueue(ctx, testMessage(fmt.Sprintf("job_%d", i))); err != nil {
				t.Fatalf("failed to enqueue: %v", err)
			}
		}

		for i := 1; i <= 3; i++ {
			delivery, err := q.Receive(ctx)
			if err != nil {
				t.Fatalf("failed to receive: %v", err)
			}
			if delivery == nil {
				t.Fatal("expected a delivery")
			}
			if want := fmt.Sprintf("job_%d", i); delivery.Message.JobID != want {
				t.Errorf("expected %s, got %s", want, delivery.Message.JobID)
			}
		}
	})

	t.Run("Rejects Invalid Message At Enqueue", func(t *testing.T) {
		q := setupTestQueue(t)

		err := q.Enqueue(ctx, models.QueueMessage{JobID: "job_1"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Empty Queue Times Out With No Work", func(t *testing.T) {
		q := setupTestQueue(t)

		delivery, err := q.Receive(ctx)
		if err != nil {
			t.Fatalf("expected no error on timeout, got %v", err)
		}
		if delivery != nil {
			t.Errorf("expected nil delivery, got %+v", delivery)
		}
	})

	t.Run("Malformed Payload Is An Error", func(t *testing.T) {
		srv := miniredis.RunT(t)

		q, err := NewRedisQueue(ctx, shared.RedisConfig{
			Addr:        srv.Addr(),
			QueueKey:    "test:jobs",
			PollSeconds: 1,
		})
		if err != nil {
			t.Fatalf("failed to create queue: %v", err)
		}
		defer q.Close()

		if _, err := srv.Push("test:jobs", "not json"); err != nil {
			t.Fatalf("failed to seed payload: %v", err)
		}

		if _, err := q.Receive(ctx); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Policy Is Immediate Delete", func(t *testing.T) {
		q := setupTestQueue(t)

		if got := q.Policy(); got != AckPolicyImmediate {
			t.Errorf("expected %s, got %s", AckPolicyImmediate, got)
		}
	})
}
