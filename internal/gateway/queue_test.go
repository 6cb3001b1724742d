package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vea-app/vea/internal/types"
)

func queueSession() *types.ConversationSession {
	identity := types.Identity{UserID: uuid.New(), OrgID: uuid.New()}
	return types.NewConversationSession(types.NewSessionID(), identity, "test")
}

func TestQueueFIFOWithinSession(t *testing.T) {
	q := NewQueue(4)

	var mu sync.Mutex
	var order []string
	q.SetProcessor(func(turn *Turn) error {
		mu.Lock()
		order = append(order, turn.Utterance)
		mu.Unlock()
		return nil
	})

	q.Start(context.Background())
	defer q.Stop()

	session := queueSession()
	identity := types.Identity{}
	want := []string{"one", "two", "three", "four", "five"}
	for _, u := range want {
		if err := q.Enqueue(NewTurn(session, identity, u, nil)); err != nil {
			t.Fatal(err)
		}
	}

	if !q.WaitIdle(2 * time.Second) {
		t.Fatal("queue did not drain")
	}
	// WaitIdle can observe the gap between two dequeues; give the lane a
	// moment to finish the tail.
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == len(want) || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("processed %d turns, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestQueueConcurrencyLimit(t *testing.T) {
	q := NewQueue(1)

	var current, peak atomic.Int64
	q.SetProcessor(func(turn *Turn) error {
		n := current.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		return nil
	})

	q.Start(context.Background())
	defer q.Stop()

	identity := types.Identity{}
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(NewTurn(queueSession(), identity, "hello", nil)); err != nil {
			t.Fatal(err)
		}
	}

	if !q.WaitIdle(5 * time.Second) {
		t.Fatal("queue did not drain")
	}
	if peak.Load() > 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestQueueStopBeforeEnqueueDrains(t *testing.T) {
	q := NewQueue(2)
	var processed atomic.Int64
	q.SetProcessor(func(turn *Turn) error {
		processed.Add(1)
		return nil
	})

	q.Start(context.Background())
	session := queueSession()
	if err := q.Enqueue(NewTurn(session, types.Identity{}, "hello", nil)); err != nil {
		t.Fatal(err)
	}
	q.WaitIdle(time.Second)
	q.Stop()

	if processed.Load() != 1 {
		t.Errorf("processed = %d", processed.Load())
	}
}
