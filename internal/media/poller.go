package media

import (
	"context"
	"log/slog"
	"time"

	"github.com/vea-app/vea/internal/types"
)

// State is the terminal (or cancelled) outcome of watching one video job.
type State string

const (
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

const (
	failureNotice = "\n\nVideo generation failed: "
	timeoutNotice = "\n\nVideo generation timed out. The provider may still be working; please try again in a bit."
)

// Poller resolves asynchronous video jobs. Each watched job runs in its own
// goroutine and only ever touches the message it was handed, so independent
// jobs never serialize on a shared lock.
type Poller struct {
	client      *Client
	interval    time.Duration
	maxAttempts int
	sink        types.MessageStore // optional; terminal updates are mirrored best-effort
}

// NewPoller creates a poller with the given tick interval and attempt
// budget. sink may be nil.
func NewPoller(client *Client, interval time.Duration, maxAttempts int, sink types.MessageStore) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		sink:        sink,
	}
}

// Watch polls taskID until it completes, fails, or the attempt budget is
// exhausted, updating the owning message on every tick. It blocks; callers
// start it with go. Transient status-check errors keep the loop alive but
// still count against the budget, so the wall-clock ceiling holds.
func (p *Poller) Watch(ctx context.Context, taskID string, session *types.ConversationSession, msgID types.MessageID) State {
	lastProgress := 0

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.finish(ctx, session, msgID, func(m *types.Message) {
				m.IsGenerating = false
			})
			return StateCancelled
		case <-time.After(p.interval):
		}

		status, err := p.client.VideoStatus(ctx, taskID)
		if err != nil {
			slog.Warn("video status check failed", "task_id", taskID, "attempt", attempt, "error", err)
			continue
		}

		// Progress is non-decreasing across ticks regardless of phase.
		if pct := int(status.Progress * 100); pct > lastProgress {
			lastProgress = pct
		}
		progress := lastProgress

		switch status.Phase {
		case PhaseSucceeded:
			resultURL := status.ResultURL
			p.finish(ctx, session, msgID, func(m *types.Message) {
				m.MediaURL = resultURL
				m.IsGenerating = false
				m.Progress = 100
			})
			slog.Info("video generation succeeded", "task_id", taskID, "attempts", attempt)
			return StateSucceeded

		case PhaseFailed:
			reason := status.Error
			p.finish(ctx, session, msgID, func(m *types.Message) {
				m.IsGenerating = false
				m.Progress = progress
				m.Content += failureNotice + reason
			})
			slog.Warn("video generation failed", "task_id", taskID, "error", reason)
			return StateFailed

		default:
			session.UpdateMessage(msgID, func(m *types.Message) {
				m.Progress = progress
			})
		}
	}

	p.finish(ctx, session, msgID, func(m *types.Message) {
		m.IsGenerating = false
		m.Content += timeoutNotice
	})
	elapsed := time.Duration(p.maxAttempts) * p.interval
	slog.Warn("video generation timed out", "task_id", taskID, "elapsed", elapsed)
	return StateTimedOut
}

// finish applies a terminal mutation to the message and mirrors it to the
// durable sink best-effort.
func (p *Poller) finish(ctx context.Context, session *types.ConversationSession, msgID types.MessageID, fn func(*types.Message)) {
	updated := session.UpdateMessage(msgID, fn)
	if updated == nil || p.sink == nil {
		return
	}
	// The watch context may already be cancelled; the durable copy gets its
	// own short deadline.
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.sink.UpdateMessage(sinkCtx, updated); err != nil {
		slog.Warn("message sink update failed", "message_id", msgID, "error", err)
	}
}
