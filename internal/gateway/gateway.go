package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vea-app/vea/internal/media"
	"github.com/vea-app/vea/internal/orchestrator"
	"github.com/vea-app/vea/internal/store"
	"github.com/vea-app/vea/internal/types"
)

// failedTurnReply is appended when turn processing fails outright, so the
// session history and the caller both see a coherent assistant message.
const failedTurnReply = "Sorry, something went wrong processing your message. Please try again."

// persistTimeout bounds each best-effort sink write.
const persistTimeout = 5 * time.Second

// TurnRunner runs one conversation turn against a session. Implemented by
// the orchestrator.
type TurnRunner interface {
	RunTurn(ctx context.Context, session *types.ConversationSession, utterance string, refs []string, identity types.Identity) (*orchestrator.TurnResult, error)
}

// VideoWatcher resolves an asynchronous video job. Implemented by the media
// poller.
type VideoWatcher interface {
	Watch(ctx context.Context, taskID string, session *types.ConversationSession, msgID types.MessageID) media.State
}

// Gateway turns inbound chat requests into processed turns. It resolves
// sessions, enqueues each utterance on the session's lane, runs the
// orchestrator, mirrors new messages to the durable sink, and schedules the
// video poller when a turn leaves a job in flight.
type Gateway struct {
	sessions *store.Sessions
	sink     types.MessageStore // nil runs memory-only
	runner   TurnRunner
	poller   VideoWatcher
	Queue    *Queue
	retry    *RetryPolicy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Gateway wired to the session manager and turn runner with
// the given concurrency limit for simultaneous turn processing. sink and
// poller may be nil.
func New(sessions *store.Sessions, sink types.MessageStore, runner TurnRunner, poller VideoWatcher, maxConcurrent ...int64) *Gateway {
	var concurrency int64 = 2
	if len(maxConcurrent) > 0 && maxConcurrent[0] > 0 {
		concurrency = maxConcurrent[0]
	}
	g := &Gateway{
		sessions: sessions,
		sink:     sink,
		runner:   runner,
		poller:   poller,
		Queue:    NewQueue(concurrency),
		retry:    DefaultRetryPolicy(),
	}
	g.Queue.SetProcessor(g.process)
	return g
}

// Start initialises the gateway's context and starts the internal queue.
func (g *Gateway) Start(ctx context.Context) {
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.Queue.Start(g.ctx)
}

// Stop cancels the gateway context, stops the queue, and waits for any
// outstanding work, including in-flight video watches, to finish.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	g.Queue.Stop()
	g.wg.Wait()
}

// Sessions exposes the session manager for the API layer.
func (g *Gateway) Sessions() *store.Sessions {
	return g.sessions
}

// TurnOption configures optional behavior on a Turn.
type TurnOption func(*Turn)

// WithOnComplete sets a callback invoked with the assistant reply.
func WithOnComplete(fn func(*types.Message)) TurnOption {
	return func(t *Turn) { t.OnComplete = fn }
}

// HandleInbound resolves (or creates) the session for an utterance and
// enqueues it on the session's lane. An empty sessionID starts a new
// conversation titled after the utterance.
func (g *Gateway) HandleInbound(ctx context.Context, sessionID types.SessionID, identity types.Identity, utterance string, refs []string, opts ...TurnOption) (*types.ConversationSession, error) {
	var session *types.ConversationSession
	if sessionID == "" {
		session = g.sessions.Create(ctx, identity, sessionTitle(utterance))
	} else {
		var err error
		session, err = g.sessions.Resolve(ctx, sessionID, identity)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
	}

	turn := NewTurn(session, identity, utterance, refs)
	for _, opt := range opts {
		opt(turn)
	}
	if err := g.Queue.Enqueue(turn); err != nil {
		return nil, err
	}
	return session, nil
}

// Chat is the blocking convenience over HandleInbound: it enqueues the turn
// and waits for the assistant reply or ctx cancellation.
func (g *Gateway) Chat(ctx context.Context, sessionID types.SessionID, identity types.Identity, utterance string, refs []string) (*types.ConversationSession, *types.Message, error) {
	done := make(chan *types.Message, 1)
	session, err := g.HandleInbound(ctx, sessionID, identity, utterance, refs, WithOnComplete(func(reply *types.Message) {
		done <- reply
	}))
	if err != nil {
		return nil, nil, err
	}

	select {
	case reply := <-done:
		return session, reply, nil
	case <-ctx.Done():
		return session, nil, ctx.Err()
	}
}

// process executes one dequeued turn.
func (g *Gateway) process(turn *Turn) error {
	now := time.Now()
	turn.Status = TurnStatusRunning
	turn.StartedAt = &now

	session := turn.Session
	before := session.Len()

	result, err := g.runner.RunTurn(turn.Ctx, session, turn.Utterance, turn.Refs, turn.Identity)

	var reply *types.Message
	if err != nil {
		turn.Status = TurnStatusFailed
		turn.Error = err
		reply = types.NewMessage(session.ID, types.RoleAssistant, failedTurnReply)
		session.Append(reply)
		slog.Error("turn processing failed", "turn_id", string(turn.ID), "session_id", string(session.ID), "error", err)
	} else {
		turn.Status = TurnStatusComplete
		reply = result.Reply
	}
	ended := time.Now()
	turn.EndedAt = &ended

	// Everything the turn appended gets mirrored to the sink, including the
	// user message that preceded a failed provider call.
	g.persistNew(session, before)

	// Snapshot the reply before any watcher can mutate the live message, so
	// the callback's copy is safe to encode concurrently.
	snapshot := *reply

	if err == nil && result.VideoTaskID != "" && g.poller != nil {
		g.wg.Add(1)
		go func(taskID string, msgID types.MessageID) {
			defer g.wg.Done()
			g.poller.Watch(g.ctx, taskID, session, msgID)
		}(result.VideoTaskID, reply.ID)
	}

	if turn.OnComplete != nil {
		turn.OnComplete(&snapshot)
	}
	return err
}

// persistNew mirrors messages appended since the before index to the sink.
// Persistence is best-effort: failures are retried briefly, then logged and
// dropped so the turn still completes.
func (g *Gateway) persistNew(session *types.ConversationSession, before int) {
	if g.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(g.ctx), persistTimeout)
	defer cancel()

	if err := g.retry.Execute(func() error {
		return g.sink.UpsertSession(ctx, session.Meta())
	}); err != nil {
		slog.Warn("session upsert failed", "session_id", string(session.ID), "error", err)
	}

	messages := session.Messages()
	for _, m := range messages[before:] {
		msg := m
		if err := g.retry.Execute(func() error {
			return g.sink.AppendMessage(ctx, msg)
		}); err != nil {
			slog.Warn("message persist failed", "message_id", string(msg.ID), "error", err)
		}
	}
}

// sessionTitle derives a short conversation title from the first utterance.
func sessionTitle(utterance string) string {
	const maxTitle = 48
	runes := []rune(utterance)
	if len(runes) > maxTitle {
		return string(runes[:maxTitle]) + "…"
	}
	return utterance
}
