package bot

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	DefaultQueueSize   = 16
	DefaultIdleTimeout = 5 * time.Minute
)

// ErrQueueFull is returned by Dispatch when a conversation has too many
// events waiting
var ErrQueueFull = errors.New("conversation queue is full")

// EventHandler handles one event
type EventHandler interface {
	Handle(ctx context.Context, ev Event)
}

// DispatcherOptions tune the dispatcher
type DispatcherOptions struct {
	QueueSize   int
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// Dispatcher hands events to one goroutine per conversation. Events of a
// chat are handled in arrival order; chats run concurrently.
type Dispatcher struct {
	handler     EventHandler
	queueSize   int
	idleTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	workers map[int64]*chatWorker
	wg      sync.WaitGroup
}

type chatWorker struct {
	jobs chan Event
}

// NewDispatcher creates a dispatcher for handler
func NewDispatcher(handler EventHandler, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handler:     handler,
		queueSize:   opts.QueueSize,
		idleTimeout: opts.IdleTimeout,
		logger:      logger.With("component", "dispatcher"),
		workers:     make(map[int64]*chatWorker),
	}
}

// Dispatch queues ev on its conversation, starting a worker if needed.
// Workers stop when ctx ends.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.workers[ev.ChatID]
	if !ok {
		w = &chatWorker{jobs: make(chan Event, d.queueSize)}
		d.workers[ev.ChatID] = w
		d.wg.Add(1)
		go d.run(ctx, ev.ChatID, w)
	}

	select {
	case w.jobs <- ev:
		return nil
	default:
		d.logger.Warn("conversation queue full", "chat_id", ev.ChatID, "queue_len", len(w.jobs))
		return ErrQueueFull
	}
}

// Active returns the number of running conversation workers
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Wait blocks until every worker has stopped
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, chatID int64, w *chatWorker) {
	defer d.wg.Done()

	idle := time.NewTimer(d.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case ev := <-w.jobs:
			d.handle(ctx, ev)
			resetTimer(idle, d.idleTimeout)
		case <-idle.C:
			// Enqueue happens under mu, so an empty queue here stays empty
			d.mu.Lock()
			if len(w.jobs) == 0 {
				delete(d.workers, chatID)
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			resetTimer(idle, d.idleTimeout)
		case <-ctx.Done():
			d.mu.Lock()
			if d.workers[chatID] == w {
				delete(d.workers, chatID)
			}
			d.mu.Unlock()
			return
		}
	}
}

// handle isolates a panicking conversation from the others
func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panic",
				"chat_id", ev.ChatID,
				"kind", ev.Kind,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	d.handler.Handle(ctx, ev)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
