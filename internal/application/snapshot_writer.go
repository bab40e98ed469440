package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/bnema/marketplace-cart/internal/ports"
)

var ErrLedgerClosed = errors.New("cart ledger is closed")

// snapshotWriter is the single goroutine allowed to write the cart slot.
// Pending snapshots are coalesced: only the newest one is kept, so writes
// land in the order they were scheduled and never go backwards.
type snapshotWriter struct {
	store  ports.KeyValueStore
	key    string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	pending    []domain.LineItem
	hasPending bool
	scheduled  uint64
	completed  uint64
	lastErr    error
	closed     bool
	waiters    []flushWaiter
}

type flushWaiter struct {
	seq uint64
	ch  chan struct{}
}

func newSnapshotWriter(store ports.KeyValueStore, key string, logger *slog.Logger) *snapshotWriter {
	ctx, cancel := context.WithCancel(context.Background())

	w := &snapshotWriter{
		store:  store,
		key:    key,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	go w.run()

	return w
}

// schedule queues items as the next snapshot to persist. It never blocks.
func (w *snapshotWriter) schedule(items []domain.LineItem) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = items
	w.hasPending = true
	w.scheduled++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	return true
}

// flush waits until every snapshot scheduled before the call was written.
func (w *snapshotWriter) flush(ctx context.Context) error {
	w.mu.Lock()
	if w.completed >= w.scheduled {
		w.mu.Unlock()
		return nil
	}
	waiter := flushWaiter{seq: w.scheduled, ch: make(chan struct{})}
	w.waiters = append(w.waiters, waiter)
	w.mu.Unlock()

	select {
	case <-waiter.ch:
		return nil
	case <-w.done:
		return ErrLedgerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *snapshotWriter) close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.flush(ctx)
	w.cancel()
	<-w.done

	w.logger.Debug("cart writer stopped", slog.String("key", w.key))

	return err
}

// backlog is the number of scheduled snapshots not yet written. Coalesced
// snapshots count individually until the write that covers them finishes.
func (w *snapshotWriter) backlog() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return int(w.scheduled - w.completed)
}

func (w *snapshotWriter) lastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastErr
}

func (w *snapshotWriter) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.wake:
		}

		for {
			w.mu.Lock()
			if !w.hasPending {
				w.mu.Unlock()
				break
			}
			items, seq := w.pending, w.scheduled
			w.pending, w.hasPending = nil, false
			w.mu.Unlock()

			err := w.write(items)

			w.mu.Lock()
			w.completed = seq
			w.lastErr = err
			w.releaseWaiters()
			w.mu.Unlock()
		}
	}
}

func (w *snapshotWriter) write(items []domain.LineItem) error {
	value, err := EncodeSnapshot(items)
	if err != nil {
		w.logger.Error("cart snapshot not persisted", slog.String("key", w.key), slog.Any("err", err))
		return err
	}

	if err := w.store.Set(w.ctx, w.key, value); err != nil {
		w.logger.Error("cart snapshot not persisted", slog.String("key", w.key), slog.Any("err", err))
		return err
	}

	w.logger.Debug("cart snapshot persisted", slog.String("key", w.key), slog.Int("items", len(items)))
	return nil
}

// releaseWaiters must be called with mu held.
func (w *snapshotWriter) releaseWaiters() {
	remaining := w.waiters[:0]
	for _, waiter := range w.waiters {
		if waiter.seq <= w.completed {
			close(waiter.ch)
			continue
		}
		remaining = append(remaining, waiter)
	}
	w.waiters = remaining
}
