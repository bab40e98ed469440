package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/bnema/marketplace-cart/internal/ports"
)

// Ledger owns the canonical in-memory cart. Every mutation updates memory
// first and then hands the resulting cart to a single background writer, so
// callers never wait on the store.
type Ledger struct {
	store  ports.KeyValueStore
	key    string
	logger *slog.Logger
	writer *snapshotWriter

	mu   sync.RWMutex
	cart domain.Cart

	hydrateOnce sync.Once
	hydrateErr  error
}

type LedgerOption func(*Ledger)

func WithStorageKey(key string) LedgerOption {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) LedgerOption {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLedger returns an empty ledger backed by store. Call Hydrate before
// handing it to consumers and Close when the session ends.
func NewLedger(store ports.KeyValueStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:  store,
		key:    CartStorageKey,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.logger = l.logger.With(slog.String("component", "cart_ledger"))
	l.writer = newSnapshotWriter(store, l.key, l.logger)

	return l
}

// Hydrate loads the stored snapshot once. Later calls return the first
// result. On a missing key the cart stays empty. On a read failure or a
// corrupt snapshot the cart also stays empty and the error is returned so
// the caller can report it; the ledger remains usable either way.
func (l *Ledger) Hydrate(ctx context.Context) error {
	l.hydrateOnce.Do(func() {
		l.hydrateErr = l.hydrate(ctx)
	})

	return l.hydrateErr
}

func (l *Ledger) hydrate(ctx context.Context) error {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			l.logger.Debug("no stored cart", slog.String("key", l.key))
			return nil
		}
		l.logger.Error("load cart snapshot", slog.String("key", l.key), slog.Any("err", err))
		return fmt.Errorf("load cart snapshot: %w", err)
	}

	cart, err := DecodeSnapshot(raw)
	if err != nil {
		l.logger.Warn("discarding stored cart", slog.String("key", l.key), slog.Any("err", err))
		return err
	}

	l.mu.Lock()
	l.cart = cart
	l.mu.Unlock()

	l.logger.Debug("cart hydrated", slog.String("key", l.key), slog.Int("items", cart.Len()))
	return nil
}

// AddToCart refuses products that could not be stored and reloaded, such as
// a blank id or a non-finite price. The refusal is logged and the cart is
// left unchanged.
func (l *Ledger) AddToCart(product domain.Product) {
	if err := product.Validate(); err != nil {
		l.logger.Warn("product not added to cart", slog.String("key", l.key), slog.Any("err", err))
		return
	}

	l.mutate(func(cart *domain.Cart) bool {
		return cart.Add(product)
	})
}

func (l *Ledger) Increment(id domain.ProductID) {
	l.mutate(func(cart *domain.Cart) bool {
		return cart.Increment(id)
	})
}

func (l *Ledger) Decrement(id domain.ProductID) {
	l.mutate(func(cart *domain.Cart) bool {
		return cart.Decrement(id)
	})
}

// Products returns the cart contents in insertion order.
func (l *Ledger) Products() []domain.LineItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.cart.Items()
}

func (l *Ledger) ItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.cart.ItemCount()
}

// Flush blocks until every mutation made so far has been written or has
// failed to be written.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.writer.flush(ctx)
}

// Close drains pending writes and stops the writer. It is safe to call more
// than once. Mutations after Close still update memory but are not persisted.
func (l *Ledger) Close(ctx context.Context) error {
	return l.writer.close(ctx)
}

// UnsavedChanges counts mutations whose snapshot has not been written yet.
func (l *Ledger) UnsavedChanges() int {
	return l.writer.backlog()
}

// LastPersistError reports the outcome of the most recent write. A later
// successful write clears it.
func (l *Ledger) LastPersistError() error {
	return l.writer.lastError()
}

// mutate applies fn and, when the cart changed, schedules the post-mutation
// cart while still holding the lock so snapshots queue in mutation order.
func (l *Ledger) mutate(fn func(*domain.Cart) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !fn(&l.cart) {
		return
	}

	if !l.writer.schedule(l.cart.Items()) {
		l.logger.Warn("cart changed after close, not persisted", slog.String("key", l.key))
	}
}
