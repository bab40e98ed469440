package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	memorystore "github.com/bnema/marketplace-cart/internal/adapters/store/memory"
	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/bnema/marketplace-cart/internal/ports"
	"github.com/bnema/marketplace-cart/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLedgerScenarioPersistsLatestState(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	ledger := newHydratedLedger(t, store)

	ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt", Price: 10, ImageURL: "u"})
	assert.Equal(t, []domain.LineItem{{ID: "A", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 1}}, ledger.Products())

	ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt", Price: 10, ImageURL: "u"})
	assert.Equal(t, 2, quantityOf(t, ledger.Products(), "A"))

	ledger.Increment("A")
	assert.Equal(t, 3, quantityOf(t, ledger.Products(), "A"))

	ledger.Decrement("A")
	assert.Equal(t, 2, quantityOf(t, ledger.Products(), "A"))

	ledger.Decrement("A")
	ledger.Decrement("A")
	assert.Equal(t, 1, quantityOf(t, ledger.Products(), "A"))

	before := ledger.Products()
	ledger.Increment("B")
	assert.Equal(t, before, ledger.Products())

	require.NoError(t, ledger.Flush(context.Background()))
	assert.Equal(t, ledger.Products(), storedItems(t, store))
}

func TestLedgerHydratesStoredSnapshot(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	require.NoError(t, store.Set(context.Background(), CartStorageKey,
		`[{"id":"B","title":"Shoe","image_url":"v","price":20,"quantity":5}]`))

	ledger := newHydratedLedger(t, store)

	assert.Equal(t, []domain.LineItem{{ID: "B", Title: "Shoe", ImageURL: "v", Price: 20, Quantity: 5}}, ledger.Products())
	assert.Equal(t, 5, ledger.ItemCount())
}

func TestLedgerHydrateMissingKeyLeavesCartEmpty(t *testing.T) {
	t.Parallel()

	ledger := newHydratedLedger(t, memorystore.NewStore())

	assert.Empty(t, ledger.Products())
}

func TestLedgerHydrateCorruptSnapshotFallsBackToEmptyCart(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	require.NoError(t, store.Set(context.Background(), CartStorageKey, `{"id":"A"`))

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })

	err := ledger.Hydrate(context.Background())
	require.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.Empty(t, ledger.Products())

	ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt"})
	require.NoError(t, ledger.Flush(context.Background()))
	assert.Equal(t, ledger.Products(), storedItems(t, store))
}

func TestLedgerHydrateStoreFailureKeepsLedgerUsable(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	readErr := errors.New("slot unavailable")
	store.EXPECT().Get(mock.Anything, CartStorageKey).Return("", readErr).Once()
	store.EXPECT().Set(mock.Anything, CartStorageKey, `[{"id":"A","title":"","image_url":"","price":0,"quantity":1}]`).Return(nil).Once()

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })

	err := ledger.Hydrate(context.Background())
	require.ErrorIs(t, err, readErr)
	assert.ErrorContains(t, err, "load cart snapshot")
	assert.Empty(t, ledger.Products())

	ledger.AddToCart(domain.Product{ID: "A"})
	require.NoError(t, ledger.Flush(context.Background()))
}

func TestLedgerHydrateRunsOnce(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Get(mock.Anything, CartStorageKey).
		Return(`[{"id":"B","title":"Shoe","image_url":"v","price":20,"quantity":5}]`, nil).Once()

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })

	require.NoError(t, ledger.Hydrate(context.Background()))
	require.NoError(t, ledger.Hydrate(context.Background()))
	assert.Len(t, ledger.Products(), 1)
}

func TestLedgerHonorsCustomStorageKey(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	ledger := NewLedger(store, WithStorageKey("@Other:cart"), WithLogger(nil))
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })
	require.NoError(t, ledger.Hydrate(context.Background()))

	ledger.AddToCart(domain.Product{ID: "A"})
	require.NoError(t, ledger.Flush(context.Background()))

	_, err := store.Get(context.Background(), CartStorageKey)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
	_, err = store.Get(context.Background(), "@Other:cart")
	require.NoError(t, err)
}

func TestLedgerSkipsWritesForNoopMutations(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	store.EXPECT().Get(mock.Anything, CartStorageKey).
		Return(`[{"id":"A","title":"Shirt","image_url":"u","price":10,"quantity":1}]`, nil).Once()

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })
	require.NoError(t, ledger.Hydrate(context.Background()))

	ledger.Increment("missing")
	ledger.Decrement("missing")
	ledger.Decrement("A")

	require.NoError(t, ledger.Flush(context.Background()))
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerWriteFailureIsRecoveredByNextMutation(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockKeyValueStore(t)
	writeErr := errors.New("disk full")
	var persisted string

	store.EXPECT().Get(mock.Anything, CartStorageKey).Return("", domain.ErrKeyNotFound).Once()
	store.EXPECT().Set(mock.Anything, CartStorageKey, mock.Anything).Return(writeErr).Once()
	store.EXPECT().Set(mock.Anything, CartStorageKey, mock.Anything).
		Run(func(_ context.Context, _ string, value string) { persisted = value }).
		Return(nil).Once()

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })
	require.NoError(t, ledger.Hydrate(context.Background()))

	ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt"})
	require.NoError(t, ledger.Flush(context.Background()))
	require.ErrorIs(t, ledger.LastPersistError(), writeErr)
	assert.Len(t, ledger.Products(), 1)

	ledger.AddToCart(domain.Product{ID: "B", Title: "Shoe"})
	require.NoError(t, ledger.Flush(context.Background()))
	require.NoError(t, ledger.LastPersistError())

	cart, err := DecodeSnapshot(persisted)
	require.NoError(t, err)
	assert.Equal(t, ledger.Products(), cart.Items())
}

func TestLedgerCoalescesWritesWithoutReordering(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	ledger := newHydratedLedger(t, store)

	ledger.AddToCart(domain.Product{ID: "A"})
	<-store.entered

	ledger.Increment("A")
	ledger.Increment("A")
	ledger.Increment("A")
	close(store.release)

	require.NoError(t, ledger.Flush(context.Background()))

	writes := store.snapshot()
	require.Len(t, writes, 2)
	assert.Equal(t, 1, quantityOf(t, decodeItems(t, writes[0]), "A"))
	assert.Equal(t, 4, quantityOf(t, decodeItems(t, writes[1]), "A"))
}

func TestLedgerConcurrentAddsAreAllCounted(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	ledger := newHydratedLedger(t, store)

	const n = 100
	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt"})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, n, quantityOf(t, ledger.Products(), "A"))

	require.NoError(t, ledger.Flush(context.Background()))
	assert.Equal(t, n, quantityOf(t, storedItems(t, store), "A"))
}

func TestLedgerCloseDrainsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	ledger := NewLedger(store)
	require.NoError(t, ledger.Hydrate(context.Background()))

	ledger.AddToCart(domain.Product{ID: "A"})
	require.NoError(t, ledger.Close(context.Background()))
	require.NoError(t, ledger.Close(context.Background()))
	assert.Equal(t, 1, quantityOf(t, storedItems(t, store), "A"))

	ledger.Increment("A")
	assert.Equal(t, 2, quantityOf(t, ledger.Products(), "A"))
	require.NoError(t, ledger.Flush(context.Background()))
	assert.Equal(t, 1, quantityOf(t, storedItems(t, store), "A"))
}

func TestLedgerFlushHonorsContext(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	ledger := newHydratedLedger(t, store)

	ledger.AddToCart(domain.Product{ID: "A"})
	<-store.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ledger.Flush(ctx), context.Canceled)

	close(store.release)
	require.NoError(t, ledger.Flush(context.Background()))
}

func TestLedgerRefusesBlankIDSoNextSessionHydrates(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	var logs bytes.Buffer

	first := NewLedger(store, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, first.Hydrate(context.Background()))

	first.AddToCart(domain.Product{ID: "A", Title: "Shirt"})
	first.AddToCart(domain.Product{ID: " ", Title: "Blank"})
	first.AddToCart(domain.Product{ID: ""})

	assert.Len(t, first.Products(), 1)
	assert.Contains(t, logs.String(), "product not added to cart")
	require.NoError(t, first.Close(context.Background()))
	require.NoError(t, first.LastPersistError())

	second := newHydratedLedger(t, store)
	assert.Equal(t, []domain.LineItem{{ID: "A", Title: "Shirt", Quantity: 1}}, second.Products())
}

func TestLedgerRefusesNonFinitePriceAndKeepsPersisting(t *testing.T) {
	t.Parallel()

	store := memorystore.NewStore()
	ledger := NewLedger(store)
	require.NoError(t, ledger.Hydrate(context.Background()))

	ledger.AddToCart(domain.Product{ID: "A", Title: "Shirt", Price: 10})
	require.NoError(t, ledger.Flush(context.Background()))

	ledger.AddToCart(domain.Product{ID: "B", Price: math.NaN()})
	ledger.AddToCart(domain.Product{ID: "C", Price: math.Inf(1)})
	ledger.Increment("A")
	require.NoError(t, ledger.Close(context.Background()))

	require.NoError(t, ledger.LastPersistError())
	assert.Equal(t, []domain.LineItem{{ID: "A", Title: "Shirt", Price: 10, Quantity: 2}}, storedItems(t, store))
}

func newHydratedLedger(t *testing.T, store ports.KeyValueStore) *Ledger {
	t.Helper()

	ledger := NewLedger(store)
	t.Cleanup(func() { _ = ledger.Close(context.Background()) })
	require.NoError(t, ledger.Hydrate(context.Background()))

	return ledger
}

func quantityOf(t *testing.T, items []domain.LineItem, id domain.ProductID) int {
	t.Helper()

	for _, item := range items {
		if item.ID == id {
			return item.Quantity
		}
	}
	t.Fatalf("item %s not in cart", id)
	return 0
}

func storedItems(t *testing.T, store *memorystore.Store) []domain.LineItem {
	t.Helper()

	raw, err := store.Get(context.Background(), CartStorageKey)
	require.NoError(t, err)
	return decodeItems(t, raw)
}

func decodeItems(t *testing.T, raw string) []domain.LineItem {
	t.Helper()

	cart, err := DecodeSnapshot(raw)
	require.NoError(t, err)
	return cart.Items()
}

// gatedStore holds the first Set until release is closed.
type gatedStore struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	writes []string
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) Get(_ context.Context, _ string) (string, error) {
	return "", domain.ErrKeyNotFound
}

func (s *gatedStore) Set(_ context.Context, _ string, value string) error {
	s.mu.Lock()
	s.writes = append(s.writes, value)
	first := len(s.writes) == 1
	s.mu.Unlock()

	if first {
		close(s.entered)
		<-s.release
	}

	return nil
}

func (s *gatedStore) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *gatedStore) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.writes))
	copy(out, s.writes)
	return out
}

func TestLedgerUnsavedChangesTracksBacklog(t *testing.T) {
	t.Parallel()

	store := newGatedStore()
	ledger := newHydratedLedger(t, store)
	assert.Zero(t, ledger.UnsavedChanges())

	ledger.AddToCart(domain.Product{ID: "A"})
	<-store.entered
	ledger.Increment("A")
	ledger.Increment("A")
	ledger.Increment("missing")
	assert.Equal(t, 3, ledger.UnsavedChanges())

	close(store.release)
	require.NoError(t, ledger.Flush(context.Background()))
	assert.Zero(t, ledger.UnsavedChanges())
}
