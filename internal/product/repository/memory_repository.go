package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/platform/metrics"
	"github.com/ridloal/product-dashboard/internal/product/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Operation names a store call; used for metrics, logs and fault injection.
type Operation string

const (
	OpFetch  Operation = "fetch"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type ProductRepository interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, fields domain.ProductFields) (*domain.Product, error)
	Update(ctx context.Context, product domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type Option func(*memoryProductRepository)

// WithLatency sets the simulated round-trip applied to create, update and delete.
func WithLatency(d time.Duration) Option {
	return func(r *memoryProductRepository) { r.latency = d }
}

// WithSeed sets the source used to populate an empty store on its first fetch.
func WithSeed(seed SeedSource) Option {
	return func(r *memoryProductRepository) { r.seed = seed }
}

func WithClock(now func() time.Time) Option {
	return func(r *memoryProductRepository) { r.now = now }
}

// WithFaultInjector makes an operation fail with the returned error, leaving the list untouched.
func WithFaultInjector(fault func(op Operation) error) Option {
	return func(r *memoryProductRepository) { r.fault = fault }
}

type memoryProductRepository struct {
	mu       sync.RWMutex
	products []domain.Product
	seeded   bool
	lastID   int64

	latency time.Duration
	seed    SeedSource
	now     func() time.Time
	fault   func(op Operation) error
}

func NewMemoryProductRepository(opts ...Option) ProductRepository {
	r := &memoryProductRepository{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *memoryProductRepository) FetchAll(ctx context.Context) (products []domain.Product, err error) {
	defer observe(OpFetch, time.Now(), &err)

	if err := r.injected(OpFetch); err != nil {
		return nil, err
	}
	if err := r.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	products = make([]domain.Product, len(r.products))
	copy(products, r.products)
	return products, nil
}

func (r *memoryProductRepository) Create(ctx context.Context, fields domain.ProductFields) (created *domain.Product, err error) {
	defer observe(OpCreate, time.Now(), &err)

	if err := r.roundTrip(ctx, OpCreate); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	p := fields.WithID(r.nextID())
	r.products = append(r.products, p)
	return &p, nil
}

func (r *memoryProductRepository) Update(ctx context.Context, product domain.Product) (updated *domain.Product, err error) {
	defer observe(OpUpdate, time.Now(), &err)

	if err := r.roundTrip(ctx, OpUpdate); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(product.ID)
	if idx < 0 {
		return nil, ErrProductNotFound
	}
	r.products[idx] = product
	p := r.products[idx]
	return &p, nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id int64) (err error) {
	defer observe(OpDelete, time.Now(), &err)

	if err := r.roundTrip(ctx, OpDelete); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrProductNotFound
	}
	r.products = append(r.products[:idx], r.products[idx+1:]...)
	return nil
}

// indexOf is a linear search; callers hold the lock.
func (r *memoryProductRepository) indexOf(id int64) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID derives the id from the clock and bumps it past the last issued one,
// so two creates within the same millisecond still get distinct ids.
func (r *memoryProductRepository) nextID() int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	r.lastID = id
	return id
}

func (r *memoryProductRepository) ensureSeeded(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seeded || r.seed == nil || len(r.products) > 0 {
		return nil
	}

	seed, err := r.seed.LoadSeed(ctx)
	if err != nil {
		logger.Error("MemoryRepo.FetchAll: seed load failed", err, nil)
		return fmt.Errorf("failed to load seed products: %w", err)
	}
	r.products = append(r.products[:0], seed...)
	for _, p := range seed {
		if p.ID > r.lastID {
			r.lastID = p.ID
		}
	}
	r.seeded = true
	logger.Info("MemoryRepo: seeded %d products", len(seed))
	return nil
}

// roundTrip waits out the simulated latency and then applies any injected fault.
// The list is only touched after it returns nil, so a cancelled call changes nothing.
func (r *memoryProductRepository) roundTrip(ctx context.Context, op Operation) error {
	if r.latency > 0 {
		timer := time.NewTimer(r.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.injected(op)
}

func (r *memoryProductRepository) injected(op Operation) error {
	if r.fault == nil {
		return nil
	}
	return r.fault(op)
}

func observe(op Operation, start time.Time, err *error) {
	metrics.ObserveStoreOperation(string(op), time.Since(start), *err)
}
