package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"marketplace-service/internal/blob"
	"marketplace-service/internal/model"
	"marketplace-service/internal/realtime"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/config"

	"github.com/stretchr/testify/require"
)

const blobBase = "http://blobs.test"

var errInjected = errors.New("injected failure")

// flakyRepo wraps a repository and fails selected writes. Order writes are
// only intercepted inside transactions.
type flakyRepo struct {
	repository.Repository

	mu                sync.Mutex
	failItemAt        int // fail the n-th CreateOrderItem call (1-based), 0 = never
	itemCalls         int
	orderConflicts    int // CreateOrder returns ErrConflict this many times
	failCreateProduct bool
}

func (r *flakyRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	if r.failCreateProduct {
		return errInjected
	}
	return r.Repository.CreateProduct(ctx, p)
}

func (r *flakyRepo) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	return r.Repository.Transaction(ctx, func(tx repository.Repository) error {
		return fn(&txView{Repository: tx, parent: r})
	})
}

// txView routes the injected writes of a transaction through the parent
type txView struct {
	repository.Repository
	parent *flakyRepo
}

func (v *txView) CreateOrder(ctx context.Context, o *model.Order) error {
	v.parent.mu.Lock()
	if v.parent.orderConflicts > 0 {
		v.parent.orderConflicts--
		v.parent.mu.Unlock()
		return repository.ErrConflict
	}
	v.parent.mu.Unlock()
	return v.Repository.CreateOrder(ctx, o)
}

func (v *txView) CreateOrderItem(ctx context.Context, item *model.OrderItem) error {
	v.parent.mu.Lock()
	v.parent.itemCalls++
	fail := v.parent.failItemAt > 0 && v.parent.itemCalls == v.parent.failItemAt
	v.parent.mu.Unlock()
	if fail {
		return errInjected
	}
	return v.Repository.CreateOrderItem(ctx, item)
}

// flakyStore wraps the memory store and fails the n-th upload
type flakyStore struct {
	*blob.MemoryStore
	failUploadAt int
	uploads      int
}

func (s *flakyStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (blob.Object, error) {
	s.uploads++
	if s.failUploadAt > 0 && s.uploads == s.failUploadAt {
		return blob.Object{}, errInjected
	}
	return s.MemoryStore.Upload(ctx, key, contentType, r)
}

type recorder struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (r *recorder) Publish(c realtime.Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) count(table string, event realtime.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.changes {
		if c.Table == table && c.Event == event {
			n++
		}
	}
	return n
}

// last returns the most recent change on table with event
func (r *recorder) last(table string, event realtime.Event) (realtime.Change, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.changes) - 1; i >= 0; i-- {
		if c := r.changes[i]; c.Table == table && c.Event == event {
			return c, true
		}
	}
	return realtime.Change{}, false
}

type fixture struct {
	mem   *repository.MemoryRepository
	repo  *flakyRepo
	store *flakyStore
	rec   *recorder
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemory()
	f := &fixture{
		mem:   mem,
		repo:  &flakyRepo{Repository: mem},
		store: &flakyStore{MemoryStore: blob.NewMemory(blobBase)},
		rec:   &recorder{},
	}
	f.svc = New(f.repo, f.store, f.rec, testStorage())
	return f
}

func testStorage() config.StorageConfig {
	return config.StorageConfig{Driver: "memory", MaxImageBytes: 1024, PublicBaseURL: blobBase}
}

// register creates a profile for identity and returns a context carrying it
func (f *fixture) register(t *testing.T, identity string, userType model.UserType) (context.Context, *model.Profile) {
	t.Helper()
	ctx := WithIdentity(context.Background(), identity)
	profile, err := f.svc.Profiles.Register(ctx, ProfileInput{
		FullName:     identity + " name",
		BusinessName: identity + " traders",
		City:         "Pune",
		State:        "MH",
		UserType:     userType,
	})
	require.NoError(t, err)
	return ctx, profile
}

func intPtr(v int) *int { return &v }
