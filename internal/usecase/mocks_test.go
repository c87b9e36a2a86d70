//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/model"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/adapter"
	"github.com/PsyDak-Meng/Dukira-web-hook/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// memTaskRepo is a small in-memory implementation used by unit tests.
type memTaskRepo struct {
	mu      sync.Mutex
	store   map[string]*model.ImageTask // by task ID
	saveErr error                       // simulate persistence failures
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{store: make(map[string]*model.ImageTask)}
}

func (m *memTaskRepo) Save(ctx context.Context, tx repository.Tx, task *model.ImageTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *task
	m.store[task.ID] = &cp
	return nil
}

func (m *memTaskRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ImageTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTaskRepo) FindByImageRef(ctx context.Context, tx repository.Tx, storeID, imageRef string) (*model.ImageTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.store {
		if t.StoreID == storeID && t.ImageRef == imageRef {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTaskRepo) FindByProduct(ctx context.Context, tx repository.Tx, productID string) ([]*model.ImageTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ImageTask
	for _, t := range m.store {
		if t.ProductID == productID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTaskRepo) FetchAndMarkProcessing(ctx context.Context) (*model.ImageTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.ImageTask
	for _, t := range m.store {
		if t.Status != model.ImageStatusPending {
			continue
		}
		if oldest == nil || t.ID < oldest.ID {
			oldest = t
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = model.ImageStatusProcessing
	oldest.UpdatedAt = time.Now()
	cp := *oldest
	return &cp, nil
}

func (m *memTaskRepo) CountByStatus(ctx context.Context, tx repository.Tx, jobID string) (model.JobCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts model.JobCounts
	for _, t := range m.store {
		if jobID != "" && t.JobID != jobID {
			continue
		}
		switch t.Status {
		case model.ImageStatusPending:
			counts.Pending++
		case model.ImageStatusProcessing:
			counts.Processing++
		case model.ImageStatusApproved:
			counts.Approved++
		case model.ImageStatusRejected:
			counts.Rejected++
		case model.ImageStatusStored:
			counts.Stored++
		}
	}
	return counts, nil
}

// get returns the stored copy for assertions.
func (m *memTaskRepo) get(id string) *model.ImageTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.store[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// memJobRepo provides in-memory sync jobs for tests.
type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.SyncJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[string]*model.SyncJob)}
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.SyncJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) LastCompletedAt(ctx context.Context, tx repository.Tx, storeID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	for _, j := range m.jobs {
		if j.StoreID == storeID && j.CompletedAt != nil && j.CompletedAt.After(last) {
			last = *j.CompletedAt
		}
	}
	return last, nil
}

// memDupIndex implements insert-if-absent duplicate semantics in memory.
type memDupIndex struct {
	mu      sync.Mutex
	entries map[string]*repository.DuplicateEntry
}

func newMemDupIndex() *memDupIndex {
	return &memDupIndex{entries: make(map[string]*repository.DuplicateEntry)}
}

func (m *memDupIndex) Lookup(ctx context.Context, hash string) (*repository.DuplicateEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[hash]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memDupIndex) Record(ctx context.Context, hash, locator, taskID string) (*repository.DuplicateEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[hash]; ok {
		cp := *e
		return &cp, false, nil
	}
	e := &repository.DuplicateEntry{ContentHash: hash, StorageLocator: locator, TaskID: taskID}
	m.entries[hash] = e
	cp := *e
	return &cp, true, nil
}

// ---- Fakes ----

// fakeFetcher serves canned images or errors per URL, counting calls.
type fakeFetcher struct {
	mu     sync.Mutex
	images map[string]*adapter.FetchedImage
	errs   map[string]error
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		images: make(map[string]*adapter.FetchedImage),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeFetcher) serve(url string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[url] = &adapter.FetchedImage{Data: data, Width: 500, Height: 500, ContentType: "image/png"}
}

func (f *fakeFetcher) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*adapter.FetchedImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if img, ok := f.images[url]; ok {
		cp := *img
		return &cp, nil
	}
	return nil, domain.NewFetchError(domain.KindInvalid, domain.ErrNotFound)
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// fakeScorer returns a fixed score, a canned error, or both in sequence.
type fakeScorer struct {
	mu    sync.Mutex
	score float64
	err   error
	calls int
}

func (f *fakeScorer) Name() string { return "fake" }

func (f *fakeScorer) Score(ctx context.Context, image []byte, meta adapter.ImageMeta) (adapter.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return adapter.Score{}, f.err
	}
	return adapter.Score{
		Value:    f.score,
		Analysis: model.Analysis{"quality": "synthetic", "model_used": f.Name()},
	}, nil
}

func (f *fakeScorer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore counts durable writes and can fail a number of leading attempts.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string // key -> locator
	puts      int
	failTimes int
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string)}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return "", f.failWith
	}
	if loc, ok := f.objects[key]; ok {
		return loc, nil // idempotent: no second durable write
	}
	loc := "mem://" + key
	f.objects[key] = loc
	f.puts++
	return loc, nil
}

func (f *fakeStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// fakeCatalog enumerates a fixed set of references.
type fakeCatalog struct {
	refs      []adapter.ProductImageRef
	sinceRefs []adapter.ProductImageRef
	lastSince time.Time
}

func (f *fakeCatalog) ListProductImages(ctx context.Context, storeID string) ([]adapter.ProductImageRef, error) {
	return f.refs, nil
}

func (f *fakeCatalog) ListProductImagesSince(ctx context.Context, storeID string, since time.Time) ([]adapter.ProductImageRef, error) {
	f.lastSince = since
	return f.sinceRefs, nil
}
