package storage

import (
	"context"
	"sync"
	"time"

	"github.com/HatiCode/millboard/pkg/mill"
)

type entry struct {
	ds       mill.Dataset
	storedAt time.Time
}

// MemoryStore keeps datasets in process memory and is safe for concurrent
// use. With a TTL, an entry older than the TTL (measured from Put) is hidden
// from Get immediately and removed by a janitor goroutine on its next sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a store whose entries never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewMemoryStoreWithTTL creates a store that expires entries after ttl and
// sweeps every sweepEvery (1 minute if <= 0). It panics if ttl <= 0.
// Call Stop when the store is no longer needed.
func NewMemoryStoreWithTTL(ttl, sweepEvery time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("storage: TTL must be positive")
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}

	s := NewMemoryStore()
	s.ttl = ttl
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.janitor(sweepEvery)
	return s
}

func (s *MemoryStore) janitor(every time.Duration) {
	defer close(s.done)

	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, name)
		}
	}
}

// Stop ends the janitor and waits for it to exit. It is safe to call more
// than once and on a store without TTL.
func (s *MemoryStore) Stop() {
	if s.stop == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// Close calls Stop; it lets callers treat every store as an io.Closer.
func (s *MemoryStore) Close() error {
	s.Stop()
	return nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, name string, ds mill.Dataset) error {
	if err := validate(name, ds); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[name] = entry{ds: ds, storedAt: s.now()}
	s.mu.Unlock()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, name string) (mill.Dataset, bool, error) {
	if err := ctx.Err(); err != nil {
		return mill.Dataset{}, false, err
	}

	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok || s.expired(e) {
		return mill.Dataset{}, false, nil
	}
	return e.ds, true, nil
}
