package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/glass-bazaar/internal/storage"
)

// Registry keeps one live Store per cart session. Stores are rehydrated
// from the session's namespace of the backing KV on first use and dropped
// from memory after a period without use.
type Registry struct {
	kv        storage.KV
	listeners []Listener
	now       func() time.Time

	loads singleflight.Group

	mu     sync.Mutex
	stores map[string]*entry
}

type entry struct {
	store    *Store
	lastUsed time.Time
}

// NewRegistry returns a Registry over kv. Every store it opens gets the
// given listeners attached.
func NewRegistry(kv storage.KV, listeners ...Listener) *Registry {
	return &Registry{
		kv:        kv,
		listeners: listeners,
		now:       time.Now,
		stores:    make(map[string]*entry),
	}
}

// Open returns the Store for session, loading it if it is not live.
// Concurrent first calls for one session share a single load.
func (r *Registry) Open(ctx context.Context, session string) (*Store, error) {
	if session == "" {
		return nil, errors.New("empty cart session")
	}
	if s, ok := r.touch(session); ok {
		return s, nil
	}

	v, err, _ := r.loads.Do(session, func() (any, error) {
		if s, ok := r.touch(session); ok {
			return s, nil
		}
		s, err := Open(ctx, storage.Namespace(r.kv, session))
		if err != nil {
			return nil, err
		}
		for _, l := range r.listeners {
			s.Subscribe(l)
		}

		r.mu.Lock()
		r.stores[session] = &entry{store: s, lastUsed: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open cart %s", session)
	}
	return v.(*Store), nil
}

// Live returns the number of stores held in memory.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops stores unused for longer than idle. Stores with subscribers
// beyond the registry's own listeners are kept, since someone is watching
// them, and so are stores in the middle of a checkout. It returns the number of dropped stores.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var dropped int
	for session, e := range r.stores {
		if e.lastUsed.After(cutoff) || e.store.Subscribers() > len(r.listeners) || e.store.inCheckout() {
			continue
		}
		delete(r.stores, session)
		dropped++
	}
	return dropped
}

// Run sweeps idle stores every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				lg.Debug("Evicted idle carts", zap.Int("count", n), zap.Int("live", r.Live()))
			}
		}
	}
}

func (r *Registry) touch(session string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.stores[session]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.store, true
}
