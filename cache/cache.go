package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustyeddy/quant/market"
)

var (
	// ErrMiss reports that neither tier holds the requested key.
	ErrMiss = errors.New("cache miss")

	// ErrDegraded reports that the persistent tier is unreachable and the
	// cache is running memory-only for the rest of the session.
	ErrDegraded = errors.New("cache degraded: persistent tier unavailable")
)

// Store is the durable tier contract. SQLite implements it; tests may
// substitute their own.
type Store interface {
	Load(Key) (*market.Series, error)
	Save(Key, *market.Series) error
	Invalidate(Key) error
	InvalidateFunc(func(Key) bool) error
	Close() error
}

// TwoTier composes the memory tier and an optional persistent tier.
// A persistent-tier hit populates the memory tier before returning.
// Persistent-tier I/O failures degrade the cache to memory-only for the
// rest of the session; they are never fatal to a single query.
type TwoTier struct {
	mem   *Memory
	store Store

	lockMu   sync.Mutex
	keyLocks map[Key]*sync.Mutex

	degraded atomic.Bool
	log      *logrus.Entry
}

func NewTwoTier(mem *Memory, store Store) *TwoTier {
	if mem == nil {
		mem = NewMemory(DefaultCapacity)
	}
	return &TwoTier{
		mem:      mem,
		store:    store,
		keyLocks: make(map[Key]*sync.Mutex),
		log:      logrus.WithField("component", "cache"),
	}
}

// Get resolves key through both tiers. A miss returns ErrMiss.
func (c *TwoTier) Get(key Key) (*market.Series, error) {
	if s, ok := c.mem.Get(key); ok {
		return s, nil
	}

	if c.store == nil || c.degraded.Load() {
		return nil, ErrMiss
	}

	s, err := c.store.Load(key)
	if errors.Is(err, ErrMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		c.degrade(err)
		return nil, ErrMiss
	}

	c.mem.Put(key, s)
	return s, nil
}

// Put stores the series in both tiers. The series must hold only bars
// inside the key's date range; anything else would break the invariant
// that a cached series reflects exactly the dates its key implies.
func (c *TwoTier) Put(key Key, s *market.Series) error {
	if err := checkRange(key, s); err != nil {
		return err
	}

	c.mem.Put(key, s)

	if c.store == nil || c.degraded.Load() {
		return nil
	}
	if err := c.store.Save(key, s); err != nil {
		c.degrade(err)
	}
	return nil
}

// Invalidate drops the exact key from both tiers.
func (c *TwoTier) Invalidate(key Key) {
	c.mem.Invalidate(key)
	if c.store == nil || c.degraded.Load() {
		return
	}
	if err := c.store.Invalidate(key); err != nil {
		c.degrade(err)
	}
}

// InvalidateFunc drops every key matching pred from both tiers.
func (c *TwoTier) InvalidateFunc(pred func(Key) bool) {
	c.mem.InvalidateFunc(pred)
	if c.store == nil || c.degraded.Load() {
		return
	}
	if err := c.store.InvalidateFunc(pred); err != nil {
		c.degrade(err)
	}
}

// Acquire takes the write lock for one key and returns its release func.
// Two runs racing on the same miss serialize here; distinct keys never
// contend.
func (c *TwoTier) Acquire(key Key) (release func()) {
	c.lockMu.Lock()
	l, ok := c.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		c.keyLocks[key] = l
	}
	c.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Degraded reports whether the persistent tier has been abandoned for
// this session.
func (c *TwoTier) Degraded() bool { return c.degraded.Load() }

func (c *TwoTier) Stats() MemoryStats { return c.mem.Stats() }

func (c *TwoTier) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *TwoTier) degrade(cause error) {
	if c.degraded.CompareAndSwap(false, true) {
		c.log.WithError(cause).Warn(ErrDegraded.Error())
	}
}

func checkRange(key Key, s *market.Series) error {
	start, end := key.StartTime(), key.EndTime()
	for _, b := range s.Bars {
		if b.Time.Before(start) || b.Time.After(end) {
			return fmt.Errorf("cache put %s: bar at %s outside key range",
				key, b.Time.Format("2006-01-02"))
		}
	}
	return nil
}

func timeFromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}
