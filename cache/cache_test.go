package cache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/quant/market"
)

// failingStore errors on every operation, simulating a broken disk.
type failingStore struct{}

func (failingStore) Load(Key) (*market.Series, error)     { return nil, errors.New("io failure") }
func (failingStore) Save(Key, *market.Series) error       { return errors.New("io failure") }
func (failingStore) Invalidate(Key) error                 { return errors.New("io failure") }
func (failingStore) InvalidateFunc(func(Key) bool) error  { return errors.New("io failure") }
func (failingStore) Close() error                         { return nil }

func TestTwoTierRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	assert.NoError(t, err)

	c := NewTwoTier(NewMemory(8), store)
	defer c.Close()

	k := keyFor("000001.SZ", 1, 10)
	in := seriesFor("000001.SZ", 1, 10)
	assert.NoError(t, c.Put(k, in))

	got, err := c.Get(k)
	assert.NoError(t, err)
	assert.Equal(t, in.Closes(), got.Closes())
}

func TestTwoTierPersistentHitPopulatesMemory(t *testing.T) {
	t.Parallel()

	store, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	assert.NoError(t, err)

	k := keyFor("000001.SZ", 1, 10)
	assert.NoError(t, store.Save(k, seriesFor("000001.SZ", 1, 10)))

	mem := NewMemory(8)
	c := NewTwoTier(mem, store)
	defer c.Close()

	_, err = c.Get(k)
	assert.NoError(t, err)

	// The hit must now be servable by the memory tier alone.
	_, ok := mem.Get(k)
	assert.True(t, ok)
}

func TestTwoTierMiss(t *testing.T) {
	t.Parallel()

	c := NewTwoTier(NewMemory(8), nil)
	_, err := c.Get(keyFor("000001.SZ", 1, 10))
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestTwoTierDegradesOnStoreFailure(t *testing.T) {
	t.Parallel()

	c := NewTwoTier(NewMemory(8), failingStore{})
	k := keyFor("000001.SZ", 1, 10)

	// Put succeeds (memory tier) even though the store fails.
	assert.NoError(t, c.Put(k, seriesFor("000001.SZ", 1, 10)))
	assert.True(t, c.Degraded())

	// Queries keep working memory-only.
	got, err := c.Get(k)
	assert.NoError(t, err)
	assert.Equal(t, 10, got.Len())
}

func TestTwoTierPutRejectsOutOfRangeBars(t *testing.T) {
	t.Parallel()

	c := NewTwoTier(NewMemory(8), nil)

	// Bars extend past the key's end date.
	k := keyFor("000001.SZ", 1, 5)
	err := c.Put(k, seriesFor("000001.SZ", 1, 10))
	assert.Error(t, err)

	_, err = c.Get(k)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestTwoTierKeyedLocks(t *testing.T) {
	t.Parallel()

	c := NewTwoTier(NewMemory(32), nil)
	k := keyFor("000001.SZ", 1, 10)

	// Racing populators must serialize per key without corrupting state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := c.Acquire(k)
			defer release()

			if _, err := c.Get(k); errors.Is(err, ErrMiss) {
				_ = c.Put(k, seriesFor("000001.SZ", 1, 10))
			}
		}()
	}
	wg.Wait()

	got, err := c.Get(k)
	assert.NoError(t, err)
	assert.Equal(t, 10, got.Len())
}

func TestTwoTierConcurrentReads(t *testing.T) {
	t.Parallel()

	c := NewTwoTier(NewMemory(32), nil)
	for i := 0; i < 8; i++ {
		sym := fmt.Sprintf("00000%d.SZ", i)
		assert.NoError(t, c.Put(keyFor(sym, 1, 10), seriesFor(sym, 1, 10)))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sym := fmt.Sprintf("00000%d.SZ", i)
			for n := 0; n < 100; n++ {
				s, err := c.Get(keyFor(sym, 1, 10))
				assert.NoError(t, err)
				assert.Equal(t, 10, s.Len())
			}
		}(i)
	}
	wg.Wait()
}
