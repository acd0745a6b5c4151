package grocery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu    sync.Mutex
	lists map[string][]Item
}

func (s *mapStore) Load(_ context.Context, id string) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item{}, s.lists[id]...), nil
}

func (s *mapStore) Save(_ context.Context, id string, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[id] = append([]Item{}, items...)
	return nil
}

func (s *mapStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, id)
	return nil
}

func lockCount(l *Lists) int {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	return len(l.locks)
}

func TestListLocksSerializeAndEvict(t *testing.T) {
	l := NewLists(&mapStore{lists: map[string][]Item{}}, nil, nil, nil)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "a"
			if i%2 == 0 {
				id = "b"
			}
			unlock := l.lock(id)
			if id == "a" {
				n := atomic.AddInt32(&inFlight, 1)
				if n > atomic.LoadInt32(&peak) {
					atomic.StoreInt32(&peak, n)
				}
				atomic.AddInt32(&inFlight, -1)
			}
			unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.Zero(t, lockCount(l))
}

func TestListOperationsReleaseLocks(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{lists: map[string][]Item{
		"home": {{ID: "1", Name: "garlic", Quantity: 1, RecipeIDs: []string{}}},
	}}
	l := NewLists(store, nil, nil, nil)

	_, err := l.Toggle(ctx, "home", "1")
	require.NoError(t, err)
	_, err = l.Remove(ctx, "home", "missing")
	require.Error(t, err)
	require.NoError(t, l.ClearAll(ctx, "home"))

	for i := 0; i < 20; i++ {
		require.NoError(t, l.ClearAll(ctx, "list-"+string(rune('a'+i))))
	}
	assert.Zero(t, lockCount(l))
}
