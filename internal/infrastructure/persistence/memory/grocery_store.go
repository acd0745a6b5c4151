package memory

import (
	"context"
	"sync"

	"cookclip/internal/core/grocery"
)

// GroceryListStore 記憶體購物清單儲存
type GroceryListStore struct {
	mu    sync.RWMutex
	lists map[string][]grocery.Item
}

var _ grocery.ListStore = (*GroceryListStore)(nil)

func NewGroceryListStore() *GroceryListStore {
	return &GroceryListStore{lists: make(map[string][]grocery.Item)}
}

func (s *GroceryListStore) Load(_ context.Context, listID string) ([]grocery.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.lists[listID]), nil
}

func (s *GroceryListStore) Save(_ context.Context, listID string, items []grocery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[listID] = cloneItems(items)
	return nil
}

func (s *GroceryListStore) Delete(_ context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, listID)
	return nil
}

func cloneItems(items []grocery.Item) []grocery.Item {
	out := make([]grocery.Item, len(items))
	for i, it := range items {
		it.RecipeIDs = append([]string{}, it.RecipeIDs...)
		out[i] = it
	}
	return out
}
