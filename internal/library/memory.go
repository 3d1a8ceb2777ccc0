package library

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Memory is an in-process Library. Items are returned in insertion order.
type Memory struct {
	mu      sync.Mutex
	items   map[string]Item
	order   []string
	updates []Item
	failOn  map[string]error
	now     func() time.Time
}

// NewMemory returns an empty Memory library.
func NewMemory() *Memory {
	return &Memory{
		items:  make(map[string]Item),
		failOn: make(map[string]error),
		now:    time.Now,
	}
}

// Add inserts or replaces item.
func (m *Memory) Add(items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		if _, ok := m.items[item.ID]; !ok {
			m.order = append(m.order, item.ID)
		}
		m.items[item.ID] = cloneItem(item)
	}
}

// FailUpdates makes UpdateItem return err for the given item id.
func (m *Memory) FailUpdates(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[id] = err
}

// Get returns a copy of the stored item.
func (m *Memory) Get(id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	return cloneItem(item), ok
}

// Updates returns every successful write in order.
func (m *Memory) Updates() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.updates))
	copy(out, m.updates)
	return out
}

// Shows implements Library.
func (m *Memory) Shows(ctx context.Context) ([]Item, error) {
	return m.list(ctx, KindShow, "")
}

// Seasons implements Library.
func (m *Memory) Seasons(ctx context.Context, showID string) ([]Item, error) {
	return m.list(ctx, KindSeason, showID)
}

// Episodes implements Library.
func (m *Memory) Episodes(ctx context.Context, seasonID string) ([]Item, error) {
	return m.list(ctx, KindEpisode, seasonID)
}

// UpdateItem implements Library. Only index fields are persisted.
func (m *Memory) UpdateItem(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[item.ID]; err != nil {
		return err
	}
	stored, ok := m.items[item.ID]
	if !ok {
		return fmt.Errorf("item %s not found", item.ID)
	}
	stored.IndexNumber = copyInt(item.IndexNumber)
	stored.ParentIndexNumber = copyInt(item.ParentIndexNumber)
	stored.DateLastSaved = m.now()
	m.items[item.ID] = stored
	m.updates = append(m.updates, cloneItem(stored))
	return nil
}

func (m *Memory) list(ctx context.Context, kind Kind, parentID string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Item
	for _, id := range m.order {
		item := m.items[id]
		if item.Kind != kind {
			continue
		}
		if parentID != "" && item.ParentID != parentID {
			continue
		}
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func cloneItem(item Item) Item {
	item.IndexNumber = copyInt(item.IndexNumber)
	item.ParentIndexNumber = copyInt(item.ParentIndexNumber)
	if item.PremiereDate != nil {
		t := *item.PremiereDate
		item.PremiereDate = &t
	}
	item.ProviderIDs = maps.Clone(item.ProviderIDs)
	return item
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

