package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory — хранилище в памяти с той же семантикой, что и Firestore:
// для тестов и локального запуска без облака.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	subs        map[string][]*memorySubscription

	// Now подменяется в тестах, когда нужен управляемый источник времени.
	Now func() time.Time
}

// NewMemory создает пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]interface{}),
		subs:        make(map[string][]*memorySubscription),
		Now:         time.Now,
	}
}

func (m *Memory) collection(name string) map[string]map[string]interface{} {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]interface{})
		m.collections[name] = c
	}
	return c
}

func (m *Memory) Query(_ context.Context, collection string, filters []Filter, order *Order) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(collection, filters, order), nil
}

func (m *Memory) queryLocked(collection string, filters []Filter, order *Order) []Document {
	var out []Document
	for id, data := range m.collection(collection) {
		if matchesAll(data, filters) {
			out = append(out, Document{ID: id, Data: copyData(data)})
		}
	}
	sortDocuments(out, order)
	return out
}

func (m *Memory) Subscribe(_ context.Context, collection string, filters []Filter, order *Order) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &memorySubscription{
		store:      m,
		collection: collection,
		filters:    filters,
		order:      order,
		ch:         make(chan Snapshot, 1),
	}
	m.subs[collection] = append(m.subs[collection], sub)
	// Первый снимок доставляется сразу, как у Firestore.
	sub.send(Snapshot{Docs: m.queryLocked(collection, filters, order)})
	return sub, nil
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collection(collection)[id]
	if !ok {
		return Document{}, fmt.Errorf("memory: %s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Data: copyData(data)}, nil
}

func (m *Memory) Add(_ context.Context, collection string, data map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.collection(collection)[id] = m.normalize(data)
	m.notifyLocked(collection)
	return id, nil
}

func (m *Memory) Update(_ context.Context, collection, id string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.collection(collection)[id]
	if !ok {
		return fmt.Errorf("memory: %s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range m.normalize(updates) {
		data[k] = v
	}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collection(collection), id)
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) BatchCreate(_ context.Context, collection string, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	for _, d := range docs {
		if _, ok := c[d.ID]; ok {
			return fmt.Errorf("memory: %s/%s: %w", collection, d.ID, ErrAlreadyExists)
		}
	}
	for _, d := range docs {
		c[d.ID] = m.normalize(d.Data)
	}
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) normalize(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = m.Now()
			continue
		}
		out[k] = v
	}
	return out
}

func (m *Memory) notifyLocked(collection string) {
	for _, sub := range m.subs[collection] {
		sub.send(Snapshot{Docs: m.queryLocked(collection, sub.filters, sub.order)})
	}
}

func (m *Memory) removeSub(target *memorySubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[target.collection]
	for i, sub := range subs {
		if sub == target {
			m.subs[target.collection] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

type memorySubscription struct {
	store      *Memory
	collection string
	filters    []Filter
	order      *Order
	ch         chan Snapshot
}

func (s *memorySubscription) Snapshots() <-chan Snapshot { return s.ch }

func (s *memorySubscription) Stop() { s.store.removeSub(s) }

// send вытесняет недоставленный снимок: подписчику важен только последний.
func (s *memorySubscription) send(snap Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func matchesAll(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		value, ok := data[f.Path]
		if !ok {
			return false
		}
		cmp, comparable := compareValues(value, f.Value)
		switch f.Op {
		case "==":
			if comparable {
				if cmp != 0 {
					return false
				}
			} else if !reflect.DeepEqual(value, f.Value) {
				return false
			}
		case ">":
			if !comparable || cmp <= 0 {
				return false
			}
		case ">=":
			if !comparable || cmp < 0 {
				return false
			}
		case "<":
			if !comparable || cmp >= 0 {
				return false
			}
		case "<=":
			if !comparable || cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortDocuments(docs []Document, order *Order) {
	if order == nil {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	sort.Slice(docs, func(i, j int) bool {
		cmp, ok := compareValues(docs[i].Data[order.Path], docs[j].Data[order.Path])
		if !ok || cmp == 0 {
			return docs[i].ID < docs[j].ID
		}
		if order.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareValues сравнивает значения полей тех типов, что встречаются в
// документах: время, числа, строки.
func compareValues(a, b interface{}) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
