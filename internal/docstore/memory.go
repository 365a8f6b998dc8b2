// ABOUTME: In-memory Driver implementation for tests and ephemeral deployments
// ABOUTME: Single mutex makes every call atomic; enforces unique indexes like the SQL drivers

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

type memCollection struct {
	docs    map[string]map[string]any
	order   []string // insertion order, ids
	indexes []Index
}

// MemoryDriver keeps documents in process memory.
type MemoryDriver struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

// Ensure MemoryDriver implements Driver.
var _ Driver = (*MemoryDriver)(nil)

// NewMemoryDriver creates an empty MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{collections: make(map[string]*memCollection)}
}

// Register creates the collection if needed and records its indexes.
func (m *MemoryDriver) Register(ctx context.Context, collection string, indexes []Index) error {
	if err := checkIndexes(collection, indexes); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	for _, idx := range indexes {
		if !hasIndex(c.indexes, idx.Name) {
			c.indexes = append(c.indexes, idx)
		}
	}
	return nil
}

func hasIndex(indexes []Index, name string) bool {
	for _, idx := range indexes {
		if idx.Name == name {
			return true
		}
	}
	return false
}

// collection must be called with mu held for writing.
func (m *MemoryDriver) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]map[string]any)}
		m.collections[name] = c
	}
	return c
}

// Insert stores body under id.
func (m *MemoryDriver) Insert(ctx context.Context, collection, id string, body []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decoding document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("%w: id %s", ErrDuplicate, id)
	}
	if err := c.checkUnique(id, doc); err != nil {
		return err
	}

	c.docs[id] = doc
	c.order = append(c.order, id)
	return nil
}

// FindOne returns the earliest inserted match.
func (m *MemoryDriver) FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, ErrNoMatch
	}
	id, ok := c.first(filter)
	if !ok {
		return nil, ErrNoMatch
	}
	return json.Marshal(c.docs[id])
}

// Find returns every match, ordered by opts.Sort or insertion order.
func (m *MemoryDriver) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return [][]byte{}, nil
	}

	var matched []map[string]any
	for _, id := range c.order {
		if doc := c.docs[id]; matches(doc, filter) {
			matched = append(matched, doc)
		}
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, s := range opts.Sort {
				cmp := compareValues(matched[i][s.Field], matched[j][s.Field])
				if cmp == 0 {
					continue
				}
				if s.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([][]byte, 0, len(matched))
	for _, doc := range matched {
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encoding document: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Update merges fields into the first match.
func (m *MemoryDriver) Update(ctx context.Context, collection string, filter Filter, fields Fields) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	set, err := normalizeFields(fields)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return false, nil
	}
	id, ok := c.first(filter)
	if !ok {
		return false, nil
	}

	next := make(map[string]any, len(c.docs[id])+len(set))
	for k, v := range c.docs[id] {
		next[k] = v
	}
	for k, v := range set {
		next[k] = v
	}
	if err := c.checkUnique(id, next); err != nil {
		return true, err
	}
	c.docs[id] = next
	return true, nil
}

// Delete removes the first match.
func (m *MemoryDriver) Delete(ctx context.Context, collection string, filter Filter) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return false, nil
	}
	id, ok := c.first(filter)
	if !ok {
		return false, nil
	}
	c.remove(id)
	return true, nil
}

// DeleteMany removes every match.
func (m *MemoryDriver) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	if err := checkFilter(filter); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return 0, nil
	}

	var victims []string
	for _, id := range c.order {
		if matches(c.docs[id], filter) {
			victims = append(victims, id)
		}
	}
	for _, id := range victims {
		c.remove(id)
	}
	return int64(len(victims)), nil
}

// AddToSet appends value to the list field of the first match.
func (m *MemoryDriver) AddToSet(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error) {
	return m.editList(collection, filter, field, at, func(list []any) []any {
		for _, v := range list {
			if v == value {
				return nil
			}
		}
		return append(list, value)
	})
}

// Pull removes value from the list field of the first match.
func (m *MemoryDriver) Pull(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error) {
	return m.editList(collection, filter, field, at, func(list []any) []any {
		kept := make([]any, 0, len(list))
		for _, v := range list {
			if v != value {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(list) {
			return nil
		}
		return kept
	})
}

// editList applies edit to the list field; a nil result means unchanged.
func (m *MemoryDriver) editList(collection string, filter Filter, field string, at time.Time, edit func([]any) []any) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	if err := checkName("field", field); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return false, nil
	}
	id, ok := c.first(filter)
	if !ok {
		return false, nil
	}

	doc := c.docs[id]
	list, _ := doc[field].([]any)
	next := edit(list)
	if next == nil {
		return true, nil
	}

	updated := make(map[string]any, len(doc))
	for k, v := range doc {
		updated[k] = v
	}
	updated[field] = next
	updated["dateUpdated"] = at.Format(time.RFC3339Nano)
	c.docs[id] = updated
	return true, nil
}

// Close is a no-op.
func (m *MemoryDriver) Close() error { return nil }

func (c *memCollection) first(filter Filter) (string, bool) {
	for _, id := range c.order {
		if matches(c.docs[id], filter) {
			return id, true
		}
	}
	return "", false
}

func (c *memCollection) remove(id string) {
	delete(c.docs, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// checkUnique reports ErrDuplicate if doc collides with another document on any index.
func (c *memCollection) checkUnique(id string, doc map[string]any) error {
	for _, idx := range c.indexes {
		key, ok := indexKey(doc, idx)
		if !ok {
			continue
		}
		for otherID, other := range c.docs {
			if otherID == id {
				continue
			}
			if otherKey, ok := indexKey(other, idx); ok && otherKey == key {
				return fmt.Errorf("%w: index %s", ErrDuplicate, idx.Name)
			}
		}
	}
	return nil
}

func indexKey(doc map[string]any, idx Index) (string, bool) {
	parts := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		v, ok := doc[f]
		if !ok || v == nil {
			return "", false
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		parts[i] = string(b)
	}
	return strings.Join(parts, "\x00"), true
}

func matches(doc map[string]any, filter Filter) bool {
	for field, want := range filter {
		got := doc[field]
		if set, ok := want.(Membership); ok {
			found := false
			for _, v := range set {
				if equalValues(got, v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !equalValues(got, want) {
			return false
		}
	}
	return true
}

// equalValues compares a decoded JSON value with a Go filter value.
func equalValues(got, want any) bool {
	norm, err := normalize(want)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(got, norm)
}

// normalize round-trips v through JSON so it compares like stored values.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeFields(fields Fields) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if err := checkName("field", k); err != nil {
			return nil, err
		}
		n, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("encoding field %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// compareValues orders decoded JSON scalars; nil sorts first.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
