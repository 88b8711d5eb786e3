package backend

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type memObject struct {
	data    []byte
	modTime time.Time
}

// MemoryBackend keeps objects in a map. It is safe for concurrent use.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]memObject
	now     func() time.Time
}

var _ Backend = (*MemoryBackend)(nil)
var _ BatchDeleter = (*MemoryBackend)(nil)

func NewMemory() *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]memObject),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: slices.Clone(data), modTime: m.now()}
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if o.data == nil {
		return []byte{}, nil
	}
	return slices.Clone(o.data), nil
}

func (m *MemoryBackend) Head(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	if err := ValidateKey(key); err != nil {
		return Object{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return Object{Key: key, Size: int64(len(o.data)), LastModified: o.modTime}, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryBackend) DeleteMany(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryBackend) List(ctx context.Context, prefix, cursor string, limit int) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	limit, err := checkPage(prefix, limit)
	if err != nil {
		return ListPage{}, err
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > cursor {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var page ListPage
	for i, k := range keys {
		if i == limit {
			page.Cursor = page.Objects[len(page.Objects)-1].Key
			break
		}
		o := m.objects[k]
		page.Objects = append(page.Objects, Object{Key: k, Size: int64(len(o.data)), LastModified: o.modTime})
	}
	m.mu.RUnlock()

	return page, nil
}

// Len returns the number of stored objects.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryBackend) Close() error { return nil }
