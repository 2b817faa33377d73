package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/listlens/listlens/internal/common"
)

// Memory is an in-process Store. Values are copied on the way in and out.
type Memory struct {
	data map[string][]byte
	mu   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, common.ErrNotFound)
	}
	return clone(v), nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = clone(value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Batch stages the writes of fn and applies them under one lock.
func (m *Memory) Batch(ctx context.Context, fn func(w Writer) error) error {
	staged := &memoryBatch{}
	if err := fn(staged); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range staged.ops {
		if op.delete {
			delete(m.data, op.key)
			continue
		}
		m.data[op.key] = op.value
	}
	return nil
}

type memoryOp struct {
	key    string
	value  []byte
	delete bool
}

type memoryBatch struct {
	ops []memoryOp
}

func (b *memoryBatch) Put(ctx context.Context, key string, value []byte) error {
	b.ops = append(b.ops, memoryOp{key: key, value: clone(value)})
	return nil
}

func (b *memoryBatch) Delete(ctx context.Context, key string) error {
	b.ops = append(b.ops, memoryOp{key: key, delete: true})
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
