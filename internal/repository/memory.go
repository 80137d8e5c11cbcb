package repository

import (
	"context"
	"sync"
)

type memoryRepoImpl struct {
	m       sync.RWMutex
	entries map[string]map[string][]byte
}

// NewMemoryRepository keeps entries for the lifetime of the process only.
func NewMemoryRepository() KVRepository {
	return &memoryRepoImpl{
		entries: make(map[string]map[string][]byte),
	}
}

func (r *memoryRepoImpl) Get(_ context.Context, namespace, key string) ([]byte, error) {
	if err := checkKey(namespace, key); err != nil {
		return nil, err
	}

	r.m.RLock()
	defer r.m.RUnlock()
	value, ok := r.entries[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (r *memoryRepoImpl) Set(_ context.Context, namespace, key string, value []byte) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	r.m.Lock()
	defer r.m.Unlock()
	if r.entries[namespace] == nil {
		r.entries[namespace] = make(map[string][]byte)
	}
	r.entries[namespace][key] = append([]byte(nil), value...)
	return nil
}

func (r *memoryRepoImpl) Delete(_ context.Context, namespace, key string) error {
	if err := checkKey(namespace, key); err != nil {
		return err
	}

	r.m.Lock()
	defer r.m.Unlock()
	delete(r.entries[namespace], key)
	return nil
}
