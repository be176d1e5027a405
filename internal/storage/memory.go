package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process. Used by tests and by STORE_DRIVER=memory, where
// objects are served back through the API's media route.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
	base    string
}

// NewMemory returns an empty store whose public URLs start with base.
func NewMemory(base string) *Memory {
	return &Memory{objects: map[string]memObject{}, base: strings.TrimRight(base, "/")}
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return ErrObjectExists
	}
	m.objects[key] = memObject{data: data, contentType: contentType}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNoObject
	}
	return io.NopCloser(bytes.NewReader(o.data)), o.contentType, nil
}

func (m *Memory) PublicURL(key string) string {
	return m.base + "/" + key
}

// Keys lists stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
