// Package vaulttest provides an in-memory vault.Store for tests.
package vaulttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"restaurant-ops/internal/vault"
)

var _ vault.Store = (*Memory)(nil)

// Object is one blob held by Memory.
type Object struct {
	Body        []byte
	ContentType string
}

type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
}

func NewMemory() *Memory { return &Memory{objects: map[string]Object{}} }

func (m *Memory) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = Object{Body: buf.Bytes(), ContentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Objects() map[string]Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.objects)
}
