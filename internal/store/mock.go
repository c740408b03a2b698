package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/models"
)

// MemoryStore is an in-memory PreferenceStore for tests. Seed bypasses the
// write gate so corrupted records can be planted.
type MemoryStore struct {
	Policy columnref.Policy

	// Error flags for testing error conditions
	ListError    error
	GetError     error
	SaveError    error
	DisableError error
	DeleteError  error

	mu      sync.Mutex
	schemas []models.ParsingSchema
	// Calls counts mutating calls by method name.
	Calls map[string]int
}

// NewMemoryStore returns an empty store using the default policy.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Policy: columnref.DefaultPolicy(), Calls: make(map[string]int)}
}

// Seed stores schemas as given, replacing records with the same key.
func (m *MemoryStore) Seed(schemas ...models.ParsingSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, schema := range schemas {
		if i := indexOf(m.schemas, schema.Key()); i >= 0 {
			m.schemas[i] = schema
		} else {
			m.schemas = append(m.schemas, schema)
		}
	}
	sortSchemas(m.schemas)
}

func (m *MemoryStore) List(ctx context.Context) ([]models.ParsingSchema, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Return a copy to avoid external modifications
	return append([]models.ParsingSchema{}, m.schemas...), nil
}

func (m *MemoryStore) Get(ctx context.Context, key models.SchemaKey) (models.ParsingSchema, error) {
	if m.GetError != nil {
		return models.ParsingSchema{}, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := indexOf(m.schemas, key); i >= 0 {
		return m.schemas[i], nil
	}
	return models.ParsingSchema{}, fmt.Errorf("%s: %w", key, ErrNotFound)
}

func (m *MemoryStore) Save(ctx context.Context, schema models.ParsingSchema) (models.ParsingSchema, error) {
	if m.SaveError != nil {
		return models.ParsingSchema{}, m.SaveError
	}
	record, err := PrepareSave(m.Policy, schema, time.Now())
	if err != nil {
		return models.ParsingSchema{}, err
	}
	m.Seed(record)
	m.count("Save")
	return record, nil
}

func (m *MemoryStore) Disable(ctx context.Context, key models.SchemaKey) error {
	if m.DisableError != nil {
		return m.DisableError
	}
	return m.mutate("Disable", key, func(i int) {
		m.schemas[i].Enabled = false
	})
}

func (m *MemoryStore) Delete(ctx context.Context, key models.SchemaKey) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	return m.mutate("Delete", key, func(i int) {
		m.schemas = append(m.schemas[:i], m.schemas[i+1:]...)
	})
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) mutate(name string, key models.SchemaKey, apply func(int)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := indexOf(m.schemas, key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	apply(i)
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
	return nil
}

func (m *MemoryStore) count(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[name]++
}
