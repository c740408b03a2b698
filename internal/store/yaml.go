package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/fileutils"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"

	"gopkg.in/yaml.v3"
)

// YAMLStore keeps every schema in a single YAML document.
type YAMLStore struct {
	path   string
	policy columnref.Policy
	logger logging.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// schemaFile is the on-disk layout.
type schemaFile struct {
	Schemas []schemaRecord `yaml:"schemas"`
}

// schemaRecord keeps column_mappings as a raw node so that one undecodable
// mapping does not prevent loading the others.
type schemaRecord struct {
	ID                  string    `yaml:"id"`
	Bank                string    `yaml:"bank_name"`
	Format              string    `yaml:"format_name"`
	ColumnMappings      yaml.Node `yaml:"column_mappings"`
	FirstTransactionRow int       `yaml:"first_transaction_row"`
	DateFormat          string    `yaml:"date_format,omitempty"`
	Currency            string    `yaml:"currency,omitempty"`
	AmountPositiveIs    string    `yaml:"amount_positive_is,omitempty"`
	Enabled             bool      `yaml:"enabled"`
	UpdatedAt           time.Time `yaml:"updated_at"`
}

// NewYAMLStore creates a store backed by the file at path. The file is created
// on first write.
func NewYAMLStore(path string, policy columnref.Policy, logger logging.Logger) *YAMLStore {
	return &YAMLStore{
		path:   path,
		policy: policy,
		logger: logger.WithFields(logging.F(logging.FieldBackend, BackendYAML), logging.F(logging.FieldFile, path)),
		now:    time.Now,
	}
}

// Path returns the backing file.
func (s *YAMLStore) Path() string { return s.path }

func (s *YAMLStore) List(ctx context.Context) ([]models.ParsingSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *YAMLStore) Get(ctx context.Context, key models.SchemaKey) (models.ParsingSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	schemas, err := s.load()
	if err != nil {
		return models.ParsingSchema{}, err
	}
	if i := indexOf(schemas, key); i >= 0 {
		return schemas[i], nil
	}
	return models.ParsingSchema{}, fmt.Errorf("%s: %w", key, ErrNotFound)
}

func (s *YAMLStore) Save(ctx context.Context, schema models.ParsingSchema) (models.ParsingSchema, error) {
	record, err := PrepareSave(s.policy, schema, s.now())
	if err != nil {
		return models.ParsingSchema{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schemas, err := s.load()
	if err != nil {
		return models.ParsingSchema{}, err
	}
	if i := indexOf(schemas, record.Key()); i >= 0 {
		schemas[i] = record
	} else {
		schemas = append(schemas, record)
	}
	if err := s.write(schemas); err != nil {
		return models.ParsingSchema{}, err
	}

	s.logger.Info("Saved parsing schema", append(keyFields(record.Key()), logging.F(logging.FieldSchemaID, record.ID))...)
	return record, nil
}

func (s *YAMLStore) Disable(ctx context.Context, key models.SchemaKey) error {
	return s.mutate(key, func(schemas []models.ParsingSchema, i int) []models.ParsingSchema {
		schemas[i].Enabled = false
		schemas[i].UpdatedAt = s.now().UTC()
		return schemas
	})
}

func (s *YAMLStore) Delete(ctx context.Context, key models.SchemaKey) error {
	return s.mutate(key, func(schemas []models.ParsingSchema, i int) []models.ParsingSchema {
		return append(schemas[:i], schemas[i+1:]...)
	})
}

// Close is a no-op; the file is only open during each call.
func (s *YAMLStore) Close() error { return nil }

func (s *YAMLStore) mutate(key models.SchemaKey, apply func([]models.ParsingSchema, int) []models.ParsingSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schemas, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(schemas, key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return s.write(apply(schemas, i))
}

func (s *YAMLStore) load() ([]models.ParsingSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Schema file not found, starting empty")
			return []models.ParsingSchema{}, nil
		}
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing schema file %s: %w", s.path, err)
	}

	schemas := make([]models.ParsingSchema, 0, len(file.Schemas))
	for _, rec := range file.Schemas {
		schemas = append(schemas, s.fromRecord(rec))
	}
	sortSchemas(schemas)
	s.logger.Debug("Loaded parsing schemas", logging.F(logging.FieldCount, len(schemas)))
	return schemas, nil
}

func (s *YAMLStore) fromRecord(rec schemaRecord) models.ParsingSchema {
	schema := models.ParsingSchema{
		ID:                  rec.ID,
		Bank:                rec.Bank,
		Format:              rec.Format,
		FirstTransactionRow: rec.FirstTransactionRow,
		DateFormat:          rec.DateFormat,
		Currency:            rec.Currency,
		AmountPositiveIs:    models.AmountSign(rec.AmountPositiveIs),
		Enabled:             rec.Enabled,
		UpdatedAt:           rec.UpdatedAt,
	}
	if rec.ColumnMappings.Kind == 0 {
		return schema
	}
	if err := rec.ColumnMappings.Decode(&schema.ColumnMappings); err != nil {
		raw, _ := yaml.Marshal(&rec.ColumnMappings)
		schema.DecodeError = err.Error()
		schema.RawMappings = string(bytes.TrimSpace(raw))
		s.logger.Warn("Stored column mappings could not be decoded",
			append(keyFields(schema.Key()), logging.F(logging.FieldValue, schema.RawMappings))...)
	}
	return schema
}

func toRecord(schema models.ParsingSchema) (schemaRecord, error) {
	rec := schemaRecord{
		ID:                  schema.ID,
		Bank:                schema.Bank,
		Format:              schema.Format,
		FirstTransactionRow: schema.FirstTransactionRow,
		DateFormat:          schema.DateFormat,
		Currency:            schema.Currency,
		AmountPositiveIs:    string(schema.AmountPositiveIs),
		Enabled:             schema.Enabled,
		UpdatedAt:           schema.UpdatedAt,
	}

	// Undecodable mappings are written back untouched.
	if schema.DecodeError != "" {
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(schema.RawMappings), &doc); err != nil {
			return rec, fmt.Errorf("error re-encoding raw mappings for %s: %w", schema.Key(), err)
		}
		if len(doc.Content) > 0 {
			rec.ColumnMappings = *doc.Content[0]
		}
		return rec, nil
	}
	if err := rec.ColumnMappings.Encode(schema.ColumnMappings); err != nil {
		return rec, fmt.Errorf("error encoding column mappings for %s: %w", schema.Key(), err)
	}
	return rec, nil
}

// write replaces the file atomically.
func (s *YAMLStore) write(schemas []models.ParsingSchema) error {
	sortSchemas(schemas)
	file := schemaFile{Schemas: make([]schemaRecord, 0, len(schemas))}
	for _, schema := range schemas {
		rec, err := toRecord(schema)
		if err != nil {
			return err
		}
		file.Schemas = append(file.Schemas, rec)
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("error marshaling schemas: %w", err)
	}

	if err := fileutils.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("error writing schema file: %w", err)
	}

	s.logger.Debug("Wrote parsing schemas", logging.F(logging.FieldCount, len(schemas)))
	return nil
}

func indexOf(schemas []models.ParsingSchema, key models.SchemaKey) int {
	for i, schema := range schemas {
		if schema.Key() == key {
			return i
		}
	}
	return -1
}

func sortSchemas(schemas []models.ParsingSchema) {
	sort.SliceStable(schemas, func(i, j int) bool {
		if schemas[i].Bank != schemas[j].Bank {
			return schemas[i].Bank < schemas[j].Bank
		}
		return schemas[i].Format < schemas[j].Format
	})
}
