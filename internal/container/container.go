// Package container provides dependency injection for the colmap application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/config"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/mapping"
	"fjacquet/colmap/internal/preview"
	"fjacquet/colmap/internal/remediation"
	"fjacquet/colmap/internal/resolver"
	"fjacquet/colmap/internal/sniffer"
	"fjacquet/colmap/internal/statement"
	"fjacquet/colmap/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config
	policy columnref.Policy
	store  store.PreferenceStore

	builder  *mapping.Builder
	resolver *resolver.Resolver
	scanner  *remediation.Scanner
	loader   *preview.Loader
	parser   *statement.Parser
	sniffer  *sniffer.Sniffer
}

// NewContainer creates and wires all application dependencies, opening the
// preference store configured in cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath(cfg.Store.Backend)
	}
	st, err := store.Open(cfg.Store.Backend, path, cfg.Policy(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	logger.Debug("Preference store opened",
		logging.F(logging.FieldBackend, cfg.Store.Backend),
		logging.F(logging.FieldFile, path))

	return NewContainerWith(cfg, logger, st)
}

// NewContainerWith wires the application around an existing logger and store.
// Tests use it to inject a MockLogger and an in-memory store.
func NewContainerWith(cfg *config.Config, logger logging.Logger, st store.PreferenceStore) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	policy := cfg.Policy()
	builder := mapping.NewBuilder(policy, logger)

	c := &Container{
		logger:   logger,
		config:   cfg,
		policy:   policy,
		store:    st,
		builder:  builder,
		resolver: resolver.NewResolver(policy, logger),
		scanner:  remediation.NewScanner(policy, logger, cfg.Scan.Workers),
		loader:   preview.NewLoader(cfg.DelimiterRune(), cfg.Preview.MaxRows, logger),
		parser:   statement.NewParser(logger),
		sniffer:  sniffer.New(builder, logger),
	}

	logger.Debug("Container initialized successfully",
		logging.F("max_column_index", policy.MaxColumnIndex),
		logging.F("max_reference_length", policy.MaxReferenceLength))

	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetPolicy returns the column reference policy shared by every component.
func (c *Container) GetPolicy() columnref.Policy {
	return c.policy
}

// GetStore returns the preference store.
func (c *Container) GetStore() store.PreferenceStore {
	return c.store
}

// GetBuilder returns the mapping builder.
func (c *Container) GetBuilder() *mapping.Builder {
	return c.builder
}

// GetResolver returns the mapping resolver.
func (c *Container) GetResolver() *resolver.Resolver {
	return c.resolver
}

// GetScanner returns the remediation scanner.
func (c *Container) GetScanner() *remediation.Scanner {
	return c.scanner
}

// GetLoader returns the statement preview loader.
func (c *Container) GetLoader() *preview.Loader {
	return c.loader
}

// GetParser returns the statement row parser.
func (c *Container) GetParser() *statement.Parser {
	return c.parser
}

// GetSniffer returns the column suggestion engine.
func (c *Container) GetSniffer() *sniffer.Sniffer {
	return c.sniffer
}

// Close releases the preference store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
