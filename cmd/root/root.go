// Package root contains the root command for the application
package root

import (
	"fmt"
	"strings"
	"sync"

	"fjacquet/colmap/internal/config"
	"fjacquet/colmap/internal/container"
	"fjacquet/colmap/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags shared by every command
type CommonFlags struct {
	ConfigFile string
	Store      string
	LogLevel   string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "colmap",
		Short: "Manage and repair saved bank statement column mappings.",
		Long: `colmap maps the columns of bank statement files (CSV or XLSX) to transaction
fields, saves the mapping per bank and statement format, and resolves it again
when the next statement of that bank is imported.

Saved mappings must reference columns by index ("0", "1", "2"). Mappings that
hold data values such as dates or amounts are reported as corrupted; use the
scan command to find and remediate them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initContainer,
		PersistentPostRun: closeContainer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// SharedFlags holds the persistent flags accessible to all commands
	SharedFlags = CommonFlags{}

	initOnce     sync.Once
	appContainer *container.Container
)

// Init initializes the root command flags. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		Cmd.PersistentFlags().StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default searches $HOME/.colmap, .colmap and . for config.yaml)")
		Cmd.PersistentFlags().StringVar(&SharedFlags.Store, "store", "", "Preference store backend: yaml or sqlite (overrides store.backend)")
		Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides log.level)")
	})
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SetContainer installs c as the application container. Commands executed
// afterwards use it instead of building one from configuration.
func SetContainer(c *container.Container) {
	appContainer = c
}

// GetLogger returns the container's logger, or a default logger when no
// container has been built yet.
func GetLogger() logging.Logger {
	if appContainer == nil {
		return logging.NewLogrusAdapter("info", "text")
	}
	return appContainer.GetLogger()
}

// LoadConfig reads the configuration and applies the persistent flag overrides.
func LoadConfig(flags CommonFlags) (*config.Config, error) {
	cfg, err := config.InitializeConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if flags.Store != "" {
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(flags.Store))
		if cfg.Store.Backend != config.BackendYAML && cfg.Store.Backend != config.BackendSQLite {
			return nil, fmt.Errorf("invalid --store %q (must be %q or %q)", flags.Store, config.BackendYAML, config.BackendSQLite)
		}
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	return cfg, nil
}

func initContainer(cmd *cobra.Command, args []string) error {
	if appContainer != nil {
		return nil
	}
	cfg, err := LoadConfig(SharedFlags)
	if err != nil {
		return err
	}
	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if adapter, ok := c.GetLogger().(*logging.LogrusAdapter); ok {
		adapter.SetOutput(cmd.ErrOrStderr())
	}
	appContainer = c
	return nil
}

func closeContainer(cmd *cobra.Command, args []string) {
	if appContainer == nil {
		return
	}
	if err := appContainer.Close(); err != nil {
		appContainer.GetLogger().WithError(err).Warn("Failed to close application container")
	}
}
