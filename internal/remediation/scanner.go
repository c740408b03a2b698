// Package remediation finds stored parsing schemas whose column mappings hold
// data values instead of column indices, and optionally disables or deletes
// them.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"fjacquet/colmap/internal/columnref"
	"fjacquet/colmap/internal/logging"
	"fjacquet/colmap/internal/models"
	"fjacquet/colmap/internal/store"

	"golang.org/x/sync/errgroup"
)

// Mode selects what Run does with corrupted schemas.
type Mode string

const (
	ModeDryRun  Mode = "dry_run"
	ModeDisable Mode = "disable"
	ModeDelete  Mode = "delete"
)

// ModeFromFlags maps the operator flags onto a mode. delete only applies
// outside a dry run.
func ModeFromFlags(dryRun, del bool) Mode {
	switch {
	case dryRun:
		return ModeDryRun
	case del:
		return ModeDelete
	default:
		return ModeDisable
	}
}

// Action records what happened to a corrupted schema.
type Action string

const (
	ActionReported        Action = "reported"
	ActionDisabled        Action = "disabled"
	ActionDeleted         Action = "deleted"
	ActionAlreadyDisabled Action = "already_disabled"
	// ActionSkipped means the record changed between scan and mutation and
	// was no longer corrupted, or no longer exists.
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Entry is the scan result for one schema.
type Entry struct {
	Bank     string                  `json:"bank_name"`
	Format   string                  `json:"format_name"`
	Name     string                  `json:"schema_name"`
	SchemaID string                  `json:"schema_id"`
	State    models.SchemaState      `json:"state"`
	Issues   models.CorruptionReport `json:"issues,omitempty"`
	Action   Action                  `json:"action,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Key returns the store key of the scanned schema.
func (e Entry) Key() models.SchemaKey {
	return models.SchemaKey{Bank: e.Bank, Format: e.Format}
}

// Scanner evaluates schemas against a validation policy.
type Scanner struct {
	policy  columnref.Policy
	logger  logging.Logger
	workers int
	now     func() time.Time
}

// NewScanner creates a Scanner evaluating up to workers schemas at once.
// workers <= 0 uses the number of CPUs.
func NewScanner(policy columnref.Policy, logger logging.Logger, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		policy:  policy,
		logger:  logger.WithField(logging.FieldComponent, "remediation"),
		workers: workers,
		now:     time.Now,
	}
}

// ScanAll partitions schemas into clean and corrupted entries. It never
// mutates anything; the returned report is in dry-run mode.
func (s *Scanner) ScanAll(schemas []models.ParsingSchema) *ScanReport {
	entries := make([]Entry, len(schemas))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range schemas {
		g.Go(func() error {
			entries[i] = s.evaluate(schemas[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &ScanReport{Mode: ModeDryRun, ScannedAt: s.now().UTC(), Scanned: len(schemas)}
	for _, e := range entries {
		if len(e.Issues) == 0 {
			report.Clean = append(report.Clean, e)
			continue
		}
		e.Action = ActionReported
		report.Corrupted = append(report.Corrupted, e)
	}

	s.logger.Info("Scanned parsing schemas",
		logging.F(logging.FieldCount, report.Scanned),
		logging.F("clean", len(report.Clean)),
		logging.F("corrupted", len(report.Corrupted)))
	return report
}

func (s *Scanner) evaluate(schema models.ParsingSchema) Entry {
	return Entry{
		Bank:     schema.Bank,
		Format:   schema.Format,
		Name:     schema.Name(),
		SchemaID: schema.ID,
		State:    schema.State(),
		Issues:   s.policy.CollectSchemaIssues(schema),
	}
}

// Run scans every schema in st and applies mode to the corrupted ones. Each
// record is re-read and re-validated right before it is mutated; clean
// schemas are never touched. A failure on one schema does not stop the
// others; Run returns an error only if the store cannot be listed or some
// action failed.
func (s *Scanner) Run(ctx context.Context, st store.PreferenceStore, mode Mode) (*ScanReport, error) {
	logger := s.logger.WithField(logging.FieldMode, string(mode))

	schemas, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing parsing schemas: %w", err)
	}

	report := s.ScanAll(schemas)
	report.Mode = mode
	if mode == ModeDryRun {
		for _, e := range report.Corrupted {
			logger.Warn("Corrupted parsing schema found",
				logging.F(logging.FieldBank, e.Bank),
				logging.F(logging.FieldFormat, e.Format),
				logging.F(logging.FieldReason, e.Issues.String()))
		}
		return report, nil
	}

	failed := 0
	for i := range report.Corrupted {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry := &report.Corrupted[i]
		entry.Action, entry.State, err = s.remediate(ctx, st, entry.Key(), mode)
		if err != nil {
			entry.Error = err.Error()
			failed++
		}
		logger.Info("Remediated parsing schema",
			logging.F(logging.FieldBank, entry.Bank),
			logging.F(logging.FieldFormat, entry.Format),
			logging.F(logging.FieldAction, string(entry.Action)))
	}

	if failed > 0 {
		return report, fmt.Errorf("%d of %d remediation actions failed", failed, len(report.Corrupted))
	}
	return report, nil
}

// remediate applies mode to the record stored under key and returns the
// action taken and the resulting state.
func (s *Scanner) remediate(ctx context.Context, st store.PreferenceStore, key models.SchemaKey, mode Mode) (Action, models.SchemaState, error) {
	current, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return ActionSkipped, "", nil
	}
	if err != nil {
		return ActionFailed, "", err
	}
	if s.policy.CollectSchemaIssues(current).IsEmpty() {
		s.logger.Info("Schema is no longer corrupted, leaving it untouched",
			logging.F(logging.FieldBank, key.Bank),
			logging.F(logging.FieldFormat, key.Format))
		return ActionSkipped, current.State(), nil
	}

	switch mode {
	case ModeDisable:
		if !current.Enabled {
			return ActionAlreadyDisabled, models.StateDisabled, nil
		}
		if err := st.Disable(ctx, key); err != nil {
			return ActionFailed, current.State(), err
		}
		return ActionDisabled, models.StateDisabled, nil
	case ModeDelete:
		if err := st.Delete(ctx, key); err != nil {
			return ActionFailed, current.State(), err
		}
		return ActionDeleted, models.StateRemoved, nil
	default:
		return ActionFailed, current.State(), fmt.Errorf("unknown remediation mode %q", mode)
	}
}
