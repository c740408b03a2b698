// Package scan implements the operator command that finds and remediates
// corrupted column mappings.
package scan

import (
	"context"
	"fmt"
	"io"

	"fjacquet/colmap/cmd/root"
	"fjacquet/colmap/internal/remediation"
	"fjacquet/colmap/internal/store"
	"fjacquet/colmap/internal/validation"

	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	noDryRun   bool
	deleteFlag bool
	output     string
)

// Cmd represents the scan command
var Cmd = &cobra.Command{
	Use:   "scan",
	Short: "Find saved column mappings that hold data values instead of column indices",
	Long: `Scan every saved parsing schema and report the ones whose column mappings
reference data values (dates, amounts, free text) instead of column indices.

By default the scan is a dry run and changes nothing. With --no-dry-run the
corrupted schemas are disabled; add --delete to remove them instead. Clean
schemas are never modified.

The report is always printed. The command exits with status 0 whether or not
corruption was found, and with a nonzero status when the store cannot be read
or a disable or delete action failed.

Example:
  colmap scan
  colmap scan --output json
  colmap scan --no-dry-run
  colmap scan --no-dry-run --delete`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := ModeFromCommand(cmd)
		if err != nil {
			return err
		}
		if err := validation.IsValidOutputFormat(output); err != nil {
			return err
		}

		c := root.GetContainer()
		if c == nil {
			return fmt.Errorf("application container not initialized")
		}
		return Run(cmd.Context(), c.GetScanner(), c.GetStore(), mode, output, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Report corrupted schemas without changing them")
	Cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Apply remediation to corrupted schemas (disable by default)")
	Cmd.Flags().BoolVar(&deleteFlag, "delete", false, "With --no-dry-run, delete corrupted schemas instead of disabling them")
	Cmd.Flags().StringVar(&output, "output", "text", "Report format: text, json or csv")
}

// ModeFromCommand derives the remediation mode from the flags set on cmd.
func ModeFromCommand(cmd *cobra.Command) (remediation.Mode, error) {
	flags := cmd.Flags()
	dry, err := flags.GetBool("dry-run")
	if err != nil {
		return "", err
	}
	noDry, err := flags.GetBool("no-dry-run")
	if err != nil {
		return "", err
	}
	del, err := flags.GetBool("delete")
	if err != nil {
		return "", err
	}

	if flags.Changed("dry-run") && dry && noDry {
		return "", fmt.Errorf("--dry-run and --no-dry-run cannot be combined")
	}
	if noDry {
		dry = false
	}
	if del && dry {
		return "", fmt.Errorf("--delete requires --no-dry-run")
	}
	return remediation.ModeFromFlags(dry, del), nil
}

// Run scans st in mode and writes the report to w in format. The report is
// written even when some remediation actions failed.
func Run(ctx context.Context, scanner *remediation.Scanner, st store.PreferenceStore, mode remediation.Mode, format string, w io.Writer) error {
	report, runErr := scanner.Run(ctx, st, mode)
	if report == nil {
		return runErr
	}

	var err error
	switch format {
	case "json":
		err = report.WriteJSON(w)
	case "csv":
		err = report.WriteCSV(w)
	default:
		err = report.WriteText(w)
	}
	if err != nil {
		return fmt.Errorf("failed to write scan report: %w", err)
	}
	return runErr
}
