package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/importer"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/pipeline"
	"github.com/crewledger/crewledger/internal/reconcile"
)

type importFlags struct {
	fromDir  bool
	commit   bool
	override bool
	asJSON   bool
	assign   []string
}

type importResult struct {
	Preview *pipeline.Preview `json:"preview"`
	Summary *batch.Summary    `json:"summary,omitempty"`
}

func newImportCommand(configPath *string) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Preview an export and optionally commit it",
		Long: `Import parses an accounting export (.csv or .xlsx), drops rows already in the
file or already committed, resolves vendors, clients and projects, categorizes
account paths and reconciles duplicates against the ledger. Without --commit
nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case f.fromDir && len(args) > 0:
				return errors.New("pass export files or --dir, not both")
			case !f.fromDir && len(args) == 0:
				return errors.New("no export files given (pass files or --dir)")
			case len(f.assign) > 0 && (f.fromDir || len(args) != 1):
				return errors.New("--assign line numbers refer to one file; pass exactly one export file")
			}
			overrides, err := parseAssignments(f.assign)
			if err != nil {
				return err
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			paths := args
			if f.fromDir {
				files, err := importer.Scan(a.importDir)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No exports in %s\n", a.importDir)
					return nil
				}
				for _, fi := range files {
					paths = append(paths, fi.Path)
				}
			}

			registry := importer.DefaultRegistry()
			out := cmd.OutOrStdout()
			for _, path := range paths {
				records, err := registry.ReadFile(path)
				if err != nil {
					return err
				}
				p, err := a.engine.Preview(cmd.Context(), pipeline.Source{FileName: filepath.Base(path), Records: records})
				if err != nil {
					return err
				}

				res := importResult{Preview: p}
				if f.commit {
					sum, err := a.engine.Commit(cmd.Context(), p, pipeline.CommitOptions{
						OverrideReconciliation: f.override,
						EntityOverrides:        overrides,
					})
					if err != nil {
						if !f.asJSON {
							renderPreview(out, p)
						}
						return commitError(err)
					}
					res.Summary = &sum
					if f.fromDir {
						if err := importer.MarkProcessed(a.importDir, filepath.Base(path)); err != nil {
							logger.L.Warn("file committed but not moved", "file", path, "error", err)
						}
					}
				}

				if f.asJSON {
					if err := writeJSON(out, res); err != nil {
						return fmt.Errorf("encoding result: %w", err)
					}
					continue
				}
				renderPreview(out, p)
				if res.Summary != nil {
					renderSummary(out, *res.Summary)
				} else {
					fmt.Fprintln(out, mutedStyle.Render("Preview only. Re-run with --commit to write this batch."))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.fromDir, "dir", false, "import every export in the configured import directory")
	cmd.Flags().BoolVar(&f.commit, "commit", false, "commit the batch after previewing")
	cmd.Flags().BoolVar(&f.override, "override", false, "commit even when reconciliation is out of tolerance")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the preview as JSON")
	cmd.Flags().StringArrayVar(&f.assign, "assign", nil, "assign an entity to a row, as line:pool=entity-id (repeatable)")

	return cmd
}

// parseAssignments turns "4:vendor=v-lowes" flags into entity overrides.
func parseAssignments(values []string) (pipeline.EntityOverrides, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(pipeline.EntityOverrides, len(values))
	for _, v := range values {
		target, entityID, ok := strings.Cut(v, "=")
		lineStr, poolStr, ok2 := strings.Cut(target, ":")
		if !ok || !ok2 || strings.TrimSpace(entityID) == "" {
			return nil, fmt.Errorf("invalid --assign %q (want line:pool=entity-id)", v)
		}
		line, err := strconv.Atoi(strings.TrimSpace(lineStr))
		if err != nil || line < 1 {
			return nil, fmt.Errorf("invalid --assign %q: bad line number", v)
		}
		pool, ok := model.ParsePool(strings.TrimSpace(poolStr))
		if !ok {
			return nil, fmt.Errorf("invalid --assign %q: unknown pool %q", v, poolStr)
		}
		if out[line] == nil {
			out[line] = make(map[model.Pool]string)
		}
		out[line][pool] = strings.TrimSpace(entityID)
	}
	return out, nil
}

// commitError adds the CLI remedy to errors a reviewer can act on.
func commitError(err error) error {
	var mismatch *reconcile.MismatchError
	var invalid *pipeline.ValidationFailedError
	switch {
	case errors.As(err, &mismatch):
		return fmt.Errorf("%w (review the discrepancies, then re-run with --override to commit anyway)", err)
	case errors.As(err, &invalid):
		msgs := make([]string, len(invalid.Errors))
		for i, v := range invalid.Errors {
			msgs[i] = v.Error()
		}
		return fmt.Errorf("%w:\n  %s", err, strings.Join(msgs, "\n  "))
	}
	return err
}
