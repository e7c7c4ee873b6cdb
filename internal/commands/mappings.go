package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/store"
)

func newMappingsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage account path to category mappings",
	}
	cmd.AddCommand(
		newMappingsListCommand(configPath),
		newMappingsSetCommand(configPath),
		newMappingsDisableCommand(configPath),
		newMappingsImportCommand(configPath),
		newMappingsExportCommand(configPath),
	)
	return cmd
}

func newMappingsListCommand(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List category mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := mappings(cmd.Context(), a.store, all)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, m := range list {
				state := okStyle.Render("active")
				if !m.Active {
					state = mutedStyle.Render("inactive")
				}
				rows = append(rows, []string{m.AccountPath, m.Category, state})
			}
			table(cmd.OutOrStdout(), []string{"ACCOUNT PATH", "CATEGORY", "STATE"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive mappings")
	return cmd
}

func newMappingsSetCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <account-path> <category>",
		Short: "Map an account path to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := strings.TrimSpace(args[1])
			if category == "" {
				return errors.New("category is required")
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			chart := categories.NewService(categories.DefaultChart())
			if !chart.Exists(category) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %q is not in the category chart\n", warnStyle.Render("note:"), category)
			}
			m, err := a.store.UpsertMapping(cmd.Context(), args[0], chart.Canonical(category))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", okStyle.Render("Mapped"), m.AccountPath, m.Category)
			return nil
		},
	}
}

func newMappingsDisableCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <account-path>",
		Short: "Deactivate a mapping without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.SetMappingActive(cmd.Context(), args[0], false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", warnStyle.Render("Disabled"), model.NormalizeAccountPath(args[0]))
			return nil
		},
	}
}

func newMappingsImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load mappings from CSV (account_path,category,active), replacing existing paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening mappings file: %w", err)
			}
			defer f.Close()
			list, err := categories.ReadMappings(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			for _, m := range list {
				saved, err := a.store.UpsertMapping(ctx, m.AccountPath, m.Category)
				if err != nil {
					return err
				}
				if !m.Active {
					if err := a.store.SetMappingActive(ctx, saved.AccountPath, false); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d mappings\n", okStyle.Render("Loaded"), len(list))
			return nil
		},
	}
}

func newMappingsExportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Write all mappings as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := mappings(cmd.Context(), a.store, true)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return categories.WriteMappings(cmd.OutOrStdout(), list)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := categories.WriteMappings(f, list); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func mappings(ctx context.Context, st *store.Store, all bool) ([]model.CategoryMapping, error) {
	if all {
		return st.AllMappings(ctx)
	}
	return st.ActiveMappings(ctx)
}
