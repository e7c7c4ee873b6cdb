package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewledger/crewledger/internal/entities"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/store"
)

func newEntitiesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage vendors, clients and projects",
	}
	cmd.AddCommand(
		newEntitiesListCommand(configPath),
		newEntitiesImportCommand(configPath),
		newEntitiesAliasCommand(configPath),
		newEntitiesExportCommand(configPath),
	)
	return cmd
}

func newEntitiesListCommand(configPath *string) *cobra.Command {
	var pool string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := loadEntities(cmd.Context(), a.store, pool)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, e := range list {
				aliases := make([]string, len(e.Aliases))
				for i, al := range e.Aliases {
					aliases[i] = al.Value
				}
				rows = append(rows, []string{e.ID, string(e.Pool), e.Number, e.DisplayName, strings.Join(aliases, ", ")})
			}
			table(cmd.OutOrStdout(), []string{"ID", "POOL", "NUMBER", "NAME", "ALIASES"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&pool, "pool", "", "only list one pool (vendor, client, project)")
	return cmd
}

func newEntitiesImportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load entities from CSV (id,pool,number,display_name,aliases)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := importEntities(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d entities\n", okStyle.Render("Loaded"), n)
			return nil
		},
	}
}

func newEntitiesAliasCommand(configPath *string) *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "alias <entity-id> <alias>",
		Short: "Add an alias to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := entities.ParseMatch(match)
			if !ok {
				return fmt.Errorf("invalid --match %q (want exact, prefix or contains)", match)
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.AddAlias(cmd.Context(), args[0], model.Alias{Value: args[1], Match: m}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s alias %q (%s)\n", okStyle.Render("Added"), args[0], args[1], m)
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", string(model.AliasExact), "alias match type: exact, prefix or contains")
	return cmd
}

func newEntitiesExportCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.csv]",
		Short: "Write all entities as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := loadEntities(cmd.Context(), a.store, "")
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return entities.Write(cmd.OutOrStdout(), list)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", args[0], err)
			}
			if err := entities.Write(f, list); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func importEntities(ctx context.Context, st *store.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening entities file: %w", err)
	}
	defer f.Close()

	list, err := entities.Read(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for _, e := range list {
		if err := st.UpsertEntity(ctx, e); err != nil {
			return 0, err
		}
	}
	return len(list), nil
}

func loadEntities(ctx context.Context, st *store.Store, pool string) ([]model.Entity, error) {
	pools, err := st.LoadPools(ctx)
	if err != nil {
		return nil, err
	}
	if pool != "" {
		p, ok := model.ParsePool(pool)
		if !ok {
			return nil, fmt.Errorf("unknown pool %q", pool)
		}
		return pools.Get(p), nil
	}
	out := make([]model.Entity, 0, len(pools.Vendors)+len(pools.Clients)+len(pools.Projects))
	out = append(out, pools.Vendors...)
	out = append(out, pools.Clients...)
	return append(out, pools.Projects...), nil
}
