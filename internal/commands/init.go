package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/config"
	"github.com/crewledger/crewledger/internal/store"
)

func newInitCommand() *cobra.Command {
	var force bool
	var entitiesFile string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new crewledger workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, force, entitiesFile)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing crewledger.yaml")
	cmd.Flags().StringVar(&entitiesFile, "entities", "", "CSV of vendors, clients and projects to load")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, force bool, entitiesFile string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := config.Default()
	for _, d := range []string{cfg.Import.Dir, filepath.Join(cfg.Import.Dir, "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := cfg.Database.Path + "\n" + cfg.Database.Path + "-*\n.env\n" + cfg.Import.Dir + "/*.csv\n" + cfg.Import.Dir + "/*.xlsx\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	st, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer st.Close()

	seeded, err := st.SeedMappings(ctx, categories.DefaultMappings())
	if err != nil {
		return fmt.Errorf("seeding mappings: %w", err)
	}

	loaded := 0
	if entitiesFile != "" {
		if loaded, err = importEntities(ctx, st, entitiesFile); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s crewledger workspace at %s\n", okStyle.Render("Initialized"), dir)
	fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("category mappings"), seeded)
	if entitiesFile != "" {
		fmt.Fprintf(out, "  %s %d\n", labelStyle.Render("entities"), loaded)
	}
	fmt.Fprintf(out, "Drop exports into %s and run %s\n",
		filepath.Join(dir, cfg.Import.Dir), titleStyle.Render("crewledger import --dir"))
	return nil
}
