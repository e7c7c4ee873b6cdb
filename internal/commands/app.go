package commands

import (
	"fmt"
	"path/filepath"

	"github.com/crewledger/crewledger/internal/config"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/pipeline"
	"github.com/crewledger/crewledger/internal/store"
)

// app bundles what every data command needs.
type app struct {
	cfg       *config.Config
	store     *store.Store
	engine    *pipeline.Engine
	importDir string
}

// openApp loads config, initializes logging and opens the database. Relative
// paths in the config resolve against the config file's directory.
func openApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	base := "."
	if configPath != "" {
		base = filepath.Dir(configPath)
	}
	dbPath := resolvePath(base, cfg.Database.Path)

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	ecfg, err := pipeline.ConfigFrom(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.L.Debug("database opened", "path", dbPath)

	return &app{
		cfg:       cfg,
		store:     st,
		engine:    pipeline.New(st, ecfg),
		importDir: resolvePath(base, cfg.Import.Dir),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
