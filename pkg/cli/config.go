package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"hexarch/internal/config"
	"hexarch/pkg/archconfig"
	"hexarch/pkg/depgraph"
	"hexarch/pkg/depgraph/golist"
	"hexarch/pkg/depgraph/srcscan"
	"hexarch/pkg/hexagonal"
)

// app carries the resolved configuration shared by every command.
type app struct {
	dir    string
	cfg    *config.Config
	logger *slog.Logger
}

// path resolves p against the module directory.
func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

func (a *app) configPath() string {
	return a.path(a.cfg.ConfigPath)
}

// loadConfig reads the architecture declaration.
func (a *app) loadConfig() (*archconfig.File, error) {
	return archconfig.Load(a.configPath())
}

// loadModel reads the declaration and builds its model.
func (a *app) loadModel() (*archconfig.File, *hexagonal.Model, error) {
	file, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	model, err := file.Model()
	if err != nil {
		return nil, nil, err
	}
	return file, model, nil
}

// optionalConfig is loadConfig that returns nil when the file does not exist.
func (a *app) optionalConfig() (*archconfig.File, error) {
	if _, err := os.Stat(a.configPath()); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return a.loadConfig()
}

// importer returns the package loader selected by configuration.
func (a *app) importer() (depgraph.Importer, error) {
	if a.cfg.Loader == config.LoaderPackages {
		return golist.New(golist.Options{
			Dir:          a.dir,
			IncludeTests: a.cfg.IncludeTests,
			Logger:       a.logger,
		}), nil
	}
	s, err := srcscan.New(srcscan.Options{
		Dir:          a.dir,
		IncludeTests: a.cfg.IncludeTests,
		Workers:      a.cfg.Workers,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// importModule imports every package of the module.
func (a *app) importModule(ctx context.Context) (*depgraph.Graph, error) {
	imp, err := a.importer()
	if err != nil {
		return nil, err
	}
	return imp.Import(ctx)
}
