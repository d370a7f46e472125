package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/KilimcininKorOglu/revtree/internal/config"
	"github.com/KilimcininKorOglu/revtree/internal/logging"
	"github.com/KilimcininKorOglu/revtree/internal/resource"
)

// commonFlags are accepted by every command that opens a store.
type commonFlags struct {
	configFile *string
	dataDir    *string
	logLevel   *string
	help       *bool
	helpLong   *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configFile: fs.String("config", "", "Path to configuration file"),
		dataDir:    fs.String("data-dir", "", "Data directory path"),
		logLevel:   fs.String("log-level", "", "Log level"),
		help:       fs.Bool("h", false, "Show help message"),
		helpLong:   fs.Bool("help", false, "Show help message"),
	}
}

func (f *commonFlags) wantsHelp() bool {
	return *f.help || *f.helpLong
}

// load builds the effective configuration: defaults, then the config file,
// then flags.
func (f *commonFlags) load() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *f.configFile != "" {
		loaded, err := config.LoadConfig(*f.configFile)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", *f.configFile, err)
		}
		cfg = loaded
	}
	if *f.dataDir != "" {
		cfg.Storage.DataDir = *f.dataDir
	}
	if *f.logLevel != "" {
		cfg.Logging.Level = *f.logLevel
	}
	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return cfg, nil
}

// openManager loads the configuration and opens the store it names.
func (f *commonFlags) openManager(stderr io.Writer) (*resource.Manager, logging.Logger, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	var logger logging.Logger
	if cfg.Logging.Output == "stderr" {
		logger = logging.NewWriter(logCfg, stderr)
	} else {
		logger = logging.New(logCfg)
	}

	opts := resource.DefaultOptions().
		WithCacheSize(cfg.Storage.CacheSize).
		WithPrefetchWorkers(cfg.Storage.PrefetchWorkers).
		WithNodeNumber(cfg.Trx.NodeNumber).
		WithLogger(logger)

	m, err := resource.OpenDir(cfg.Storage.DataDir, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", cfg.Storage.DataDir, err)
	}
	return m, logger.Named("cli"), nil
}
