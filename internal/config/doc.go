// Package config loads revtree configuration.
//
// Configuration comes from a small YAML subset: nested "key: value" maps,
// comments and blank lines. ${VAR} and ${VAR:-default} are replaced with
// environment values before parsing. Keys that are absent keep their
// defaults.
//
//	storage:
//	  dataDir: ${REVTREE_DATA:-/var/lib/revtree}
//	  cacheSize: 4096
//	  prefetchWorkers: 8
//	logging:
//	  level: debug
//	  format: text
//	  output: stderr
//	trx:
//	  nodeNumber: 1
//
// Load a file and check it:
//
//	cfg, err := config.LoadConfig(path)
//	if err != nil {
//	    return err
//	}
//	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
//	    return errs[0]
//	}
package config
