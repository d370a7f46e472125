package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError is a problem with one configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig returns every validation error in cfg. An empty slice
// means the configuration is valid.
func ValidateConfig(cfg *Config) []error {
	var errs []error
	errs = append(errs, validateStorageConfig(&cfg.Storage)...)
	errs = append(errs, validateLogConfig(&cfg.Logging)...)
	errs = append(errs, validateTrxConfig(&cfg.Trx)...)
	return errs
}

func validateStorageConfig(cfg *StorageConfig) []error {
	var errs []error

	if cfg.DataDir == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.dataDir",
			Message: "data directory is required",
		})
	}
	if cfg.CacheSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.cacheSize",
			Message: "must be non-negative",
		})
	}
	if cfg.PrefetchWorkers < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.prefetchWorkers",
			Message: "must be non-negative",
		})
	}
	return errs
}

func validateLogConfig(cfg *LogConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if cfg.Level != "" && !validLevels[strings.ToLower(cfg.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be debug, info, warn, or error",
		})
	}

	if cfg.Format != "" && !strings.EqualFold(cfg.Format, "text") && !strings.EqualFold(cfg.Format, "json") {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be text or json",
		})
	}

	if cfg.Output != "" && cfg.Output != "stdout" && cfg.Output != "stderr" {
		dir := filepath.Dir(cfg.Output)
		if !filepath.IsAbs(cfg.Output) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: "must be stdout, stderr, or an absolute file path",
			})
		} else if _, err := os.Stat(dir); os.IsNotExist(err) {
			errs = append(errs, ValidationError{
				Field:   "logging.output",
				Message: fmt.Sprintf("directory %s does not exist", dir),
			})
		}
	}
	return errs
}

func validateTrxConfig(cfg *TrxConfig) []error {
	if cfg.NodeNumber < 0 || cfg.NodeNumber > 1023 {
		return []error{ValidationError{
			Field:   "trx.nodeNumber",
			Message: "must be between 0 and 1023",
		}}
	}
	return nil
}
