package config

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:         "/var/lib/revtree",
			CacheSize:       4096,
			PrefetchWorkers: 8,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Trx: TrxConfig{
			NodeNumber: 0,
		},
	}
}
