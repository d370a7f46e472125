package config

// Config holds the complete revtree configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LogConfig     `yaml:"logging"`
	Trx     TrxConfig     `yaml:"trx"`
}

// StorageConfig holds page store and cache configuration.
type StorageConfig struct {
	DataDir         string `yaml:"dataDir"`
	CacheSize       int    `yaml:"cacheSize"`
	PrefetchWorkers int    `yaml:"prefetchWorkers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TrxConfig holds transaction configuration.
type TrxConfig struct {
	// NodeNumber is the snowflake node for transaction IDs, 0 to 1023.
	NodeNumber int64 `yaml:"nodeNumber"`
}
