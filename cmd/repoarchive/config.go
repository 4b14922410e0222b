package main

import (
	"github.com/BurntSushi/toml"
)

// Config is the bendo.toml-style configuration file this tool loads
// before opening a store, following cmd/bendo's flag-plus-config
// division of labor.
type Config struct {
	// Dialect selects the sqlstore backend: "mysql" or "ql".
	Dialect string `toml:"dialect"`
	// DSN is passed to sqlstore.OpenMySQL or sqlstore.OpenQL depending on
	// Dialect; for "ql" it may be a file path or "memory".
	DSN string `toml:"dsn"`

	ChunkSize   int   `toml:"chunk_size"`
	MemoryLimit int64 `toml:"memory_limit"`

	ListenAddr  string `toml:"listen_addr"`
	StopTimeout int    `toml:"stop_timeout_seconds"`

	S3Bucket         string  `toml:"s3_bucket"`
	S3Prefix         string  `toml:"s3_prefix"`
	S3BytesPerSecond float64 `toml:"s3_bytes_per_second"`
}

func defaultConfig() Config {
	return Config{
		Dialect:     "ql",
		DSN:         "repoarchive.db",
		ListenAddr:  ":14000",
		StopTimeout: 10,
	}
}

// LoadConfig decodes a TOML config file, starting from defaultConfig so a
// file only needs to set the fields it wants to override.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
