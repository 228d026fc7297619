package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/go-putbytes/logger"
	"github.com/arloliu/go-putbytes/putbytes"
)

type config struct {
	Addr            string
	Listen          string
	ResponseTimeout time.Duration
	ChunkSize       int
	LogLevel        string
	OutDir          string
}

type fileConfig struct {
	Addr            string `toml:"addr"`
	Listen          string `toml:"listen"`
	ResponseTimeout string `toml:"response_timeout"`
	ChunkSize       int    `toml:"chunk_size"`
	LogLevel        string `toml:"log_level"`
	OutDir          string `toml:"out_dir"`
}

func defaultConfig() config {
	return config{
		Addr:            "127.0.0.1:9000",
		Listen:          "127.0.0.1:9000",
		ResponseTimeout: 10 * time.Second,
		ChunkSize:       putbytes.DefaultChunkSize,
		LogLevel:        "warn",
		OutDir:          ".",
	}
}

// loadConfig overlays the keys defined in the TOML file at path onto cfg.
func loadConfig(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load pbput config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load pbput config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}

	if meta.IsDefined("response_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ResponseTimeout))
		if err != nil {
			return fmt.Errorf("parse response_timeout: %w", err)
		}
		cfg.ResponseTimeout = d
	}

	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	if meta.IsDefined("out_dir") {
		cfg.OutDir = strings.TrimSpace(raw.OutDir)
	}

	return nil
}

func (c *config) validate() error {
	if c.ChunkSize < 1 || c.ChunkSize > putbytes.MaxChunkSize {
		return fmt.Errorf("chunk_size %d out of range [1, %d]", c.ChunkSize, putbytes.MaxChunkSize)
	}
	if c.ResponseTimeout < 0 {
		return fmt.Errorf("response_timeout %v is negative", c.ResponseTimeout)
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}
