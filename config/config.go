// Package config persists client settings between runs.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/protocol"
)

// DefaultFileName is the settings file the client looks for in its
// working directory.
const DefaultFileName = "client-config.json"

// Config holds the persisted client settings. Files and Servers keep the
// raw entry strings ("src -> dest", "host:port"); parsing happens at the
// point of use.
type Config struct {
	ClientBuffSize      int      `json:"client_buffsize"`
	ClientFileBlockSize int      `json:"client_file_block_size"`
	LogLevel            string   `json:"log_level"`
	Files               []string `json:"files"`
	Servers             []string `json:"servers"`
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	return &Config{
		ClientBuffSize:      protocol.DefaultControlBufferSize,
		ClientFileBlockSize: protocol.DefaultFileBlockSize,
		LogLevel:            logrus.InfoLevel.String(),
		Files:               []string{},
		Servers:             []string{},
	}
}

// Load reads the settings file at path. A missing file is created with
// defaults. A file that does not parse is pushed aside to "<path>.old"
// and replaced with a fresh default file, so a broken config never
// blocks startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return createDefault(path)
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     path,
		}).WithError(err).Warning("Could not load configuration, creating new")
		if renameErr := os.Rename(path, path+".old"); renameErr != nil {
			return nil, fmt.Errorf("moving broken config aside: %w", renameErr)
		}
		return createDefault(path)
	}

	if cfg.ClientBuffSize == 0 {
		cfg.ClientBuffSize = protocol.DefaultControlBufferSize
	}
	if cfg.ClientFileBlockSize == 0 {
		cfg.ClientFileBlockSize = protocol.DefaultFileBlockSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = logrus.InfoLevel.String()
	}
	if cfg.Files == nil {
		cfg.Files = []string{}
	}
	if cfg.Servers == nil {
		cfg.Servers = []string{}
	}
	return cfg, nil
}

// Save writes the settings as indented JSON.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Level parses the configured log level, falling back to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
