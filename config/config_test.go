package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesMighty/honeywell-task/protocol"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, protocol.DefaultControlBufferSize, cfg.ClientBuffSize)
	assert.Equal(t, protocol.DefaultFileBlockSize, cfg.ClientFileBlockSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Files)
	assert.Empty(t, cfg.Servers)
	assert.FileExists(t, path)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	cfg := Default()
	cfg.ClientBuffSize = 2048
	cfg.ClientFileBlockSize = 4096
	cfg.LogLevel = "debug"
	cfg.Files = []string{"/tmp/a.txt -> in/a.txt", "/tmp/b.txt -> in/b.txt"}
	cfg.Servers = []string{"127.0.0.1:4040"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", DefaultFileName)
	require.NoError(t, Default().Save(path))
	assert.FileExists(t, path)
}

func TestLoadRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// The broken file is preserved next to the fresh one.
	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, []byte("{not json"), old)
	assert.FileExists(t, path)
}

func TestLoadRecoversFromUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"client_buffsize": 1, "mystery": true}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path+".old")
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "warning"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, protocol.DefaultControlBufferSize, cfg.ClientBuffSize)
	assert.Equal(t, protocol.DefaultFileBlockSize, cfg.ClientFileBlockSize)
	assert.Equal(t, "warning", cfg.LogLevel)
	assert.NotNil(t, cfg.Files)
	assert.NotNil(t, cfg.Servers)
}

func TestLevel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, logrus.InfoLevel, cfg.Level())

	cfg.LogLevel = "debug"
	assert.Equal(t, logrus.DebugLevel, cfg.Level())

	cfg.LogLevel = "warning"
	assert.Equal(t, logrus.WarnLevel, cfg.Level())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}
