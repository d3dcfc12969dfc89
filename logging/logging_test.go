package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTeesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "test-log.txt")

	logger, closer, err := New(logrus.InfoLevel, &console, path)
	require.NoError(t, err)

	logger.Info("hello from both sinks")
	require.NoError(t, closer())

	assert.Contains(t, console.String(), "hello from both sinks")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from both sinks")
}

func TestNewFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test-log.txt")

	logger, closer, err := New(logrus.DebugLevel, nil, path)
	require.NoError(t, err)

	logger.Debug("file sink only")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file sink only")
}

func TestNewWithoutSinksDiscards(t *testing.T) {
	logger, closer, err := New(logrus.InfoLevel, nil, "")
	require.NoError(t, err)
	defer closer()

	// Must not panic with no sink configured.
	logger.Info("dropped")
}

func TestNewAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test-log.txt")

	logger, closer, err := New(logrus.InfoLevel, nil, path)
	require.NoError(t, err)
	logger.Info("first run")
	require.NoError(t, closer())

	logger, closer, err = New(logrus.InfoLevel, nil, path)
	require.NoError(t, err)
	logger.Info("second run")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}

func TestNewRejectsUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "test-log.txt")

	_, _, err := New(logrus.InfoLevel, nil, path)
	assert.Error(t, err)
}

func TestNewHonorsLevel(t *testing.T) {
	var console bytes.Buffer

	logger, closer, err := New(logrus.WarnLevel, &console, "")
	require.NoError(t, err)
	defer closer()

	logger.Info("too quiet")
	logger.Warning("loud enough")

	assert.NotContains(t, console.String(), "too quiet")
	assert.Contains(t, console.String(), "loud enough")
}
