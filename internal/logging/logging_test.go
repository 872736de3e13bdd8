package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addrparser/internal/config"
	"addrparser/internal/logging"
)

func TestSetup_LevelFallback(t *testing.T) {
	closer := logging.Setup(&config.LogConfig{Level: "verbose", Format: "json"})
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetup_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addrparser.log")
	closer := logging.Setup(&config.LogConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})

	log.Info().Str("session_id", "abc").Msg("batch started")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.Contains(t, string(data), `"message":"batch started"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
