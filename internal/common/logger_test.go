package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerConfiguresWriters(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Level = "debug"
	config.Logging.Output = []string{"stdout", "file"}

	logger := InitLogger(config)
	require.NotNil(t, logger)

	// The configured logger becomes the global instance
	assert.Equal(t, logger, GetLogger())

	logger.Debug().Str("check", "writers").Msg("logger initialized")
}

func TestGetLoggerWithoutInit(t *testing.T) {
	loggerMutex.Lock()
	globalLogger = nil
	loggerMutex.Unlock()

	logger := GetLogger()
	require.NotNil(t, logger)

	// Repeated calls hand back the same fallback instance
	assert.Equal(t, logger, GetLogger())
}

func TestPrintBanner(t *testing.T) {
	PrintBanner("0.0.1-test")
}
