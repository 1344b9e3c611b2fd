package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/siteaudit/internal/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, log)

	log.Infow("test entry", "key", "value")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "shout", Format: "json"})
	assert.Error(t, err)
}

func TestWithComponent(t *testing.T) {
	log := Nop()
	child := log.WithComponent("fetch")
	assert.NotNil(t, child)
	// Parent must be unaffected by child fields.
	assert.NotSame(t, log, child)
}
