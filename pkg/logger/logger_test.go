package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-mrp/pkg/logger"
)

func TestNew_JSONConNivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "warn", Service: "mrp", Out: &buf})

	l.Info().Msg("no sale")
	l.Warn().Str("tenant_id", "t1").Msg("sale")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "sale", entry["message"])
	assert.Equal(t, "mrp", entry["service"])
	assert.Equal(t, "t1", entry["tenant_id"])
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "debug", Out: &buf})
	c := l.Component("ledger")
	c.Debug().Msg("x")
	assert.Contains(t, buf.String(), `"component":"ledger"`)
}
