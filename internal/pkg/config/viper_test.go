package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  server:
    cors: "http://localhost:3000, ,https://cardnote.app"
modules:
  verification:
    ttl_seconds: 300
    reset_attempts_on_resend: false
jwt:
  ttl_minutes: 10
instrument:
  trace_sample_ratio: 0.25
`

func TestNewViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML), WithDefaults(map[string]any{
		"modules.verification.max_attempts":             3,
		"modules.verification.reset_attempts_on_resend": true,
	}))
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.GetSecond("modules.verification.ttl_seconds"))
	assert.Equal(t, 10*time.Minute, cfg.GetMinute("jwt.ttl_minutes"))
	assert.Equal(t, 3, cfg.GetInt("modules.verification.max_attempts"))
	assert.False(t, cfg.GetBool("modules.verification.reset_attempts_on_resend"))
	assert.InDelta(t, 0.25, cfg.GetFloat64("instrument.trace_sample_ratio"), 1e-9)
	assert.Equal(t, []string{"http://localhost:3000", "https://cardnote.app"}, cfg.GetArray("app.server.cors"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestNewViperFromBytes_TypeRequired(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.ErrorIs(t, err, ErrConfigTypeRequired)
}

func TestNewViper_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("hash:\n  hmac:\n    secret: from-file\n"), 0o600))

	t.Setenv("CARDNOTE_HASH_HMAC_SECRET", "from-env")

	cfg, err := NewViper(file, WithEnvPrefix("CARDNOTE"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GetString("hash.hmac.secret"))
}
