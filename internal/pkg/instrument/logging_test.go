package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_MasksConfiguredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, loggerOptions{serviceName: "cardnote", maskFields: []string{"Code", "ticket", "email"}})

	ctx := SetCorrelationID(context.Background(), "cid-123")
	logger.InfoContext(ctx, "code issued",
		"email", "alice@b.com",
		"code", "042917",
		"payload", map[string]any{"ticket": "secret.jwt.value", "purpose": "signup"},
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "a***@b.com", line["email"])
	assert.Equal(t, "***", line["code"])
	assert.Equal(t, map[string]any{"ticket": "***", "purpose": "signup"}, line["payload"])
	assert.Equal(t, "cid-123", line["_cID"])
	assert.Equal(t, "cardnote", line["service"])
	assert.Equal(t, "code issued", line["msg"])
}

func TestLogger_LevelAndSource(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(buf, loggerOptions{serviceName: "cardnote", level: ParseLevel("warn")})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.With("code", "123456").Warn("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["severity"])
	assert.Equal(t, "cardnote", line["service"], "With keeps the context handler")
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go:")
}

func TestMasker(t *testing.T) {
	m := newMasker([]string{" code ", "", "EMAIL"})

	assert.Equal(t, `{"code":"***","nested":[{"email":"b***@x.io"}]}`,
		lo.Must(m.jsonText([]byte(`{"code":"1","nested":[{"email":"bob@x.io"}]}`))))
	_, ok := m.jsonText([]byte("plain"))
	assert.False(t, ok)

	assert.Equal(t, "***", maskEmail("not-an-address"))
	assert.Equal(t, "***", maskEmail("@x.io"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
}

func TestNewNoop(t *testing.T) {
	ins, err := New(context.Background(), nil)
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "span")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}
