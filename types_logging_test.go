package membership

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestDefLoggerFormatsKeyValuePairs(t *testing.T) {
	out := captureOutput(t, func() {
		defLogger{}.Error("account lookup failed", "error", errors.New("boom"), "username", "alice")
	})

	assert.Contains(t, out, "[ERR] MEMBERSHIP account lookup failed")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "username=alice")
	assert.NotContains(t, out, "%!", "pairs must not be fed through a format string")
}

func TestDefLoggerLevels(t *testing.T) {
	levels := map[string]func(string, ...any){
		"[DBG]": defLogger{}.Debug,
		"[INF]": defLogger{}.Info,
		"[WRN]": defLogger{}.Warn,
		"[ERR]": defLogger{}.Error,
	}

	for prefix, log := range levels {
		out := captureOutput(t, func() {
			log("message", "key", "value")
		})

		assert.Contains(t, out, prefix+" MEMBERSHIP message key=value")
	}
}

func TestDefLoggerDanglingKey(t *testing.T) {
	out := captureOutput(t, func() {
		defLogger{}.Info("message", "orphan")
	})

	assert.Contains(t, out, "message orphan")
}
