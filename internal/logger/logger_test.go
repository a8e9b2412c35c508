package logger

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Init swaps the global log output, so these tests do not run in parallel.

func TestInit_WritesLevelledLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	t.Cleanup(func() {
		Close()
		log.SetOutput(os.Stderr)
	})

	assert.Equal(t, filepath.Join(dir, "debug.log"), GetLogPath())

	LogInfo("task %d done", 3)
	LogWarn("unknown panel %d", 9)
	LogError("boom")

	data, err := os.ReadFile(GetLogPath())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "[INFO] 📝 log file: "+GetLogPath())
	assert.Contains(t, out, "logger_test.go", "caller location points at the test, not the logger")
	assert.Contains(t, out, "[INFO] task 3 done")
	assert.Contains(t, out, "[WARN] unknown panel 9")
	assert.Contains(t, out, "[ERROR] boom")
}

func TestInit_RotatesLargeFile(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", maxLogSize+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte(big), 0o600))

	require.NoError(t, Init(dir))
	t.Cleanup(func() {
		Close()
		log.SetOutput(os.Stderr)
	})

	matches, err := filepath.Glob(filepath.Join(dir, "debug.log.*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	info, err := os.Stat(GetLogPath())
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(maxLogSize))
}
