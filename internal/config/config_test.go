package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"LUMEN_SOURCE", "LLM_PROVIDER", "LUMEN_TICK_INTERVAL", "COGNITION_RPS", "AGENT_COMMAND", "MAX_RAPID_FAILURES"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, "internal/genome/genome.go", SourcePath())
	assert.Equal(t, "local", LLMProvider())
	assert.Empty(t, LLMAPIKey())
	assert.Equal(t, 10*time.Second, TickInterval())
	assert.Equal(t, 0.2, CognitionRPS())
	assert.Equal(t, []string{"go", "run", "./cmd/agent"}, AgentCommand())
	assert.Equal(t, 5, MaxRapidFailures())
}

func TestOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LUMEN_TICK_INTERVAL", "250ms")
	t.Setenv("AGENT_COMMAND", "/usr/local/bin/lumen-agent -v")
	t.Setenv("MAX_RAPID_FAILURES", "-3")
	t.Setenv("ARCHIVE_S3_PATH_STYLE", "TRUE")
	t.Setenv("LUMEN_SEED", "42")

	assert.Equal(t, "sk-ant", LLMAPIKey())
	assert.Equal(t, 250*time.Millisecond, TickInterval())
	assert.Equal(t, []string{"/usr/local/bin/lumen-agent", "-v"}, AgentCommand())
	assert.Equal(t, 5, MaxRapidFailures())
	assert.True(t, ArchivePathStyle())
	assert.Equal(t, int64(42), Seed())
}

func TestLoad_ReadsEnvAndSecret(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(env, []byte("LUMEN_STATE_DB=/var/lib/lumen/state.db\n"), 0o600))
	require.NoError(t, os.WriteFile(env+".secret", []byte("GEMINI_API_KEY=g-123\nARCHIVE_ACCESS_KEY_ID=AKIA\nARCHIVE_SECRET_ACCESS_KEY=s3cr3t\n"), 0o600))
	t.Setenv("LUMEN_ENV", env)
	t.Setenv("LUMEN_STATE_DB", "")
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("LUMEN_STATE_DB")
	os.Unsetenv("GEMINI_API_KEY")
	for _, k := range []string{"ARCHIVE_ACCESS_KEY_ID", "ARCHIVE_SECRET_ACCESS_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	require.NoError(t, Load())
	assert.Equal(t, "/var/lib/lumen/state.db", StateDBPath())
	assert.Equal(t, "g-123", GeminiAPIKey())
	assert.Equal(t, "AKIA", ArchiveAccessKeyID())
	assert.Equal(t, "s3cr3t", ArchiveSecretAccessKey())
}
