package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by LUMEN_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
// The agent's tunables are not configured here; they live in its own
// source and are re-read every tick.
func Load() error {
	envFile := os.Getenv("LUMEN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// SourcePath is the live source file holding the mutable zone.
func SourcePath() string {
	return stringOr("LUMEN_SOURCE", "internal/genome/genome.go")
}

// StateDBPath is the embedded state store file.
func StateDBPath() string {
	return stringOr("LUMEN_STATE_DB", "lumen.db")
}

// LoadCheckDir is the module root the load check runs in.
func LoadCheckDir() string {
	return stringOr("LUMEN_LOAD_CHECK_DIR", ".")
}

func TickInterval() time.Duration {
	return durationOr("LUMEN_TICK_INTERVAL", 10*time.Second)
}

// Seed fixes the random source of the scheduler and the local provider.
// Zero means seed from the clock.
func Seed() int64 {
	seed, err := strconv.ParseInt(os.Getenv("LUMEN_SEED"), 10, 64)
	if err != nil {
		return 0
	}
	return seed
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured cognition provider.
// Defaults to "local" if not set.
// Valid values: openai, anthropic, gemini, cerebras, local, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "local"
	}
	return p
}

// LLMAPIKey returns the API key for the configured cognition provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "openai":
		return OpenAIAPIKey()
	case "anthropic":
		return AnthropicAPIKey()
	case "gemini":
		return GeminiAPIKey()
	case "cerebras":
		return CerebrasAPIKey()
	default:
		return ""
	}
}

// CognitionTimeout bounds a single provider call.
func CognitionTimeout() time.Duration {
	return durationOr("COGNITION_TIMEOUT", 90*time.Second)
}

// CognitionRPS returns provider calls allowed per second.
// Defaults to 0.2 if not set.
func CognitionRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("COGNITION_RPS"), 64)
	if err != nil || rps <= 0 {
		return 0.2
	}
	return rps
}

func CognitionBurst() int {
	return positiveIntOr("COGNITION_BURST", 2)
}

// MetricsTextfile is where metrics are written for a node exporter.
// Empty disables metrics output.
func MetricsTextfile() string {
	return os.Getenv("METRICS_TEXTFILE")
}

// ArchiveBucket enables off-host backup archiving when set.
func ArchiveBucket() string {
	return os.Getenv("ARCHIVE_S3_BUCKET")
}

func ArchiveRegion() string {
	return stringOr("ARCHIVE_S3_REGION", "us-east-1")
}

func ArchiveEndpoint() string {
	return os.Getenv("ARCHIVE_S3_ENDPOINT")
}

func ArchivePrefix() string {
	return stringOr("ARCHIVE_S3_PREFIX", "lumen")
}

// ArchiveAccessKeyID and ArchiveSecretAccessKey belong in the .secret
// sidecar. When unset the default AWS credential chain applies.
func ArchiveAccessKeyID() string {
	return os.Getenv("ARCHIVE_ACCESS_KEY_ID")
}

func ArchiveSecretAccessKey() string {
	return os.Getenv("ARCHIVE_SECRET_ACCESS_KEY")
}

func ArchivePathStyle() bool {
	return strings.EqualFold(os.Getenv("ARCHIVE_S3_PATH_STYLE"), "true")
}

// AgentCommand is what the supervisor launches. The default recompiles
// from source so a committed mutation is picked up.
func AgentCommand() []string {
	cmd := strings.Fields(os.Getenv("AGENT_COMMAND"))
	if len(cmd) == 0 {
		return []string{"go", "run", "./cmd/agent"}
	}
	return cmd
}

func RestartDelay() time.Duration {
	return durationOr("RESTART_DELAY", 2*time.Second)
}

func RestartCooldown() time.Duration {
	return durationOr("RESTART_COOLDOWN", 30*time.Second)
}

func MaxRapidFailures() int {
	return positiveIntOr("MAX_RAPID_FAILURES", 5)
}

func RapidFailureWindow() time.Duration {
	return durationOr("RAPID_FAILURE_WINDOW", 30*time.Second)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func stringOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveIntOr(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func durationOr(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
