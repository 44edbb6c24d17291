package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"audio-converter/internal/logging"
	"audio-converter/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Default limits; each can be overridden from the environment.
const (
	DefaultMaxUploadBytes   = 2 * 1024 * 1024 * 1024 // 2 GiB hard upload cap
	DefaultSizeCeilingBytes = 49 * 1024 * 1024       // under Telegram's 50 MiB channel limit
	DefaultMinBitrateKbps   = 16
	DefaultMaxBitrateKbps   = 128
)

// Config holds all application configuration
type Config struct {
	Login    string
	Password string // plain value or bcrypt hash ($2…)

	Port        string
	MetricsPort string

	UploadDir    string
	ConvertedDir string
	DatabasePath string

	MaxUploadBytes   int64
	SizeCeilingBytes int64
	MinBitrateKbps   int
	MaxBitrateKbps   int

	ProbeTimeout  time.Duration
	EncodeTimeout time.Duration

	SessionTTL   time.Duration
	ConvertedTTL time.Duration // 0 disables the janitor

	MaxConcurrentJobs int

	LogHealthChecks bool
	MetricsEnabled  bool
}

// LoadConfig loads and validates configuration from the environment.
// A .env file in the working directory is read first if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded environment from .env")
	}

	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	login := getEnv("WEB_CONVERTER_LOGIN", "")
	password := getEnv("WEB_CONVERTER_PASSWORD", "")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	uploadDir := getEnv("UPLOAD_DIR", "uploads")
	convertedDir := getEnv("CONVERTED_DIR", "converted")
	dataDir := getEnv("DATA_DIR", "data")

	maxUploadBytes := getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	sizeCeilingBytes := getEnvInt64("SIZE_CEILING_BYTES", DefaultSizeCeilingBytes)
	minBitrate := getEnvInt("MIN_BITRATE_KBPS", DefaultMinBitrateKbps)
	maxBitrate := getEnvInt("MAX_BITRATE_KBPS", DefaultMaxBitrateKbps)

	probeTimeout := getEnvDuration("PROBE_TIMEOUT", 30*time.Second)
	encodeTimeout := getEnvDuration("ENCODE_TIMEOUT", 600*time.Second)
	sessionTTL := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	convertedTTL := getEnvDuration("CONVERTED_TTL", 0)

	maxJobs := getEnvInt("MAX_CONCURRENT_JOBS", workers.ForCPU(0))
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  UPLOAD_DIR:          %s", uploadDir)
	logging.Info("  CONVERTED_DIR:       %s", convertedDir)
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  MAX_UPLOAD_BYTES:    %d", maxUploadBytes)
	logging.Info("  SIZE_CEILING_BYTES:  %d", sizeCeilingBytes)
	logging.Info("  BITRATE_RANGE_KBPS:  [%d, %d]", minBitrate, maxBitrate)
	logging.Info("  PROBE_TIMEOUT:       %v", probeTimeout)
	logging.Info("  ENCODE_TIMEOUT:      %v", encodeTimeout)
	logging.Info("  SESSION_TTL:         %v", sessionTTL)
	logging.Info("  CONVERTED_TTL:       %v", convertedTTL)
	logging.Info("  MAX_CONCURRENT_JOBS: %d (0 = unlimited)", maxJobs)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if login == "" || password == "" {
		return nil, fmt.Errorf("WEB_CONVERTER_LOGIN and WEB_CONVERTER_PASSWORD must be set")
	}
	if minBitrate <= 0 || maxBitrate < minBitrate {
		return nil, fmt.Errorf("invalid bitrate range [%d, %d]", minBitrate, maxBitrate)
	}
	if sizeCeilingBytes <= 0 {
		return nil, fmt.Errorf("SIZE_CEILING_BYTES must be positive")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	uploadDir, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	convertedDir, err = filepath.Abs(convertedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve converted directory path: %w", err)
	}
	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	for _, dir := range []struct{ path, name string }{
		{uploadDir, "upload"},
		{convertedDir, "converted"},
		{dataDir, "data"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, err
		}
	}

	logging.Info("  Upload directory:    %s", uploadDir)
	logging.Info("  Converted directory: %s", convertedDir)
	logging.Info("  Data directory:      %s", dataDir)

	checkTranscoder()

	return &Config{
		Login:             login,
		Password:          password,
		Port:              port,
		MetricsPort:       metricsPort,
		UploadDir:         uploadDir,
		ConvertedDir:      convertedDir,
		DatabasePath:      filepath.Join(dataDir, "conversions.db"),
		MaxUploadBytes:    maxUploadBytes,
		SizeCeilingBytes:  sizeCeilingBytes,
		MinBitrateKbps:    minBitrate,
		MaxBitrateKbps:    maxBitrate,
		ProbeTimeout:      probeTimeout,
		EncodeTimeout:     encodeTimeout,
		SessionTTL:        sessionTTL,
		ConvertedTTL:      convertedTTL,
		MaxConcurrentJobs: maxJobs,
		LogHealthChecks:   logHealthChecks,
		MetricsEnabled:    metricsEnabled,
	}, nil
}

// checkTranscoder reports whether ffmpeg and ffprobe resolve from PATH.
// A missing binary is fatal at job time, not at startup, so only warn.
func checkTranscoder() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER CHECK")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if path, err := exec.LookPath(tool); err != nil {
			logging.Warn("  %s not found in PATH; conversions will fail", tool)
		} else {
			logging.Info("  [OK] %s: %s", tool, path)
		}
	}
}

func ensureDirectory(path, name string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory %s: %w", name, path, err)
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("%s directory %s is not writable: %w", name, path, err)
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove test file %s: %v", testFile, err)
	}
	return nil
}

func printBanner() {
	logging.Info("============================================================")
	logging.Info("AUDIO CONVERTER %s (%s)", Version, Commit)
	logging.Info("  built %s with %s, %s/%s", BuildTime, GoVersion, runtime.GOOS, runtime.GOARCH)
	logging.Info("============================================================")
}

// LogServerStarted logs the listening addresses after startup completes.
func LogServerStarted(port, metricsPort string, metricsEnabled bool, elapsed time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER READY in %v", elapsed.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
	logging.Info("  Listening on :%s", port)
	if metricsEnabled {
		logging.Info("  Metrics on :%s/metrics", metricsPort)
	}
}

// LogShutdownInitiated logs the start of graceful shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("Received %s, shutting down gracefully...", signal)
}

// LogShutdownStep logs one shutdown step.
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete logs the end of graceful shutdown.
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
