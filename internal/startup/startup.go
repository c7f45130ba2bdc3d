package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	DataDir    string
	ScratchDir string
	FFmpegPath string

	GuestLimit        int
	UserLimit         int
	MaxUploadSize     int64
	MaxConcurrentJobs int
	MaxFileAge        time.Duration
	SweepInterval     time.Duration

	JWTSecret     string
	JWTIssuer     string
	WebhookSecret string

	// Derived paths
	DatabasePath string
	UploadDir    string
	OutputDir    string
}

// AuthEnabled reports whether bearer tokens can be verified.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// WebhookEnabled reports whether payment webhooks can be verified.
func (c *Config) WebhookEnabled() bool {
	return c.WebhookSecret != ""
}

// LoadConfig loads and validates configuration from the environment. A
// .env file in the working directory is merged in first if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Info("Loaded environment from .env file")
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
		DataDir:           getEnv("DATA_DIR", "/data"),
		ScratchDir:        getEnv("SCRATCH_DIR", "/scratch"),
		FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		GuestLimit:        getEnvInt("GUEST_LIMIT", 3),
		UserLimit:         getEnvInt("USER_LIMIT", 10),
		MaxUploadSize:     int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 500)) << 20,
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", workers.ForCPU(0)),
		MaxFileAge:        getEnvDuration("MAX_FILE_AGE", time.Hour),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),
		JWTSecret:         os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:         getEnv("AUTH_ISSUER", "ilovevideo"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
	}

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  DATA_DIR:            %s", config.DataDir)
	logging.Info("  SCRATCH_DIR:         %s", config.ScratchDir)
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  GUEST_LIMIT:         %d", config.GuestLimit)
	logging.Info("  USER_LIMIT:          %d", config.UserLimit)
	logging.Info("  MAX_UPLOAD_SIZE_MB:  %d", config.MaxUploadSize>>20)
	logging.Info("  MAX_CONCURRENT_JOBS: %d", config.MaxConcurrentJobs)
	logging.Info("  MAX_FILE_AGE:        %s", config.MaxFileAge)
	logging.Info("  SWEEP_INTERVAL:      %s", config.SweepInterval)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if config.GuestLimit < 0 || config.UserLimit < 0 {
		return nil, fmt.Errorf("daily limits must not be negative")
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	config.DataDir, err = filepath.Abs(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", config.DataDir)

	config.ScratchDir, err = filepath.Abs(config.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory path: %w", err)
	}
	logging.Info("  Scratch directory (absolute): %s", config.ScratchDir)

	config.DatabasePath = filepath.Join(config.DataDir, "usage.db")
	config.UploadDir = filepath.Join(config.ScratchDir, "uploads")
	config.OutputDir = filepath.Join(config.ScratchDir, "outputs")

	for _, dir := range []string{config.DataDir, config.UploadDir, config.OutputDir} {
		if err := ensureDirectory(dir); err != nil {
			return nil, fmt.Errorf("directory %s: %w", dir, err)
		}
		if err := testWriteAccess(dir); err != nil {
			return nil, fmt.Errorf("directory %s is not writable: %w", dir, err)
		}
	}
	logging.Info("  [OK] Data and scratch directories are writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Quota ledger: ENABLED (required)")
	logging.Info("    Auth:         %s", enabledString(config.AuthEnabled()))
	logging.Info("    Webhooks:     %s", enabledString(config.WebhookEnabled()))
	logging.Info("    Metrics:      %s", enabledString(config.MetricsEnabled))

	if !config.AuthEnabled() {
		logging.Warn("  AUTH_JWT_SECRET not set: all clients will be treated as anonymous")
	}
	if !config.WebhookEnabled() {
		logging.Warn("  WEBHOOK_SECRET not set: payment webhooks will be rejected")
	}

	return config, nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogStoreInit logs usage store initialization
func LogStoreInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("USAGE LEDGER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Usage ledger initialized in %v", duration)
}

// LogTranscoderInit logs transcoder initialization and checks the
// encoder binary.
func LogTranscoderInit(binary string, maxConcurrent int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Max concurrent jobs: %d", maxConcurrent)

	if err := CheckFFmpeg(binary); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Transcode requests will fail until the binary is available")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogSweeperInit logs retention sweeper initialization
func LogSweeperInit(interval, maxFileAge time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SWEEPER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Sweep interval: %v", interval)
	logging.Info("  Max file age:   %v", maxFileAge)
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____ __                     _    ___     __
   /  _// /___ _   _____       | |  / (_)___/ /__  ____
   / / / / __ \ | / / _ \      | | / / / __  / _ \/ __ \
 _/ / / / /_/ / |/ /  __/      | |/ / / /_/ /  __/ /_/ /
/___//_/\____/|___/\___/       |___/_/\__,_/\___/\____/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	logging.Info("")
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless.
	}
	return nil
}

// CheckFFmpeg verifies the encoder binary exists and responds to
// -version.
func CheckFFmpeg(binary string) error {
	path, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", binary)
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
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
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
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
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
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
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
