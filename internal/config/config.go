package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

type Config struct {
	// Application
	Version  string
	CameraID string
	LogLevel string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Camera endpoint. CameraURL wins over the individual parts when set.
	CameraURL      string
	CameraScheme   string
	CameraHost     string
	CameraPort     int
	CameraPath     string
	CameraUser     string
	CameraPassword string

	// Storage
	StoragePath      string
	SegmentFPS       float64
	SegmentCodec     string
	SegmentExtension string
	VideoMaxSegments int // 0 keeps every segment

	// Motion detection
	MotionMinArea          float64
	MotionAlpha            float64
	MotionDiffThreshold    float64
	MotionBlurSize         int
	MotionDilateIterations int
	WarmupFrames           int

	// Recording state machine
	RecordingDelay   time.Duration
	MaxSegmentFrames int
	MinSegmentBytes  int64
	ReseedOnRollover bool

	// Reconnection
	ReconnectStrategy   string // fixed or exponential
	ReconnectInterval   time.Duration
	ReconnectBackoffMin time.Duration
	ReconnectBackoffMax time.Duration
	ReconnectJitterPct  int

	// HTTP API
	APIEnabled bool
	Port       int

	// gRPC health service, 0 disables it
	GRPCHealthPort int

	// NATS (event sink, disabled when NatsURL is empty)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	EventsSubject      string

	// MQTT (event sink, disabled when MQTTBroker is empty)
	MQTTBroker   string
	MQTTTopic    string
	MQTTUser     string
	MQTTPassword string

	// Postgres journal, disabled when DatabaseURL is empty
	DatabaseURL string

	// Live preview
	PreviewEnabled bool
	PreviewEveryN  int
	PreviewQuality int

	EventBufferSize int

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// values present in the environment that failed to parse
	parseErrs []*models.ConfigError
}

// Load reads the given env files (".env" when none are given) and builds the configuration
// from the environment, falling back to defaults.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Strs("files", files).Msg("Loaded configuration from env file")
	}

	env := &envReader{}
	cfg := &Config{
		// Application
		Version:  env.getEnv("VERSION", "1.0.0"),
		CameraID: env.getEnv("CAMERA_ID", "cam-1"),
		LogLevel: env.getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: env.getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    env.getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    env.getEnvInt("LOGDY_PORT", 8080),

		// Camera endpoint (DroidCam defaults)
		CameraURL:      env.getEnv("CAMERA_URL", ""),
		CameraScheme:   env.getEnv("CAMERA_SCHEME", "http"),
		CameraHost:     env.getEnv("CAMERA_HOST", ""),
		CameraPort:     env.getEnvInt("CAMERA_PORT", 4747),
		CameraPath:     env.getEnv("CAMERA_PATH", "/video"),
		CameraUser:     env.getEnv("CAMERA_USER", ""),
		CameraPassword: env.getEnv("CAMERA_PASSWORD", ""),

		// Storage
		StoragePath:      env.getEnv("STORAGE_PATH", "./recordings"),
		SegmentFPS:       env.getEnvFloat("SEGMENT_FPS", 20),
		SegmentCodec:     env.getEnv("SEGMENT_CODEC", "XVID"),
		SegmentExtension: env.getEnv("SEGMENT_EXTENSION", ".avi"),
		VideoMaxSegments: env.getEnvInt("VIDEO_MAX_SEGMENTS", 0),

		// Motion detection
		MotionMinArea:          env.getEnvFloat("MOTION_MIN_AREA", 8000),
		MotionAlpha:            env.getEnvFloat("MOTION_ALPHA", 0.05),
		MotionDiffThreshold:    env.getEnvFloat("MOTION_DIFF_THRESHOLD", 30),
		MotionBlurSize:         env.getEnvInt("MOTION_BLUR_SIZE", 21),
		MotionDilateIterations: env.getEnvInt("MOTION_DILATE_ITERATIONS", 2),
		WarmupFrames:           env.getEnvInt("WARMUP_FRAMES", 10),

		// Recording
		RecordingDelay:   env.getEnvDuration("RECORDING_DELAY", 10*time.Second),
		MaxSegmentFrames: env.getEnvInt("MAX_SEGMENT_FRAMES", 1200), // ~1 minute at 20 fps
		MinSegmentBytes:  int64(env.getEnvInt("MIN_SEGMENT_BYTES", 10*1024)),
		ReseedOnRollover: env.getEnvBool("RESEED_ON_ROLLOVER", true),

		// Reconnection
		ReconnectStrategy:   env.getEnv("RECONNECT_STRATEGY", "fixed"),
		ReconnectInterval:   env.getEnvDuration("RECONNECT_INTERVAL", 5*time.Second),
		ReconnectBackoffMin: env.getEnvDuration("RECONNECT_BACKOFF_MIN", 1*time.Second),
		ReconnectBackoffMax: env.getEnvDuration("RECONNECT_BACKOFF_MAX", 30*time.Second),
		ReconnectJitterPct:  env.getEnvInt("RECONNECT_JITTER_PCT", 20),

		// HTTP API
		APIEnabled: env.getEnvBool("API_ENABLED", true),
		Port:       env.getEnvInt("PORT", 8000),

		GRPCHealthPort: env.getEnvInt("GRPC_HEALTH_PORT", 0),

		// NATS
		NatsURL:            env.getEnv("NATS_URL", ""),
		NatsConnectTimeout: env.getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  env.getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  env.getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		EventsSubject:      env.getEnv("EVENTS_SUBJECT", "recorder.events"),

		// MQTT
		MQTTBroker:   env.getEnv("MQTT_BROKER", ""),
		MQTTTopic:    env.getEnv("MQTT_TOPIC", "recorder/events"),
		MQTTUser:     env.getEnv("MQTT_USER", ""),
		MQTTPassword: env.getEnv("MQTT_PASSWORD", ""),

		DatabaseURL: env.getEnv("DATABASE_URL", ""),

		// Preview
		PreviewEnabled: env.getEnvBool("PREVIEW_ENABLED", true),
		PreviewEveryN:  env.getEnvInt("PREVIEW_EVERY_N", 5),
		PreviewQuality: env.getEnvInt("PREVIEW_QUALITY", 80),

		EventBufferSize: env.getEnvInt("EVENT_BUFFER_SIZE", 256),

		ShutdownTimeout: env.getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	cfg.parseErrs = env.errs
	return cfg
}

// StreamURL assembles the camera endpoint from the configured parts.
// A password-less user is embedded as a bare userinfo token, the way DroidCam expects it.
func (c *Config) StreamURL() string {
	if c.CameraURL != "" {
		return c.CameraURL
	}

	u := url.URL{
		Scheme: c.CameraScheme,
		Host:   c.CameraHost,
		Path:   c.CameraPath,
	}
	if c.CameraPort > 0 {
		u.Host = net.JoinHostPort(c.CameraHost, strconv.Itoa(c.CameraPort))
	}

	switch {
	case c.CameraUser != "" && c.CameraPassword != "":
		u.User = url.UserPassword(c.CameraUser, c.CameraPassword)
	case c.CameraUser != "":
		u.User = url.User(c.CameraUser)
	case c.CameraPassword != "":
		u.User = url.User(c.CameraPassword)
	}

	return u.String()
}

// Validate checks the options the recorder cannot run without.
func (c *Config) Validate() error {
	if len(c.parseErrs) > 0 {
		return c.parseErrs[0]
	}
	if c.CameraURL == "" && c.CameraHost == "" {
		return &models.ConfigError{Field: "CAMERA_HOST", Reason: "camera host or CAMERA_URL is required"}
	}
	if c.CameraURL != "" {
		if _, err := url.Parse(c.CameraURL); err != nil {
			return &models.ConfigError{Field: "CAMERA_URL", Reason: "not a valid URL", Err: err}
		}
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return &models.ConfigError{Field: "STORAGE_PATH", Reason: "storage path is required"}
	}
	if c.MotionMinArea <= 0 {
		return &models.ConfigError{Field: "MOTION_MIN_AREA", Reason: "must be positive"}
	}
	if c.MotionAlpha <= 0 || c.MotionAlpha > 1 {
		return &models.ConfigError{Field: "MOTION_ALPHA", Reason: "must be in (0, 1]"}
	}
	if c.MotionDiffThreshold <= 0 || c.MotionDiffThreshold >= 255 {
		return &models.ConfigError{Field: "MOTION_DIFF_THRESHOLD", Reason: "must be in (0, 255)"}
	}
	if c.MotionBlurSize <= 0 || c.MotionBlurSize%2 == 0 {
		return &models.ConfigError{Field: "MOTION_BLUR_SIZE", Reason: "must be a positive odd number"}
	}
	if c.MotionDilateIterations < 0 {
		return &models.ConfigError{Field: "MOTION_DILATE_ITERATIONS", Reason: "must not be negative"}
	}
	if c.WarmupFrames < 0 {
		return &models.ConfigError{Field: "WARMUP_FRAMES", Reason: "must not be negative"}
	}
	if c.RecordingDelay < 0 {
		return &models.ConfigError{Field: "RECORDING_DELAY", Reason: "must not be negative"}
	}
	if c.MaxSegmentFrames <= 0 {
		return &models.ConfigError{Field: "MAX_SEGMENT_FRAMES", Reason: "must be positive"}
	}
	if c.MinSegmentBytes < 0 {
		return &models.ConfigError{Field: "MIN_SEGMENT_BYTES", Reason: "must not be negative"}
	}
	if c.SegmentFPS <= 0 {
		return &models.ConfigError{Field: "SEGMENT_FPS", Reason: "must be positive"}
	}
	if len(c.SegmentCodec) != 4 {
		return &models.ConfigError{Field: "SEGMENT_CODEC", Reason: "must be a four character code"}
	}
	if !strings.HasPrefix(c.SegmentExtension, ".") || len(c.SegmentExtension) < 2 {
		return &models.ConfigError{Field: "SEGMENT_EXTENSION", Reason: "must start with a dot"}
	}
	if c.VideoMaxSegments < 0 {
		return &models.ConfigError{Field: "VIDEO_MAX_SEGMENTS", Reason: "must not be negative"}
	}
	switch c.ReconnectStrategy {
	case "fixed":
		if c.ReconnectInterval <= 0 {
			return &models.ConfigError{Field: "RECONNECT_INTERVAL", Reason: "must be positive"}
		}
	case "exponential":
		if c.ReconnectBackoffMin <= 0 || c.ReconnectBackoffMax < c.ReconnectBackoffMin {
			return &models.ConfigError{Field: "RECONNECT_BACKOFF_MIN", Reason: "need 0 < min <= max"}
		}
		if c.ReconnectJitterPct < 0 || c.ReconnectJitterPct > 100 {
			return &models.ConfigError{Field: "RECONNECT_JITTER_PCT", Reason: "must be within 0-100"}
		}
	default:
		return &models.ConfigError{Field: "RECONNECT_STRATEGY", Reason: fmt.Sprintf("unknown strategy %q", c.ReconnectStrategy)}
	}
	if c.PreviewEveryN <= 0 {
		return &models.ConfigError{Field: "PREVIEW_EVERY_N", Reason: "must be positive"}
	}
	if c.EventBufferSize <= 0 {
		return &models.ConfigError{Field: "EVENT_BUFFER_SIZE", Reason: "must be positive"}
	}
	return nil
}

// EnsureStorage creates the storage directory and proves it is writable.
func (c *Config) EnsureStorage() error {
	if err := os.MkdirAll(c.StoragePath, 0755); err != nil {
		return &models.ConfigError{Field: "STORAGE_PATH", Reason: "cannot create directory", Err: err}
	}

	probe := filepath.Join(c.StoragePath, ".write_probe.tmp")
	f, err := os.Create(probe)
	if err != nil {
		return &models.ConfigError{Field: "STORAGE_PATH", Reason: "directory is not writable", Err: err}
	}
	f.Close()

	if err := os.Remove(probe); err != nil {
		return &models.ConfigError{Field: "STORAGE_PATH", Reason: "cannot remove probe file", Err: err}
	}
	return nil
}

// envReader reads typed values and records the ones that are set but malformed
type envReader struct {
	errs []*models.ConfigError
}

func (r *envReader) fail(key, kind string, err error) {
	r.errs = append(r.errs, &models.ConfigError{Field: key, Reason: "not a valid " + kind, Err: err})
}

func (r *envReader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			r.fail(key, "integer", err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func (r *envReader) getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			r.fail(key, "number", err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func (r *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			r.fail(key, "duration (e.g. 10s, 500ms)", err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func (r *envReader) getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			r.fail(key, "boolean", err)
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
