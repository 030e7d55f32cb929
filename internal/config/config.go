package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Embedding   EmbeddingConfig
	Recognition RecognitionConfig
	Camera      CameraConfig
	Attendance  AttendanceConfig
	Enroll      EnrollConfig
	Directory   DirectoryConfig
	Redis       RedisConfig
	Web         WebConfig
	Logging     LoggingConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type RecognitionConfig struct {
	IndexPath    string  // Path of the trained sample index (RECOGNITION_INDEX_PATH)
	MaxDistance  float64 // Maximum cosine distance for a sample to vote
	MinDetScore  float64 // Faces detected below this score are ignored
	Neighbors    int     // Nearest samples consulted per face
	MaxFrameSize int     // Frames are downscaled to this size before upload
}

type CameraConfig struct {
	SnapshotURL string        // IP camera snapshot endpoint (CAMERA_SNAPSHOT_URL)
	Dir         string        // Directory of recorded frames (CAMERA_DIR)
	Interval    time.Duration // Delay between snapshot polls
	MaxFailures int           // Consecutive read failures that end the session
	Timeout     time.Duration // Per-request timeout for snapshot polls
}

type AttendanceConfig struct {
	DebounceFrames int
	Cooldown       time.Duration
	CooldownSeed   bool // Seed the cooldown gate from today's check-outs at session start
	NameFallback   bool // Use the raw label as name when the directory has no entry
	Timezone       string
}

// Location resolves the configured timezone. "Local" and empty mean the process timezone.
func (c *AttendanceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type EnrollConfig struct {
	MinSamples        int
	DuplicateDistance float64 // Samples closer than this to another employee are rejected
}

type DirectoryConfig struct {
	HRDatabaseURL string // MariaDB DSN of an external HR database (optional)
	Query         string // Lookup query, one placeholder for the employee ID
	CacheSize     int
}

type RedisConfig struct {
	Addr     string // empty disables the Redis cooldown store
	Password string
	DB       int
}

type WebConfig struct {
	Host           string
	Port           int
	APIToken       string   // optional bearer token for the report API
	AllowedOrigins []string // CORS origins besides localhost (WEB_ALLOWED_ORIGINS, comma-separated)
}

type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

type defaultsFile struct {
	Attendance struct {
		DebounceFrames int    `yaml:"debounce_frames"`
		Cooldown       string `yaml:"cooldown"`
		CooldownSeed   bool   `yaml:"cooldown_seed"`
		NameFallback   bool   `yaml:"name_fallback"`
		Timezone       string `yaml:"timezone"`
	} `yaml:"attendance"`
	Recognition struct {
		MaxDistance  float64 `yaml:"max_distance"`
		MinDetScore  float64 `yaml:"min_det_score"`
		Neighbors    int     `yaml:"neighbors"`
		MaxFrameSize int     `yaml:"max_frame_size"`
	} `yaml:"recognition"`
	Camera struct {
		Interval    string `yaml:"interval"`
		MaxFailures int    `yaml:"max_failures"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"camera"`
	Enroll struct {
		MinSamples        int     `yaml:"min_samples"`
		DuplicateDistance float64 `yaml:"duplicate_distance"`
	} `yaml:"enroll"`
	Directory struct {
		CacheSize int    `yaml:"cache_size"`
		Query     string `yaml:"query"`
	} `yaml:"directory"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float, falling back to the default on bad input.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads a Go duration string ("10m", "250ms").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("invalid duration in embedded defaults.yaml: " + s)
	}
	return d
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Recognition: RecognitionConfig{
			IndexPath:    envString("RECOGNITION_INDEX_PATH", "output/samples.hnsw"),
			MaxDistance:  envFloat("RECOGNITION_MAX_DISTANCE", defaults.Recognition.MaxDistance),
			MinDetScore:  envFloat("RECOGNITION_MIN_DET_SCORE", defaults.Recognition.MinDetScore),
			Neighbors:    envInt("RECOGNITION_NEIGHBORS", defaults.Recognition.Neighbors),
			MaxFrameSize: envInt("RECOGNITION_MAX_FRAME_SIZE", defaults.Recognition.MaxFrameSize),
		},
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_SNAPSHOT_URL"),
			Dir:         os.Getenv("CAMERA_DIR"),
			Interval:    envDuration("CAMERA_INTERVAL", mustDuration(defaults.Camera.Interval)),
			MaxFailures: envInt("CAMERA_MAX_FAILURES", defaults.Camera.MaxFailures),
			Timeout:     envDuration("CAMERA_TIMEOUT", mustDuration(defaults.Camera.Timeout)),
		},
		Attendance: AttendanceConfig{
			DebounceFrames: envInt("ATTENDANCE_DEBOUNCE_FRAMES", defaults.Attendance.DebounceFrames),
			Cooldown:       envDuration("ATTENDANCE_COOLDOWN", mustDuration(defaults.Attendance.Cooldown)),
			CooldownSeed:   envBool("ATTENDANCE_COOLDOWN_SEED", defaults.Attendance.CooldownSeed),
			NameFallback:   envBool("ATTENDANCE_NAME_FALLBACK", defaults.Attendance.NameFallback),
			Timezone:       envString("ATTENDANCE_TIMEZONE", defaults.Attendance.Timezone),
		},
		Enroll: EnrollConfig{
			MinSamples:        envInt("ENROLL_MIN_SAMPLES", defaults.Enroll.MinSamples),
			DuplicateDistance: envFloat("ENROLL_DUPLICATE_DISTANCE", defaults.Enroll.DuplicateDistance),
		},
		Directory: DirectoryConfig{
			HRDatabaseURL: os.Getenv("DIRECTORY_HR_DATABASE_URL"),
			Query:         envString("DIRECTORY_QUERY", defaults.Directory.Query),
			CacheSize:     envInt("DIRECTORY_CACHE_SIZE", defaults.Directory.CacheSize),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			APIToken:       os.Getenv("WEB_API_TOKEN"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
	}
}

// Validate reports configuration values the attendance pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Attendance.DebounceFrames < 1 {
		errs = append(errs, errors.New("ATTENDANCE_DEBOUNCE_FRAMES must be at least 1"))
	}
	if c.Attendance.Cooldown < 0 || c.Attendance.Cooldown > 24*time.Hour {
		errs = append(errs, fmt.Errorf("ATTENDANCE_COOLDOWN must be between 0 and 24h, got %s", c.Attendance.Cooldown))
	}
	if _, err := c.Attendance.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Recognition.MaxDistance <= 0 || c.Recognition.MaxDistance > 2 {
		errs = append(errs, fmt.Errorf("RECOGNITION_MAX_DISTANCE must be in (0, 2], got %v", c.Recognition.MaxDistance))
	}
	if c.Enroll.MinSamples < 1 {
		errs = append(errs, errors.New("ENROLL_MIN_SAMPLES must be at least 1"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
