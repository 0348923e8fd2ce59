// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every runtime setting of the service binaries.
type Config struct {
	Port string

	DataBackend string // mongo or sqlite
	MongoURI    string
	MongoDB     string
	SQLitePath  string

	ModelStore string // file or mongo
	ModelDir   string

	JWTSecret   string
	JWTExpiry   time.Duration
	AuthEnabled bool
	AdminUser   string
	AdminPass   string

	DistanceThreshold float64
	TimeThresholdDays int
	RidgeAlpha        float64
	HoldoutFraction   float64

	CacheTTL  time.Duration
	CacheSize int

	LogLevel  string
	LogFormat string

	NotifyURLs   []string
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DataBackend:       strings.ToLower(getEnv("DATA_BACKEND", "sqlite")),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "fleet"),
		SQLitePath:        getEnv("SQLITE_PATH", "fleet.db"),
		ModelStore:        strings.ToLower(getEnv("MODEL_STORE", "file")),
		ModelDir:          getEnv("MODEL_DIR", "models"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		AdminUser:         os.Getenv("ADMIN_USER"),
		AdminPass:         os.Getenv("ADMIN_PASS"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		NotifyURLs:        splitList(os.Getenv("NOTIFY_URLS")),
		MQTTBroker:        os.Getenv("MQTT_BROKER"),
		MQTTTopic:         getEnv("MQTT_TOPIC", "fleet/maintenance/reminders"),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "fleet-maintenance"),
		DistanceThreshold: 5000,
		TimeThresholdDays: 180,
		RidgeAlpha:        1.0,
		HoldoutFraction:   0,
		CacheTTL:          time.Hour,
		CacheSize:         100,
		JWTExpiry:         24 * time.Hour,
		AuthEnabled:       true,
	}

	var err error
	if cfg.JWTExpiry, err = durationEnv("JWT_EXPIRY", cfg.JWTExpiry); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.AuthEnabled, err = boolEnv("AUTH_ENABLED", cfg.AuthEnabled); err != nil {
		return nil, err
	}
	if cfg.DistanceThreshold, err = floatEnv("DISTANCE_THRESHOLD", cfg.DistanceThreshold); err != nil {
		return nil, err
	}
	if cfg.RidgeAlpha, err = floatEnv("RIDGE_ALPHA", cfg.RidgeAlpha); err != nil {
		return nil, err
	}
	if cfg.HoldoutFraction, err = floatEnv("HOLDOUT_FRACTION", cfg.HoldoutFraction); err != nil {
		return nil, err
	}
	if cfg.TimeThresholdDays, err = intEnv("TIME_THRESHOLD_DAYS", cfg.TimeThresholdDays); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = intEnv("CACHE_SIZE", cfg.CacheSize); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// maxThresholdDays matches analytics.MaxForecastDays.
const maxThresholdDays = 36500

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case "mongo", "sqlite":
	default:
		return fmt.Errorf("DATA_BACKEND must be mongo or sqlite, got %q", c.DataBackend)
	}
	switch c.ModelStore {
	case "file", "mongo":
	default:
		return fmt.Errorf("MODEL_STORE must be file or mongo, got %q", c.ModelStore)
	}
	if !(c.DistanceThreshold > 0) || math.IsInf(c.DistanceThreshold, 0) {
		return fmt.Errorf("DISTANCE_THRESHOLD must be a positive finite number")
	}
	if c.TimeThresholdDays <= 0 || c.TimeThresholdDays > maxThresholdDays {
		return fmt.Errorf("TIME_THRESHOLD_DAYS must be between 1 and %d", maxThresholdDays)
	}
	if !(c.RidgeAlpha > 0) || math.IsInf(c.RidgeAlpha, 0) {
		return fmt.Errorf("RIDGE_ALPHA must be positive")
	}
	if !(c.HoldoutFraction >= 0 && c.HoldoutFraction < 1) {
		return fmt.Errorf("HOLDOUT_FRACTION must be in [0, 1)")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be at least 1")
	}
	return nil
}

// ConfigureLogger applies the level and formatter to the standard logger.
func (c *Config) ConfigureLogger() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
