package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort    string `yaml:"http_port"`
	MongoDBURL  string `yaml:"mongodb_url"`
	MongoDBName string `yaml:"mongodb_name"`
	NATSURL     string `yaml:"nats_url"`
	RedisURL    string `yaml:"redis_url"`
	RedisPass   string `yaml:"redis_password"`
	RedisDB     int    `yaml:"redis_db"`
	LogLevel    string `yaml:"log_level"`

	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	CodeforcesBaseURL string        `yaml:"codeforces_base_url"`
	ResyncSchedule    string        `yaml:"resync_schedule"`
	StatementCacheTTL time.Duration `yaml:"statement_cache_ttl"`
}

type BrowserConfig struct {
	// Env is "local" (search installed Chrome) or "serverless" (bundled binary).
	Env         string `yaml:"env"`
	Evasion     string `yaml:"evasion"`
	ChromePath  string `yaml:"chrome_path"`
	BundledPath string `yaml:"bundled_path"`
}

type ScraperConfig struct {
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	SelectorTimeout   time.Duration `yaml:"selector_timeout"`
	ContestDelay      time.Duration `yaml:"contest_delay"`
}

type RateLimitConfig struct {
	MinInterval   time.Duration `yaml:"min_interval"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// LoadConfig reads .env (optional), the process environment and, when
// UPSOLVE_CONFIG names a file, a YAML overlay applied last.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("Error loading .env file", err)
	}
	config := Config{
		HTTPPort:    getEnv("HTTPPORT", "8080"),
		MongoDBURL:  getEnv("MONGODBURL", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODBNAME", "upsolve_db"),
		NATSURL:     getEnv("NATSURL", "nats://localhost:4222"),
		RedisURL:    getEnv("REDISURL", "localhost:6379"),
		RedisPass:   getEnv("REDISPASSWORD", ""),
		RedisDB:     getEnvInt("REDISDB", 0),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Browser: BrowserConfig{
			Env:         getEnv("BROWSER_ENV", "local"),
			Evasion:     getEnv("BROWSER_EVASION", "plain"),
			ChromePath:  getEnv("CHROME_PATH", ""),
			BundledPath: getEnv("CHROME_BUNDLED_PATH", ""),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 45*time.Second),
			SelectorTimeout:   getEnvDuration("SELECTOR_TIMEOUT", 20*time.Second),
			ContestDelay:      getEnvDuration("CONTEST_DELAY", 2*time.Second),
		},
		RateLimit: RateLimitConfig{
			MinInterval:   getEnvDuration("RATE_MIN_INTERVAL", 2*time.Second),
			MaxConcurrent: getEnvInt("RATE_MAX_CONCURRENT", 1),
		},
		CodeforcesBaseURL: getEnv("CODEFORCES_BASE_URL", "https://codeforces.com"),
		ResyncSchedule:    getEnv("RESYNC_SCHEDULE", "@every 24h"),
		StatementCacheTTL: getEnvDuration("STATEMENT_CACHE_TTL", 0),
	}

	if path := os.Getenv("UPSOLVE_CONFIG"); path != "" {
		if err := applyYAML(&config, path); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}

func applyYAML(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
