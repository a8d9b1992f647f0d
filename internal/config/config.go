// internal/config/config.go
package config

import (
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Rules    RulesConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// RulesConfig carries the business constants behind the analytics engine.
// They live in config so what-if runs and tests can swap them without
// touching code.
type RulesConfig struct {
	SegmentMajorMin    float64
	SegmentMidMin      float64
	AtRiskDays         int
	ChurningDays       int
	ChurnedDays        int
	DecliningYoYPct    float64
	DudMaturityDays    int
	ReturningDoorYield float64
	B2BQuarterWeights  []float64
	CorpQuarterWeights []float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "wholesale")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 300)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "analytics-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Business rules. The day thresholds are half-open bucket edges and
		// must stay strictly increasing; the engine validates them on use.
		viper.SetDefault("RULES_SEGMENT_MAJOR_MIN", 20000.0)
		viper.SetDefault("RULES_SEGMENT_MID_MIN", 5000.0)
		viper.SetDefault("RULES_AT_RISK_DAYS", 180)
		viper.SetDefault("RULES_CHURNING_DAYS", 270)
		viper.SetDefault("RULES_CHURNED_DAYS", 365)
		viper.SetDefault("RULES_DECLINING_YOY_PCT", -20.0)
		viper.SetDefault("RULES_DUD_MATURITY_DAYS", 133)
		viper.SetDefault("RULES_RETURNING_DOOR_YIELD", 10000.0)
		viper.SetDefault("RULES_B2B_QUARTER_WEIGHTS", "0.18,0.22,0.26,0.34")
		viper.SetDefault("RULES_CORP_QUARTER_WEIGHTS", "0.12,0.18,0.24,0.46")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Rules: RulesConfig{
				SegmentMajorMin:    viper.GetFloat64("RULES_SEGMENT_MAJOR_MIN"),
				SegmentMidMin:      viper.GetFloat64("RULES_SEGMENT_MID_MIN"),
				AtRiskDays:         viper.GetInt("RULES_AT_RISK_DAYS"),
				ChurningDays:       viper.GetInt("RULES_CHURNING_DAYS"),
				ChurnedDays:        viper.GetInt("RULES_CHURNED_DAYS"),
				DecliningYoYPct:    viper.GetFloat64("RULES_DECLINING_YOY_PCT"),
				DudMaturityDays:    viper.GetInt("RULES_DUD_MATURITY_DAYS"),
				ReturningDoorYield: viper.GetFloat64("RULES_RETURNING_DOOR_YIELD"),
				B2BQuarterWeights:  floatSlice("RULES_B2B_QUARTER_WEIGHTS"),
				CorpQuarterWeights: floatSlice("RULES_CORP_QUARTER_WEIGHTS"),
			},
		}
	})

	return instance
}

// floatSlice parses a comma-separated float list (e.g. "0.18,0.22,0.26,0.34").
// Malformed entries are skipped; the engine validates weight sums downstream.
func floatSlice(key string) []float64 {
	parts := strings.Split(viper.GetString(key), ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		if f, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
			out = append(out, f)
		}
	}

	return out
}
