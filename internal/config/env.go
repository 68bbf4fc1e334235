package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppAddr  string `mapstructure:"APP_ADDR"`
	GinMode  string `mapstructure:"GIN_MODE"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Storage. DBDriver is "mysql" or "memory".
	DBDriver     string        `mapstructure:"DB_DRIVER"`
	DBDSN        string        `mapstructure:"DB_DSN"`
	DBHost       string        `mapstructure:"DB_HOST"`
	DBUser       string        `mapstructure:"DB_USER"`
	DBPassword   string        `mapstructure:"DB_PASSWORD"`
	DBName       string        `mapstructure:"DB_NAME"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`
	SeedDemoData bool          `mapstructure:"SEED_DEMO_DATA"`

	BookingInitialStatus string `mapstructure:"BOOKING_INITIAL_STATUS"`

	JWTSecret    string `mapstructure:"JWT_SECRET"`
	AdminKeyHash string `mapstructure:"ADMIN_KEY_HASH"`

	// Redis is optional; an empty address disables idempotency keys.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitPerMin    int    `mapstructure:"RATE_LIMIT_PER_MIN"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("GIN_MODE", "")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_HOST", "127.0.0.1:3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "seat_engine")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("BOOKING_INITIAL_STATUS", "CONFIRMED")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_KEY_HASH", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
}

// LoadEnv reads config.yaml (from . or ./config) and overlays environment
// variables on top of it.
func LoadEnv() Env {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}
	env, err := fromViper(v)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return env
}

func fromViper(v *viper.Viper) (Env, error) {
	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return Env{}, err
	}
	env.DBDriver = strings.ToLower(strings.TrimSpace(env.DBDriver))
	env.BookingInitialStatus = strings.ToUpper(strings.TrimSpace(env.BookingInitialStatus))
	if env.StoreTimeout <= 0 {
		env.StoreTimeout = 5 * time.Second
	}
	if env.RateLimitPerMin < 0 {
		env.RateLimitPerMin = 0
	}
	return env, nil
}

func (e Env) IsProduction() bool {
	return strings.EqualFold(e.Env, "production")
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (e Env) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(e.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
