package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBConnectAttempts int           `mapstructure:"DB_CONNECT_ATTEMPTS"`
	DBConnectInterval time.Duration `mapstructure:"DB_CONNECT_INTERVAL"`
	RunMigrations     bool          `mapstructure:"RUN_MIGRATIONS"`

	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`

	ExpireJobSchedule string `mapstructure:"EXPIRE_JOB_SCHEDULE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_MAX_CONNS", "DB_CONNECT_ATTEMPTS", "DB_CONNECT_INTERVAL", "RUN_MIGRATIONS",
	"SERVER_PORT", "SHUTDOWN_TIMEOUT", "CORS_ALLOWED_ORIGINS",
	"EXPIRE_JOB_SCHEDULE", "LOG_LEVEL", "LOG_FORMAT",
}

// LoadConfig читает конфигурацию из переменных окружения.
// .env к этому моменту уже загружен через godotenv в main.
func LoadConfig() (*Config, error) {
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 3)
	viper.SetDefault("DB_CONNECT_INTERVAL", "2s")
	viper.SetDefault("RUN_MIGRATIONS", true)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("EXPIRE_JOB_SCHEDULE", "@every 1m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.AutomaticEnv()

	// Без явного BindEnv Unmarshal не видит переменные окружения
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && (c.DBHost == "" || c.DBName == "") {
		return errors.New("config: DATABASE_URL or DB_HOST and DB_NAME must be set")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// DSN строка подключения к postgres
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
