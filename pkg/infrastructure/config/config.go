package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PRODPLAN_SERVER_PORT
const EnvPrefix = "PRODPLAN"

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// MaxExplosionDepth is the largest accepted explosion.max_depth
const MaxExplosionDepth = 50

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Explosion ExplosionConfig `mapstructure:"explosion"`
	Stock     StockConfig     `mapstructure:"stock"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PostgresDSN builds a key=value DSN unless an explicit DSN is configured
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" && d.Driver == DriverPostgres {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ExplosionConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
	Workers  int `mapstructure:"workers"`
}

type StockConfig struct {
	LastSyncFile string `mapstructure:"last_sync_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "prodplan.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "prodplan")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("explosion.max_depth", 15)
	v.SetDefault("explosion.workers", 4)

	v.SetDefault("stock.last_sync_file", "config/last_sync_time.json")
}

// Load reads configuration from path, or from prodplan.yaml in ./configs or . when path is empty.
// A .env file in the working directory is applied first; PRODPLAN_* variables override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("prodplan")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// conventional names used by container deployments
	_ = v.BindEnv("database.host", EnvPrefix+"_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.password", EnvPrefix+"_DATABASE_PASSWORD", "DB_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Explosion.MaxDepth < 1 || c.Explosion.MaxDepth > MaxExplosionDepth {
		problems = append(problems, fmt.Sprintf("explosion.max_depth must be between 1 and %d, got %d", MaxExplosionDepth, c.Explosion.MaxDepth))
	}
	if c.Explosion.Workers < 1 {
		problems = append(problems, fmt.Sprintf("explosion.workers must be at least 1, got %d", c.Explosion.Workers))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be one of sqlite, postgres, memory, got %q", c.Database.Driver))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
