package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/offenesthueringen/bahnclip/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
	Clip      ClipConfig      `mapstructure:"clip"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// BodyLimitMB caps request bodies; boundaries and section sets are large.
	BodyLimitMB int `mapstructure:"body_limit_mb"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClipConfig describes the default simplify-and-filter job.
type ClipConfig struct {
	Region       string        `mapstructure:"region"`
	Boundary     string        `mapstructure:"boundary"`
	Sections     string        `mapstructure:"sections"`
	OutputDir    string        `mapstructure:"output_dir"`
	BoundaryOut  string        `mapstructure:"boundary_out"`
	SectionsOut  string        `mapstructure:"sections_out"`
	BoundaryVar  string        `mapstructure:"boundary_var"`
	SectionsVar  string        `mapstructure:"sections_var"`
	Tolerance    float64       `mapstructure:"tolerance"`
	BBox         domain.Bounds `mapstructure:"bbox"`
	Workers      int           `mapstructure:"workers"`
	FetchTimeout int           `mapstructure:"fetch_timeout"`
	// Persist makes cmd/clip record runs in Postgres and use the shared
	// cache and event stream instead of process memory.
	Persist      bool          `mapstructure:"persist"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.body_limit_mb", 64)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bahnclip")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "bahnclip")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "clip-queue")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// The Thüringen job with the 2015-09 connectivity dataset.
	v.SetDefault("clip.region", "Thüringen")
	v.SetDefault("clip.boundary", "Thüringen.geojson")
	v.SetDefault("clip.sections", "connectivity_2015_09.geojson")
	v.SetDefault("clip.output_dir", ".")
	v.SetDefault("clip.boundary_out", "Thueringensimple.geojson")
	v.SetDefault("clip.sections_out", "connectivity_Thüringen_2015_09.geojson")
	v.SetDefault("clip.boundary_var", "Thueringensimple")
	v.SetDefault("clip.sections_var", "Streckenabschnitte")
	v.SetDefault("clip.tolerance", 0.01)
	v.SetDefault("clip.bbox.min_x", 9.8778443239)
	v.SetDefault("clip.bbox.min_y", 50.2042330625)
	v.SetDefault("clip.bbox.max_x", 12.6531964048)
	v.SetDefault("clip.bbox.max_y", 51.6490678544)
	v.SetDefault("clip.workers", 0)
	v.SetDefault("clip.fetch_timeout", 60)
	v.SetDefault("clip.persist", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: BAHNCLIP_CLIP_TOLERANCE → clip.tolerance
	v.SetEnvPrefix("BAHNCLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimitMB <= 0 {
		errs = append(errs, "server.body_limit_mb must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}
	if math.IsNaN(c.Clip.Tolerance) || math.IsInf(c.Clip.Tolerance, 0) || c.Clip.Tolerance < 0 {
		errs = append(errs, fmt.Sprintf("clip.tolerance must be a finite non-negative number, got %v", c.Clip.Tolerance))
	}
	if b := c.Clip.BBox; !b.IsZero() && (b.MinX >= b.MaxX || b.MinY >= b.MaxY) {
		errs = append(errs, "clip.bbox min values must be below max values")
	}
	if c.Clip.Workers < 0 {
		errs = append(errs, "clip.workers must not be negative")
	}
	if c.Clip.BoundaryOut == "" || c.Clip.SectionsOut == "" {
		errs = append(errs, "clip.boundary_out and clip.sections_out are required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
