package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the fleet service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Devices       DevicesConfig       `mapstructure:"devices"`
	RateLimits    RateLimitConfig     `mapstructure:"rate_limits"`
	Logs          LogsConfig          `mapstructure:"logs"`
	Commands      CommandsConfig      `mapstructure:"commands"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Software      SoftwareConfig      `mapstructure:"software"`
	Health        HealthConfig        `mapstructure:"health"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MinConns        int32         `mapstructure:"min_conns"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// SyncConfig bounds usage ingestion.
type SyncConfig struct {
	MaxBatchRecords int           `mapstructure:"max_batch_records"`
	MaxFutureSkew   time.Duration `mapstructure:"max_future_skew"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
}

type DevicesConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	ParallelBulkSyncs int `mapstructure:"parallel_bulk_syncs"`
}

// LogsConfig selects where uploaded device logs are written.
type LogsConfig struct {
	Storage       string          `mapstructure:"storage"`
	MaxSizeMB     int             `mapstructure:"max_size_mb"`
	EncryptionKey string          `mapstructure:"encryption_key"`
	S3            LogsS3Config    `mapstructure:"s3"`
	Local         LogsLocalConfig `mapstructure:"local"`
}

type LogsS3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	// Static credentials; empty uses the default AWS credential chain.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
}

type LogsLocalConfig struct {
	Directory string `mapstructure:"directory"`
}

type CommandsConfig struct {
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

type MQTTConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	QoS            byte          `mapstructure:"qos"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// HealthConfig controls background dependency probes behind /healthz.
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	TokenHash string `mapstructure:"token_hash"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// SoftwareConfig lists catalog entries seeded at startup.
type SoftwareConfig struct {
	Seed []SoftwareSeed `mapstructure:"seed"`
}

type SoftwareSeed struct {
	Name     string `mapstructure:"name"`
	WingetID string `mapstructure:"winget_id"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else if cfg := os.Getenv("FLEET_CONFIG_FILE"); cfg != "" {
		v.SetConfigFile(cfg)
		explicitFile = true
	}

	if !explicitFile {
		v.SetConfigName("fleet")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills derived defaults.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "FLEET_DATABASE_URL")
	}
	if c.Redis.URL == "" {
		missing = append(missing, "FLEET_REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.RateLimits.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limits.requests_per_minute must be >= 0")
	}
	if c.RateLimits.ParallelBulkSyncs < 0 {
		return fmt.Errorf("rate_limits.parallel_bulk_syncs must be >= 0")
	}

	if err := c.Sync.validate(); err != nil {
		return err
	}
	if err := c.Devices.validate(); err != nil {
		return err
	}
	if err := c.Logs.validate(); err != nil {
		return err
	}
	if err := c.Commands.MQTT.validate(); err != nil {
		return err
	}
	for i, entry := range c.Software.Seed {
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("software.seed[%d].name must be provided", i)
		}
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.MaxBatchRecords <= 0 {
		return fmt.Errorf("sync.max_batch_records must be > 0")
	}
	if s.MaxFutureSkew <= 0 {
		s.MaxFutureSkew = 24 * time.Hour
	}
	if s.RetryAttempts <= 0 {
		s.RetryAttempts = 1
	}
	if s.RetryBackoff <= 0 {
		s.RetryBackoff = 50 * time.Millisecond
	}
	if s.IdempotencyTTL <= 0 {
		s.IdempotencyTTL = 24 * time.Hour
	}
	return nil
}

func (d *DevicesConfig) validate() error {
	if d.CacheSize < 0 {
		return fmt.Errorf("devices.cache_size must be >= 0")
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	return nil
}

func (l *LogsConfig) validate() error {
	if l.MaxSizeMB <= 0 {
		return fmt.Errorf("logs.max_size_mb must be > 0")
	}
	storage := strings.ToLower(strings.TrimSpace(l.Storage))
	switch storage {
	case "", "local":
		l.Storage = "local"
	case "s3":
		l.Storage = storage
		if strings.TrimSpace(l.S3.Bucket) == "" {
			return fmt.Errorf("logs.s3.bucket must be provided for s3 storage")
		}
	default:
		return fmt.Errorf("logs.storage must be local or s3")
	}
	return nil
}

func (m *MQTTConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	if strings.TrimSpace(m.Broker) == "" {
		return fmt.Errorf("commands.mqtt.broker must be provided when mqtt is enabled")
	}
	if m.QoS > 2 {
		return fmt.Errorf("commands.mqtt.qos must be 0, 1 or 2")
	}
	if strings.TrimSpace(m.TopicPrefix) == "" {
		m.TopicPrefix = "fleet/devices"
	}
	m.TopicPrefix = strings.TrimSuffix(m.TopicPrefix, "/")
	if m.ConnectTimeout <= 0 {
		m.ConnectTimeout = 10 * time.Second
	}
	if m.PublishTimeout <= 0 {
		m.PublishTimeout = 5 * time.Second
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 10)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("sync.max_batch_records", 1000)
	v.SetDefault("sync.max_future_skew", "24h")
	v.SetDefault("sync.retry_attempts", 3)
	v.SetDefault("sync.retry_backoff", "50ms")
	v.SetDefault("sync.idempotency_ttl", "24h")

	v.SetDefault("devices.cache_size", 10_000)
	v.SetDefault("devices.cache_ttl", "5m")

	v.SetDefault("rate_limits.requests_per_minute", 120)
	v.SetDefault("rate_limits.parallel_bulk_syncs", 8)

	v.SetDefault("logs.storage", "local")
	v.SetDefault("logs.max_size_mb", 5)
	v.SetDefault("logs.local.directory", "./data/logs")
	v.SetDefault("logs.encryption_key", "")
	v.SetDefault("logs.s3.bucket", "")
	v.SetDefault("logs.s3.prefix", "")
	v.SetDefault("logs.s3.region", "")
	v.SetDefault("logs.s3.endpoint", "")
	v.SetDefault("logs.s3.use_path_style", false)
	v.SetDefault("logs.s3.access_key_id", "")
	v.SetDefault("logs.s3.secret_access_key", "")
	v.SetDefault("logs.s3.session_token", "")

	v.SetDefault("commands.mqtt.enabled", false)
	v.SetDefault("commands.mqtt.broker", "")
	v.SetDefault("commands.mqtt.username", "")
	v.SetDefault("commands.mqtt.password", "")
	v.SetDefault("commands.mqtt.client_id", "fleetd")
	v.SetDefault("commands.mqtt.topic_prefix", "fleet/devices")
	v.SetDefault("commands.mqtt.qos", 1)
	v.SetDefault("commands.mqtt.connect_timeout", "10s")
	v.SetDefault("commands.mqtt.publish_timeout", "5s")

	v.SetDefault("admin.token_hash", "")

	v.SetDefault("health.check_interval", "15s")
	v.SetDefault("health.timeout", "2s")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
