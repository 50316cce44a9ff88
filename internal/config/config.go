package config

import (
	"fmt"
	"time"

	"github.com/OCAP2/bouncemarker/pkg/core"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "bouncemarker.cfg.json"

// MemoryConfig holds in-memory/JSON trace backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite trace backend settings. An empty Path keeps the
// database in memory.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds Postgres trace backend settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the connection string for the gorm postgres driver.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// InfluxConfig holds InfluxDB trace backend settings
type InfluxConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Token  string `json:"token" mapstructure:"token"`
	Org    string `json:"org" mapstructure:"org"`
	Bucket string `json:"bucket" mapstructure:"bucket"`

	// BackupPath receives gzipped line protocol when the server is unreachable.
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the trace backend
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	Memory   MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	Influx   InfluxConfig   `json:"influx" mapstructure:"influx"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// FrameConfig holds frame loop settings
type FrameConfig struct {
	FPS int
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./bouncelogs")
	viper.SetDefault("logToFile", false)

	viper.SetDefault("bounce.onAdd", false)
	viper.SetDefault("bounce.duration", "1s")
	viper.SetDefault("bounce.height", -1)
	viper.SetDefault("bounce.loop", 1)

	viper.SetDefault("frame.fps", 60)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./traces")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "bouncemarker")
	viper.SetDefault("storage.influx.url", "http://localhost:8086")
	viper.SetDefault("storage.influx.token", "")
	viper.SetDefault("storage.influx.org", "bouncemarker")
	viper.SetDefault("storage.influx.bucket", "traces")
	viper.SetDefault("storage.influx.backupPath", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "bouncemarker")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetBounceOptions returns the default bounce options.
func GetBounceOptions() core.BounceOptions {
	return core.BounceOptions{
		Duration: viper.GetDuration("bounce.duration"),
		Height:   core.Height(viper.GetFloat64("bounce.height")),
		Loop:     viper.GetInt("bounce.loop"),
	}
}

// GetMarkerOptions returns marker options built from the bounce section.
func GetMarkerOptions() core.MarkerOptions {
	return core.MarkerOptions{
		BounceOnAdd:        viper.GetBool("bounce.onAdd"),
		BounceOnAddOptions: GetBounceOptions(),
	}
}

// GetFrameConfig returns the frame loop settings.
func GetFrameConfig() FrameConfig {
	return FrameConfig{FPS: viper.GetInt("frame.fps")}
}

// GetStorageConfig returns the trace backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
		Influx: InfluxConfig{
			URL:        viper.GetString("storage.influx.url"),
			Token:      viper.GetString("storage.influx.token"),
			Org:        viper.GetString("storage.influx.org"),
			Bucket:     viper.GetString("storage.influx.bucket"),
			BackupPath: viper.GetString("storage.influx.backupPath"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
