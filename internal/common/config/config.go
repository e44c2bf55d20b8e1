package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Log      LogConfig      `json:"log"`
	Auth     AuthConfig     `json:"auth"`
	Mail     MailConfig     `json:"mail"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Name     string `json:"name"`      // service name, also used for Consul registration
	Host     string `json:"host"`      // bind address
	HTTPPort int    `json:"http_port"` // HTTP port
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	MaxIdle  int    `json:"max_idle"`
	MaxOpen  int    `json:"max_open"`
}

// ConsulConfig holds the Consul agent address.
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig holds tracing settings.
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // sample rate 0.0-1.0
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // log file path when output=file
}

// AuthConfig holds JWT settings for the auth middleware and token issuing.
type AuthConfig struct {
	Enabled     bool                `json:"enabled"`
	JWTSecret   string              `json:"jwt_secret"`
	Issuer      string              `json:"issuer"`
	Audience    string              `json:"audience"`
	TokenTTLMin int                 `json:"token_ttl_min"` // issued token lifetime in minutes
	PublicPaths []string            `json:"public_paths"`  // exact paths served without a token
	RBAC        map[string][]string `json:"rbac"`          // path prefix -> allowed roles
}

// MailConfig holds the outbound SMTP settings for report dispatch.
type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig reads a JSON config file. A missing file is not an error: the
// built-in development defaults are used instead.
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig returns the loaded global config, or defaults before LoadConfig ran.
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "inspection-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "vehicheck",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
		Auth: AuthConfig{
			Enabled:     true,
			Issuer:      "vehicheck",
			Audience:    "vehicheck",
			TokenTTLMin: 12 * 60,
			PublicPaths: []string{"/healthz", "/api/login"},
		},
		Mail: MailConfig{
			Host: "localhost",
			Port: 587,
		},
	}
}
