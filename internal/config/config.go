package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Working  WorkingConfig  `yaml:"working" mapstructure:"working"`
	Record   RecordConfig   `yaml:"record" mapstructure:"record"`
	Gate     GateConfig     `yaml:"gate" mapstructure:"gate"`
	Importer ImporterConfig `yaml:"importer" mapstructure:"importer"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// WorkingConfig locates the crawler's working store (SQLite).
type WorkingConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RecordConfig configures the system-of-record (CRM) database.
type RecordConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// GateConfig configures the admission gate.
type GateConfig struct {
	HomeCountry string `yaml:"home_country" mapstructure:"home_country"`
	Mode        string `yaml:"mode" mapstructure:"mode"`
}

// ImporterConfig configures the incremental sync importer.
type ImporterConfig struct {
	SourcePath   string  `yaml:"source_path" mapstructure:"source_path"`
	MaxRows      int     `yaml:"max_rows" mapstructure:"max_rows"`
	IntervalSecs int     `yaml:"interval_secs" mapstructure:"interval_secs"`
	WritesPerSec float64 `yaml:"writes_per_sec" mapstructure:"writes_per_sec"`
	WriteBurst   int     `yaml:"write_burst" mapstructure:"write_burst"`
}

// ServerConfig configures the sync-trigger HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("working.path", "leads.db")
	v.SetDefault("record.max_conns", 10)
	v.SetDefault("record.min_conns", 2)
	v.SetDefault("gate.home_country", "DE")
	v.SetDefault("gate.mode", "normal")
	v.SetDefault("importer.source_path", "leads.db")
	v.SetDefault("importer.max_rows", 500)
	v.SetDefault("importer.interval_secs", 300)
	v.SetDefault("importer.writes_per_sec", 50)
	v.SetDefault("importer.write_burst", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration required by the given command mode.
// Shared bounds are checked for every mode; database requirements depend
// on which stores the mode touches.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Working.Path == "" {
		problems = append(problems, "working.path is required")
	}
	if c.Importer.MaxRows < 1 || c.Importer.MaxRows > 10000 {
		problems = append(problems, "importer.max_rows must be between 1 and 10000")
	}
	if c.Importer.WritesPerSec < 0 {
		problems = append(problems, "importer.writes_per_sec must be >= 0")
	}

	switch mode {
	case "sync", "watch":
		if c.Record.DatabaseURL == "" {
			problems = append(problems, "record.database_url is required")
		}
		if mode == "watch" && c.Importer.IntervalSecs < 1 {
			problems = append(problems, "importer.interval_secs must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Record.DatabaseURL == "" {
			problems = append(problems, "record.database_url is required")
		}
	case "evaluate", "patterns", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
