// Package logger wraps logrus with the rotation and formatting conventions
// the rest of this module's ambient stack expects, following the teacher's
// internal/logger/logger.go (LoggerManager over a single *logrus.Logger,
// switchable formatter and output, runtime UpdateConfig).
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config mirrors internal/config.TCPConfig's sibling-section shape: a plain
// struct meant to be unmarshalled from the same YAML document by viper,
// independent of any other package's config type.
type Config struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // "json" or "text"
	Output     string `yaml:"output" mapstructure:"output"` // "stdout", "stderr", or "file"
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Caller     bool   `yaml:"report_caller" mapstructure:"report_caller"`
}

// Manager owns a configured logrus.Logger and lets it be reconfigured at
// runtime from internal/config.Watcher's reload callback.
type Manager struct {
	logger *logrus.Logger
	config *Config
}

// New builds a Manager from cfg. A nil cfg is an error: callers that want
// stock behavior should pass a zero-value Config explicitly.
func New(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logger config cannot be nil")
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		log.Warnf("invalid log level %q, using info", cfg.Level)
	}
	log.SetLevel(level)

	if err := setFormatter(log, cfg); err != nil {
		return nil, fmt.Errorf("logger: formatter: %w", err)
	}
	if err := setOutput(log, cfg); err != nil {
		return nil, fmt.Errorf("logger: output: %w", err)
	}
	log.SetReportCaller(cfg.Caller)

	return &Manager{logger: log, config: cfg}, nil
}

func setFormatter(log *logrus.Logger, cfg *Config) error {
	const timestampFormat = "2006-01-02 15:04:05.000"

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return nil
}

func setOutput(log *logrus.Logger, cfg *Config) error {
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		log.SetOutput(os.Stderr)
	case "file":
		if cfg.FilePath == "" {
			return fmt.Errorf("file path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if strings.EqualFold(cfg.Level, "debug") {
			log.SetOutput(io.MultiWriter(os.Stdout, rotator))
		} else {
			log.SetOutput(rotator)
		}
	case "stdout", "":
		log.SetOutput(os.Stdout)
	default:
		return fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
	return nil
}

// UpdateConfig applies newCfg's changes in place, touching only the pieces
// that actually differ so an unrelated reload doesn't reset unrelated state.
func (m *Manager) UpdateConfig(newCfg *Config) error {
	if newCfg == nil {
		return fmt.Errorf("new config cannot be nil")
	}

	if newCfg.Level != m.config.Level {
		level, err := logrus.ParseLevel(newCfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		m.logger.SetLevel(level)
	}
	if newCfg.Format != m.config.Format {
		if err := setFormatter(m.logger, newCfg); err != nil {
			return fmt.Errorf("updating log formatter: %w", err)
		}
	}
	if newCfg.Output != m.config.Output || newCfg.FilePath != m.config.FilePath {
		if err := setOutput(m.logger, newCfg); err != nil {
			return fmt.Errorf("updating log output: %w", err)
		}
	}
	if newCfg.Caller != m.config.Caller {
		m.logger.SetReportCaller(newCfg.Caller)
	}

	m.config = newCfg
	return nil
}

// Raw returns the underlying logrus.Logger for callers that need it
// directly (e.g. wiring into a third-party library's logger hook).
func (m *Manager) Raw() *logrus.Logger { return m.logger }

func (m *Manager) Debug(args ...interface{})                 { m.logger.Debug(args...) }
func (m *Manager) Debugf(format string, args ...interface{}) { m.logger.Debugf(format, args...) }
func (m *Manager) Info(args ...interface{})                  { m.logger.Info(args...) }
func (m *Manager) Infof(format string, args ...interface{})  { m.logger.Infof(format, args...) }
func (m *Manager) Warn(args ...interface{})                  { m.logger.Warn(args...) }
func (m *Manager) Warnf(format string, args ...interface{})  { m.logger.Warnf(format, args...) }
func (m *Manager) Error(args ...interface{})                 { m.logger.Error(args...) }
func (m *Manager) Errorf(format string, args ...interface{}) { m.logger.Errorf(format, args...) }

func (m *Manager) WithField(key string, value interface{}) *logrus.Entry {
	return m.logger.WithField(key, value)
}

func (m *Manager) WithFields(fields logrus.Fields) *logrus.Entry {
	return m.logger.WithFields(fields)
}
