package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Loader reads a Config from a YAML file with environment-variable
// overrides, following the teacher's ConfigLoader (internal/config/loader.go):
// SetConfigType, an env prefix bound via AutomaticEnv, then Unmarshal.
type Loader struct {
	configPath string
	envPrefix  string
	v          *viper.Viper
}

// NewLoader builds a Loader for configPath, defaulting envPrefix to
// "VSTCP" the way the teacher defaults to its own service name.
func NewLoader(configPath, envPrefix string) *Loader {
	if envPrefix == "" {
		envPrefix = "VSTCP"
	}
	return &Loader{configPath: configPath, envPrefix: envPrefix, v: viper.New()}
}

// Load reads configPath, applies environment overrides, and returns the
// parsed Config. A missing file is not an error: Default() fills in for it,
// the same graceful-degrade the teacher's loader performs for a missing
// config.<env>.yaml before falling back to config.yaml — here there is only
// one file to try, so a miss just means "run with defaults".
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigFile(l.configPath)
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	cfg := Default()
	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound || errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", l.configPath, err)
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling %s: %w", l.configPath, err)
	}
	return cfg, nil
}
