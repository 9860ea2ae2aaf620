package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hupe1980/agentlink/core"
)

// EnvPrefix is the prefix for environment variable overrides. A config key
// maps to its variable by upper-casing and replacing dots with underscores,
// e.g. "communicator_type" becomes AGENTLINK_COMMUNICATOR_TYPE.
const EnvPrefix = "AGENTLINK"

// Options holds configuration overrides passed to Load().
type Options struct {
	// Path is an explicit config file path. Empty means no file is read and
	// the configuration comes from defaults and the environment alone.
	Path string
	// DotenvFiles are .env files loaded into the process environment before
	// reading. Missing files are skipped silently; a .env file never
	// overrides a variable that is already set.
	DotenvFiles []string
}

// Load builds a validated core.AgentConfig from defaults, an optional config
// file and AGENTLINK_-prefixed environment variables. Any failure surfaces
// as a *core.ConfigurationError.
func Load(optFns ...func(o *Options)) (core.AgentConfig, error) {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	for _, f := range opts.DotenvFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return core.AgentConfig{}, &core.ConfigurationError{Reason: fmt.Sprintf("loading env file %q: %v", f, err)}
		}
	}

	v := viper.New()
	v.SetDefault("communicator_type", "inproc")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about; bind the
	// scalar fields explicitly so a pure-env setup works without a file.
	for _, key := range []string{"name", "communicator_type", "log_level"} {
		if err := v.BindEnv(key); err != nil {
			return core.AgentConfig{}, &core.ConfigurationError{Reason: fmt.Sprintf("binding env key %q: %v", key, err)}
		}
	}

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return core.AgentConfig{}, &core.ConfigurationError{Reason: fmt.Sprintf("reading config file %q: %v", opts.Path, err)}
		}
	}

	var cfg core.AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return core.AgentConfig{}, &core.ConfigurationError{Reason: fmt.Sprintf("decoding config: %v", err)}
	}

	if err := cfg.Validate(); err != nil {
		return core.AgentConfig{}, err
	}

	return cfg, nil
}
