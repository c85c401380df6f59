package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChainSafe/log15"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tm-db"
	"gopkg.in/yaml.v2"

	"github.com/ComposableFi/light-clients/internal/collections"
	"github.com/ComposableFi/light-clients/internal/store"
	"github.com/ComposableFi/light-clients/modules/core/02-client/keeper"
)

const (
	flagHome                 = "home"
	flagDBBackend            = "db-backend"
	flagLogLevel             = "log-level"
	flagLogFormat            = "log-format"
	flagExpectedTimePerBlock = "expected-time-per-block"
	flagHostHeight           = "host-height"
	flagHostTime             = "host-time"

	configFileName = "config"
	dbName         = "clients"
	envPrefix      = "LCCTL"
)

// Config holds the settings of lcctl. Every field can be set in the config file of the
// home directory, through an LCCTL_ prefixed environment variable or with the flag of the
// same name.
type Config struct {
	Home                 string        `mapstructure:"home" yaml:"-"`
	DBBackend            string        `mapstructure:"db-backend" yaml:"db-backend"`
	LogLevel             string        `mapstructure:"log-level" yaml:"log-level"`
	LogFormat            string        `mapstructure:"log-format" yaml:"log-format"`
	ExpectedTimePerBlock time.Duration `mapstructure:"expected-time-per-block" yaml:"expected-time-per-block"`
	HostHeight           uint64        `mapstructure:"host-height" yaml:"host-height"`
	HostTime             string        `mapstructure:"host-time" yaml:"host-time"`
}

// DefaultConfig returns the configuration used when neither a config file nor flags are given.
func DefaultConfig() Config {
	return Config{
		Home:                 defaultHome(),
		DBBackend:            string(dbm.GoLevelDBBackend),
		LogLevel:             "info",
		LogFormat:            "terminal",
		ExpectedTimePerBlock: keeper.DefaultExpectedTimePerBlock,
		HostHeight:           1,
	}
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lcctl"
	}
	return filepath.Join(home, ".lcctl")
}

// ValidateBasic performs basic validation of the configuration.
func (c Config) ValidateBasic() error {
	if !collections.Contains(c.DBBackend, store.SupportedBackends) {
		return fmt.Errorf("unsupported db backend %q, expected one of %v", c.DBBackend, store.SupportedBackends)
	}
	if _, err := log15.LvlFromString(c.LogLevel); err != nil {
		return err
	}
	if _, err := logFormat(c.LogFormat); err != nil {
		return err
	}
	if c.ExpectedTimePerBlock < 0 {
		return fmt.Errorf("expected time per block cannot be negative")
	}
	if c.HostHeight == 0 {
		return fmt.Errorf("host height cannot be zero")
	}
	if c.HostTime != "" {
		if _, err := time.Parse(time.RFC3339Nano, c.HostTime); err != nil {
			return fmt.Errorf("invalid host time: %w", err)
		}
	}
	return nil
}

// loadConfig reads the config file of the home directory, if any, into v and decodes
// the resulting settings.
func loadConfig(v *viper.Viper) (Config, error) {
	home := v.GetString(flagHome)
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return Config{}, err
	}
	conf.Home = home

	if err := conf.ValidateBasic(); err != nil {
		return Config{}, fmt.Errorf("error in config: %w", err)
	}
	return conf, nil
}

// writeConfig writes conf as the config file of its home directory.
func writeConfig(conf Config) (string, error) {
	if err := os.MkdirAll(conf.Home, 0o755); err != nil {
		return "", err
	}

	bz, err := yaml.Marshal(conf)
	if err != nil {
		return "", err
	}

	path := filepath.Join(conf.Home, configFileName+".yaml")
	return path, os.WriteFile(path, bz, 0o600)
}

func logFormat(name string) (log15.Format, error) {
	switch name {
	case "terminal":
		return log15.TerminalFormat(), nil
	case "logfmt":
		return log15.LogfmtFormat(), nil
	case "json":
		return log15.JsonFormat(), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", name)
	}
}
