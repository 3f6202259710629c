package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/multitype/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyTypeLabel = "type_label"
	cfgKeyTypeCount = "type_count"
	cfgKeyDataDir   = "data_dir"

	flagTypeLabel = "type-label"
	flagTypeCount = "type-count"

	envPrefix = "MTTREE"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# mttree configuration

# Metadata key used for type tags in flattened trees.
type_label: deme

# Number of distinct types. Required; may also be given with --type-count
# or MTTREE_TYPE_COUNT.
# type_count: 2

# Trace store directory (optional; overridable by --data-dir flag)
# data_dir:
`

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. A missing config.yaml is not an
// error. Flags and MTTREE_* environment variables take precedence over the
// file.
func loadConfig(configDir string, flags *pflag.FlagSet) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyTypeLabel, types.DefaultTypeLabel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for key, name := range map[string]string{
		cfgKeyTypeLabel: flagTypeLabel,
		cfgKeyTypeCount: flagTypeCount,
	} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
