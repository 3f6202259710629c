package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/multitype/internal/paths"
	"github.com/mesh-intelligence/multitype/internal/sqlite"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

// app holds global flag values and the state set up before each command.
type app struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonOut   bool

	cfg    *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mttree",
		Short:         "Flatten, unflatten and log multi-type phylogenetic trees",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "trace data directory (default: platform data dir)")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.BoolVar(&a.jsonOut, "json", false, "output as JSON where supported")
	pf.Int(flagTypeCount, 0, "number of types (overrides type_count in config.yaml)")
	pf.String(flagTypeLabel, "", "metadata key for type tags (overrides type_label in config.yaml)")

	root.AddCommand(
		newVersionCmd(),
		newFlattenCmd(a),
		newUnflattenCmd(a),
		newInspectCmd(a),
		newLogCmd(a),
		newTraceCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.cfg, err = loadConfig(configDir, cmd.Flags())
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded", "dir", configDir)
	return nil
}

// treeConfig returns the validated tree configuration. A missing type count
// is fatal.
func (a *app) treeConfig() (types.Config, error) {
	cfg := types.Config{
		TypeLabel: a.cfg.GetString(cfgKeyTypeLabel),
		TypeCount: a.cfg.GetInt(cfgKeyTypeCount),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

// attachBackend resolves the data directory and attaches the trace store.
// The caller must defer backend.Detach().
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	backend := sqlite.NewBackend(a.logger)
	if err := backend.Attach(dataDir); err != nil {
		return nil, fmt.Errorf("attach trace store: %w", err)
	}
	return backend, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("log level %q: %w", s, errUsage)
	}
	return level, nil
}

// readInput reads a document from path, or from standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
