package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/metaschema/internal/paths"
	"github.com/mesh-intelligence/metaschema/pkg/sqlite"
	"github.com/mesh-intelligence/metaschema/pkg/types"
)

// configFile is the shape init writes to config.yaml.
type configFile struct {
	Backend  string            `yaml:"backend"`
	DataDir  string            `yaml:"data_dir,omitempty"`
	Cache    types.CacheConfig `yaml:"cache"`
	LogLevel string            `yaml:"log_level"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and seed the SQLite data directory",
		Long: "Write config.yaml if it is missing, then attach the SQLite store once so the\n" +
			"data directory holds its JSONL files and the built-in system fields.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return classify(a.runInit(cmd))
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, "")
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), dataDir); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	s, err := a.loadSettings()
	if err != nil {
		return err
	}
	if s.config.Backend != types.BackendSQLite {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s (backend %s needs no data directory)\n",
			configDir, s.config.Backend)
		return nil
	}

	logger, err := newLogger(s.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store := sqlite.NewBackend(logger)
	if err := store.Attach(s.config); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	if err := store.Detach(); err != nil {
		return fmt.Errorf("finalize storage: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "metaschema initialized (config %s, data %s)\n", configDir, s.config.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	cfg := configFile{
		Backend:  types.BackendSQLite,
		DataDir:  dataDir,
		Cache:    types.CacheConfig{Driver: types.CacheMemory, Prefix: types.DefaultCachePrefix},
		LogLevel: defaultLogLevel,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
