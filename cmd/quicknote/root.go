package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/quicknote"
	"github.com/aretw0/quicknote/internal/config"
	"github.com/aretw0/quicknote/pkg/core"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	cfg     config.AppConfig
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "quicknote",
		Short: "Quick notes with tags, search, autosave and import/export",
		Long: `QuickNote keeps short text notes in a local data directory.
Notes can be tagged, searched, sorted, exported to JSON, YAML, CSV or text
and imported back without duplicating existing notes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Path to configuration file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringP("dir", "d", a.v.GetString(config.KeyDataDir), "Data directory (default: nearest .quicknote)")
	flags.String("adapter", a.v.GetString(config.KeyAdapter), "Storage adapter (fs, sqlite, memory)")
	flags.Bool("read-only", a.v.GetBool(config.KeyReadOnly), "Open the notebook read-only")
	flags.Bool("dev-safety", a.v.GetBool(config.KeyDevSafety), "Sandbox the data directory under go run")
	flags.Duration("autosave-delay", a.v.GetDuration(config.KeyAutosaveDelay), "Quiet period before autosave")
	flags.String("log-level", a.v.GetString(config.KeyLogLevel), "Log level (debug, info, warn, error)")

	a.bindFlag(root, config.KeyDataDir, "dir")
	a.bindFlag(root, config.KeyAdapter, "adapter")
	a.bindFlag(root, config.KeyReadOnly, "read-only")
	a.bindFlag(root, config.KeyDevSafety, "dev-safety")
	a.bindFlag(root, config.KeyAutosaveDelay, "autosave-delay")
	a.bindFlag(root, config.KeyLogLevel, "log-level")

	root.AddCommand(
		a.newNewCmd(),
		a.newEditCmd(),
		a.newComposeCmd(),
		a.newShowCmd(),
		a.newDeleteCmd(),
		a.newListCmd(),
		a.newTagsCmd(),
		a.newTagCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newThemeCmd(),
		a.newWatchCmd(),
		a.newStatusCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) bindFlag(cmd *cobra.Command, key, flag string) {
	if err := a.v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// setup reads the config file, loads settings and configures the default logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}
	if err := a.v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &configNotFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	a.cfg = cfg

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
	slog.SetDefault(logger)
	return nil
}

// dataDir returns the configured directory, the nearest .quicknote directory
// above the working directory, or ./.quicknote.
func (a *app) dataDir() (string, error) {
	if a.cfg.DataDir != "" {
		return a.cfg.DataDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if root, err := quicknote.FindRoot(wd); err == nil {
		return root, nil
	}
	return filepath.Join(wd, quicknote.DefaultDir), nil
}

// open opens the configured notebook. Callers must Close it.
func (a *app) open(cmd *cobra.Command) (*core.Service, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	slog.Debug("opening notebook", "dir", dir, "adapter", a.cfg.Adapter)

	stderr := cmd.ErrOrStderr()
	svc, err := quicknote.New(dir,
		quicknote.WithAdapter(a.cfg.Adapter),
		quicknote.WithReadOnly(a.cfg.ReadOnly),
		quicknote.WithDevSafety(a.cfg.DevSafety),
		quicknote.WithAutosaveDelay(a.cfg.AutosaveDelay),
		quicknote.WithLogger(slog.Default()),
		quicknote.WithErrorHandler(func(err error) {
			fmt.Fprintln(stderr, "Warning:", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open notebook: %w", err)
	}
	return svc, nil
}

// withNotebook opens the notebook, runs fn and closes it.
func (a *app) withNotebook(cmd *cobra.Command, fn func(svc *core.Service) error) error {
	svc, err := a.open(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

// openForEdit makes id the active session or fails when it does not exist.
func openForEdit(ctx context.Context, svc *core.Service, id string) error {
	ok, err := svc.Open(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("note %s not found", id)
	}
	return nil
}
