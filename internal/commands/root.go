// Package commands implements the projsys command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/projsys/internal/app"
	"github.com/dshills/projsys/internal/capability"
	"github.com/dshills/projsys/internal/config"
	"github.com/dshills/projsys/internal/logging"
)

// EnvPrefix prefixes the environment variables that back the global flags,
// e.g. PROJSYS_LOG_LEVEL for --log-level.
const EnvPrefix = "PROJSYS"

// Flag names shared by the project commands.
const (
	flagConfig       = "config"
	flagLogLevel     = "log-level"
	flagLogJSON      = "log-json"
	flagProject      = "project"
	flagSnapshot     = "snapshot"
	flagCapabilities = "capabilities"
	flagProjectGUID  = "project-guid"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// env carries the settings resolved for one invocation.
type env struct {
	v   *viper.Viper
	out io.Writer
	err io.Writer
}

// RootCmd creates the root command with every subcommand attached.
func RootCmd(info BuildInfo) *cobra.Command {
	e := &env{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "projsys",
		Short: "Project system configuration and synchronization engine",
		Long: `projsys evaluates the configuration dimensions of a .NET project from its
evaluated-property snapshot, keeps runtime references and design-time build
diagnostics in sync, and watches the snapshot for changes.

The snapshot is a JSON document of the form {"Properties":{...}}, as written by
'msbuild -getProperty:... > App.props.json'.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.out = cmd.OutOrStdout()
			e.err = cmd.ErrOrStderr()
			return e.bind(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagConfig, "", "configuration file (.toml, .yaml)")
	flags.String(flagLogLevel, "", "log level: trace, debug, info, warn, error, off")
	flags.Bool(flagLogJSON, false, "write logs as JSON")
	flags.StringP(flagProject, "p", "", "project file")
	flags.String(flagSnapshot, "", "evaluated-property snapshot (default: <project>.props.json)")
	flags.String(flagCapabilities, "", "project capabilities, e.g. \"CSharp;Managed\"")
	flags.String(flagProjectGUID, "", "project GUID shown in the error list")

	cmd.AddCommand(
		dimensionsCmd(e),
		referencesCmd(e),
		buildLogCmd(e),
		watchCmd(e),
		versionCmd(info),
	)
	return cmd
}

// bind connects the flags and PROJSYS_* variables to viper.
func (e *env) bind(cmd *cobra.Command) error {
	e.v.SetEnvPrefix(EnvPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()
	return e.v.BindPFlags(cmd.Flags())
}

// config loads the configuration file, if any, and applies flag overrides.
func (e *env) config() (config.Config, error) {
	var paths []string
	if path := e.v.GetString(flagConfig); path != "" {
		paths = append(paths, path)
	}
	cfg, err := config.NewLoader(nil).Load(len(paths) > 0, paths...)
	if err != nil {
		return config.Config{}, err
	}

	if lvl := e.v.GetString(flagLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if e.v.GetBool(flagLogJSON) {
		cfg.Logging.JSON = true
	}
	return cfg, cfg.Validate()
}

// newApp builds the application from the resolved configuration. mutate may
// adjust the configuration first.
func (e *env) newApp(mutate func(*config.Config)) (*app.App, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: e.err,
		Name:   "projsys",
		JSON:   cfg.Logging.JSON,
	})
	return app.New(app.Options{Config: &cfg, Logger: logger})
}

// openOptions builds the project to open from the flags. defaultCaps is
// used when --capabilities is not given.
func (e *env) openOptions(defaultCaps ...string) (app.OpenOptions, error) {
	path := e.v.GetString(flagProject)
	if path == "" {
		return app.OpenOptions{}, fmt.Errorf("--%s is required", flagProject)
	}

	caps := capability.NewSet(defaultCaps...)
	if list := e.v.GetString(flagCapabilities); list != "" {
		caps = capability.Parse(list)
	}

	opts := app.OpenOptions{
		ProjectPath:  path,
		SnapshotPath: e.v.GetString(flagSnapshot),
		Capabilities: caps,
	}
	if s := e.v.GetString(flagProjectGUID); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return app.OpenOptions{}, fmt.Errorf("--%s: %w", flagProjectGUID, err)
		}
		opts.ProjectGUID = id
	}
	return opts, nil
}

// withProject opens the project named by the flags, runs fn and closes
// everything.
func (e *env) withProject(ctx context.Context, opts app.OpenOptions, mutate func(*config.Config), fn func(*app.Project) error) (err error) {
	a, err := e.newApp(mutate)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	p, err := a.Open(ctx, opts)
	if err != nil {
		return err
	}
	return fn(p)
}
