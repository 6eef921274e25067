// Package cmd implements the blabber command line.
package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"blabber/app/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of the blabber binary.
const Version = "1.0.0"

// app holds the state shared by the subcommands of one invocation.
type app struct {
	v      *viper.Viper
	conf   *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree. Every call returns an independent tree
// with its own configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "blabber",
		Short: "a small discussion forum",
		Long: fmt.Sprintf(`blabber (v%s)

A small forum with a front page of posts, a page per post with its comments
and forms to submit both. Configuration is read from flags, from BLABBER_*
environment variables and from .env files.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyDBPath, config.Defaults[config.KeyDBPath].(string), "path of the database directory")
	flags.Int64(config.KeyCacheBlocks, config.Defaults[config.KeyCacheBlocks].(int64), "block cache size in 4 KiB blocks")
	flags.String(config.KeyLogLevel, config.Defaults[config.KeyLogLevel].(string), "log level (trace, debug, info, warn, error)")
	flags.String(config.KeyLogFormat, config.Defaults[config.KeyLogFormat].(string), "log format (console, json)")

	root.AddCommand(
		a.serveCmd(),
		a.dumpCmd(),
		a.initCmd(),
		a.cleanCmd(),
		a.backupCmd(),
		a.restoreCmd(),
		versionCmd(),
	)
	return root
}

// setup binds the flags of the running command and loads the configuration.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.InitEnv(a.v)
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	conf, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.conf = conf
	a.logger = newLogger(cmd.ErrOrStderr(), conf)
	return nil
}

func newLogger(w io.Writer, conf *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if conf.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of blabber",
		// The version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blabber v%s\n", Version)
		},
	}
}

// Execute runs the command line. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
