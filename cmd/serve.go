package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"blabber/app/config"
	"blabber/app/repositories"
	"blabber/app/server"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blabber server",
		Long:  `Start the blabber server. Flags can also be set via environment variables of the form BLABBER_<flag> (e.g. BLABBER_MAX_POSTS=50).`,
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	}

	flags := cmd.Flags()
	flags.String(config.KeyListen, config.Defaults[config.KeyListen].(string), "address the HTTP server listens on")
	flags.Int(config.KeyMaxPending, config.Defaults[config.KeyMaxPending].(int), "storage operations admitted before requests are refused as busy")
	flags.Int(config.KeyMaxPosts, config.Defaults[config.KeyMaxPosts].(int), "posts shown on the front page")
	flags.Int(config.KeyMaxComments, config.Defaults[config.KeyMaxComments].(int), "comments shown on a post page")
	flags.Duration(config.KeyShutdownTimeout, config.Defaults[config.KeyShutdownTimeout].(time.Duration), "time allowed for in-flight requests on shutdown")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	engine, err := repositories.Open(a.conf.DBPath, a.conf.CacheBlocks, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info().
		Str("db", a.conf.DBPath).
		Str("cache", humanize.IBytes(uint64(a.conf.CacheBlocks*repositories.BlockSize))).
		Int("max_pending", a.conf.MaxPending).
		Msg("Store ready")

	srv, err := server.New(a.conf, engine, a.logger)
	if err != nil {
		_ = engine.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
