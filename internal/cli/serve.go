package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/comments/internal/server"
	"github.com/idilsaglam/comments/internal/store/jsonstore"
	"github.com/idilsaglam/comments/internal/ui"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr    string
		data    string
		latency time.Duration
		fail    []string
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local /comments server for development",
		Long: `Run a local /comments server for development.

Point the client at it with --base-url http://<addr>. Use --latency to watch
optimistic changes land before the server answers, and --fail to force
rollbacks.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			srvCfg := a.cfg.Server
			if !cmd.Flags().Changed("addr") {
				addr = srvCfg.Addr
			}
			if !cmd.Flags().Changed("data") {
				data = srvCfg.DataFile
			}
			if !cmd.Flags().Changed("latency") {
				latency = srvCfg.LatencyDuration
			}
			if !cmd.Flags().Changed("fail") {
				fail = srvCfg.Fail
			}

			store, err := jsonstore.Open(data)
			if err != nil {
				return err
			}
			opt := server.Options{Latency: latency, Fail: fail, Quiet: quiet}
			h, err := server.NewHandler(store, opt)
			if err != nil {
				return usageError{err}
			}
			e := server.New(h, opt)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ui.OK("serving /comments on http://" + addr)
			return server.Serve(ctx, e, addr)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:3000", "listen address")
	f.StringVar(&data, "data", "", "JSON file to load and persist comments (memory only if empty)")
	f.DurationVar(&latency, "latency", 0, "delay every response")
	f.StringSliceVar(&fail, "fail", nil, "operations answered with 500: list, create, update, delete")
	f.BoolVarP(&quiet, "quiet", "q", false, "no request log")
	return cmd
}
