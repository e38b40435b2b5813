package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockforge/internal/server"
)

// serveCommand starts the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workspaces over a REST API",
		Long: `Serve starts the HTTP API server. Workspaces are created and mutated
through JSON endpoints, and every change is appended to the configured
event store so logs survive for replay and rendering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg, err := c.newRegistry(cfg)
			if err != nil {
				return err
			}
			store, err := c.newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close(ctx) }()

			srv, err := server.New(server.Options{
				Addr:     cfg.Server.Addr,
				Registry: reg,
				Store:    store,
				Logger:   c.Logger,
			})
			if err != nil {
				return err
			}

			c.Logger.Info("starting server", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
