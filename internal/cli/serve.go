package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quiz-battle/internal/app"
	"github.com/gokatarajesh/quiz-battle/internal/config"
)

func newServeCmd(catalogPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			cfg, err := config.Load(loadCtx)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			if *catalogPath != "" {
				cfg.Catalog.Path = *catalogPath
			}

			instance, err := app.New(loadCtx, cfg)
			if err != nil {
				return fmt.Errorf("build app: %w", err)
			}
			return instance.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
