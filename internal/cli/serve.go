package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pulse/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poller, the card mirror and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load("")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
