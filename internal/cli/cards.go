package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pulse/internal/app"
	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/redis"
	redisstore "github.com/MrSnakeDoc/pulse/internal/store/redis"
	"github.com/MrSnakeDoc/pulse/internal/utils"
)

type cardsOptions struct {
	history bool
	filter  string
	mirror  bool
}

func newCardsCmd(root *rootOptions) *cobra.Command {
	opts := &cardsOptions{}

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Refresh once and print the service cards",
		Long: `Refresh once from the status backend and print the latest card of
every visible service, or every stored status with --history.
With --mirror the cards are read from the Redis mirror of a running
pulse serve instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load("warn")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			var cards []domain.ServiceCard
			switch {
			case opts.mirror:
				if opts.history {
					return errors.New("--history is not available with --mirror")
				}
				client, err := redis.Connect(cmd.Context(), app.RedisOptions(cfg), log)
				if errors.Is(err, redis.ErrDisabled) {
					return errors.New("--mirror needs PULSE_REDIS_ADDR")
				}
				if err != nil {
					return err
				}
				defer utils.CloseLogged(client, log, "redis")

				cards, err = redisstore.NewStore(client, cfg.MirrorTTL).LatestCards(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to read mirrored cards: %w", err)
				}
			default:
				core, err := app.NewCore(cfg, log)
				if err != nil {
					return err
				}
				if err := core.IncrementalRefresh(cmd.Context()); err != nil {
					return fmt.Errorf("refresh failed: %w", err)
				}
				if opts.history {
					cards = core.Cards.HistoryVisibleCards()
				} else {
					cards = core.Cards.LatestVisibleCards()
				}
			}

			shown := domain.ApplyFilter(opts.filter, cards)
			if root.json {
				return printJSON(cmd.OutOrStdout(), shown)
			}
			printCards(cmd.OutOrStdout(), shown)
			if !opts.history {
				printSummary(cmd.OutOrStdout(), domain.Summarize(cards))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.history, "history", false, "print every stored status, newest first")
	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "", "space separated terms, all must match")
	cmd.Flags().BoolVar(&opts.mirror, "mirror", false, "read the latest cards from the Redis mirror")
	return cmd
}
