package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pulse/internal/app"
	"github.com/MrSnakeDoc/pulse/internal/backend"
	"github.com/MrSnakeDoc/pulse/internal/domain"
)

type graphOutput struct {
	Root         domain.ServiceReference `json:"root"`
	Dependencies []domain.GraphCard      `json:"dependencies"`
	Dependents   []domain.GraphCard      `json:"dependents"`
	History      []domain.ServiceCard    `json:"history,omitempty"`
}

func newGraphCmd(root *rootOptions) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "graph ENV SERVICE",
		Short: "Refresh and print the dependency graph of a service",
		Long: `Walk the dependencies and the dependents of a service, caching every
node reached, then print both trees indented by depth. A service
reachable through several paths is printed once per path.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load("warn")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			core, err := app.NewCore(cfg, log)
			if err != nil {
				return err
			}

			key := domain.ServiceKey{Environment: args[0], Name: args[1]}
			if err := core.Orchestrator.RefreshForGraph(cmd.Context(), key); err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("unknown service %s/%s", key.Environment, key.Name)
				}
				return fmt.Errorf("graph refresh failed: %w", err)
			}

			out := graphOutput{
				Root:         domain.ReferenceTo(key),
				Dependencies: core.Cards.DependenciesGraphCards(key),
				Dependents:   core.Cards.DependentsGraphCards(key),
			}
			if history {
				out.History = core.Cards.HistoryGraphCards(key)
			}

			if root.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			headingColor.Fprintln(w, "Dependencies")
			printTree(w, out.Dependencies)
			headingColor.Fprintln(w, "Dependents")
			printTree(w, out.Dependents)
			if history {
				headingColor.Fprintln(w, "History")
				printCards(w, out.History)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "also print the merged history of every reachable service")
	return cmd
}
