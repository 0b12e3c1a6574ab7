package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatehouse/accessadmin/internal/app"
	"github.com/gatehouse/accessadmin/internal/infrastructure/scheduler"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired access codes once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			removed, err := scheduler.NewSweeper(a.Communities, cfg.SweepInterval, log).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired codes\n", removed)
			return nil
		},
	}
}
