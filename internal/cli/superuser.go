package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatehouse/accessadmin/internal/app"
	"github.com/gatehouse/accessadmin/internal/core/domain"
)

func newCreateSuperuserCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create the superuser account if none exists",
		Long: `Create the superuser account. Flags override SUPERUSER_USERNAME and
SUPERUSER_PASSWORD. Exits without changes when a superuser already exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if username == "" {
				username = cfg.Superuser.Username
			}
			if password == "" {
				password = cfg.Superuser.Password
			}
			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			user, err := a.Users.EnsureSuperuser(cmd.Context(), username, password)
			if errors.Is(err, domain.ErrSuperuserExists) {
				fmt.Fprintf(cmd.OutOrStdout(), "superuser %q already exists\n", user.Username)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "superuser %q created\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "superuser username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "superuser password")
	return cmd
}
