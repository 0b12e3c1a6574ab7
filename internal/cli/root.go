// Package cli defines the accessadmin command tree.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gatehouse/accessadmin/internal/pkg/config"
	"github.com/gatehouse/accessadmin/pkg/logger"
)

// NewRootCommand returns the accessadmin root command with every
// subcommand attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "accessadmin",
		Short: "Community access administration service",
		Long: `accessadmin manages communities, their addresses, residents and
time-limited access codes, and records access attempts reported by the
game server.

Configuration is read from environment variables (and a .env file
outside production).`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newCreateSuperuserCommand())
	root.AddCommand(newSweepCommand())
	return root
}

// setup loads configuration and initialises the process logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Output:  cmd.ErrOrStderr(),
		Service: "accessadmin",
	})
	return cfg, log, nil
}
