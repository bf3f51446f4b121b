package cmd

import (
	"fmt"

	"db-mirror/internal/database"
	"db-mirror/internal/engine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and connect to both endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, endpointKeys); err != nil {
			return err
		}

		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		src, dst, err := cfg.Endpoints()
		if err != nil {
			return err
		}

		for _, ep := range []struct {
			name string
			cfg  database.Config
		}{{"source", src}, {"destination", dst}} {
			ep.cfg.Logger = logger

			h, err := database.Open(cmd.Context(), ep.cfg)
			if err != nil {
				return &engine.Error{Kind: engine.KindConnection, Endpoint: ep.name, Phase: engine.PhaseConnect, Err: err}
			}
			version, err := h.ServerVersion(cmd.Context())
			h.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", ep.name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "🦅 Connected to %s (PostgreSQL %s)\n", ep.name, version)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
	addEndpointFlags(validateCmd.Flags(), true)
}
