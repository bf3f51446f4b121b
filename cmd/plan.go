package cmd

import (
	"fmt"
	"io"

	"db-mirror/internal/database"
	"db-mirror/internal/dialect"
	"db-mirror/internal/engine"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the DDL a migration would run, without touching the destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, map[string]string{
			"source":           "source",
			"migration.tables": "tables",
		}); err != nil {
			return err
		}

		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if cfg.Source == "" {
			return fmt.Errorf("source is required (--source, config or DBMIRROR_SOURCE)")
		}
		srcCfg, err := cfg.Endpoint(cfg.Source)
		if err != nil {
			return err
		}
		srcCfg.Logger = logger

		opts, err := cfg.Options()
		if err != nil {
			return err
		}
		opts.Logger = logger

		d, err := dialect.ForDSN(srcCfg.DSN)
		if err != nil {
			return &engine.Error{Kind: engine.KindConnection, Endpoint: "source", Phase: engine.PhaseConnect, Err: err}
		}

		src, err := database.Open(cmd.Context(), srcCfg)
		if err != nil {
			return &engine.Error{Kind: engine.KindConnection, Endpoint: "source", Phase: engine.PhaseConnect, Err: err}
		}
		defer src.Close()

		log := logger.With().Str("command", "plan").Logger()
		log.Info().Msg("[SIMULATION] Plan mode: no destination is opened and nothing is written.")

		plans, err := engine.New(src.DB, nil, d, opts).Plan(cmd.Context())
		if err != nil {
			return err
		}

		printPlan(cmd.OutOrStdout(), plans)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(planCmd)

	addEndpointFlags(planCmd.Flags(), false)
	planCmd.Flags().StringSliceP("tables", "t", []string{}, "Specific tables to plan (comma-separated)")
}

func printPlan(w io.Writer, plans []engine.TablePlan) {
	fmt.Fprintf(w, "🔍 Analysis Results:\n")
	for i, p := range plans {
		fmt.Fprintf(w, "\n-- [%02d] %s (%d columns)\n", i+1, p.Table.Name, len(p.Table.Columns))
		for _, s := range p.Statements {
			fmt.Fprintf(w, "%s;\n", s.SQL)
		}
	}
}
