package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"db-mirror/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  = zerolog.Nop()
)

var RootCmd = &cobra.Command{
	Use:   "db-mirror",
	Short: "Copy every table of a PostgreSQL database to another one",
	Long: `
      _ _                     _
   __| | |__        _ __ ___ (_)_ __ _ __ ___  _ __
  / _' | '_ \ _____| '_ ' _ \| | '__| '__/ _ \| '__|
 | (_| | |_) |_____| | | | | | | |  | | | (_) | |
  \__,_|_.__/      |_| |_| |_|_|_|  |_|  \___/|_|

DB MIRROR - PostgreSQL table, data and sequence copier
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(os.Stderr, viper.GetString("log.level"), viper.GetString("log.format"))
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-mirror.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", logging.FormatConsole, "log format (console or json)")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))

	viper.SetDefault("migration.on_error", "abort")
	viper.SetDefault("migration.batch_size", 0)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-mirror")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DBMIRROR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
			os.Exit(1)
		}
	}
}

// bindFlags ties viper keys to the flags of the command being run. Several
// commands share keys, so binding happens at run time rather than in init.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func addEndpointFlags(flags *pflag.FlagSet, destination bool) {
	flags.StringP("source", "s", "", "source connection name or DSN")
	if destination {
		flags.StringP("destination", "d", "", "destination connection name or DSN")
	}
}

var endpointKeys = map[string]string{
	"source":      "source",
	"destination": "destination",
}
