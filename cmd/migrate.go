package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"db-mirror/internal/engine"
	"db-mirror/internal/metrics"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Drop, recreate and copy every public table from source to destination",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := map[string]string{
			"migration.tables":         "tables",
			"migration.on_error":       "on-error",
			"migration.batch_size":     "batch-size",
			"migration.log_statements": "log-statements",
			"metrics.file":             "metrics-file",
		}
		for k, v := range endpointKeys {
			keys[k] = v
		}
		if err := bindFlags(cmd, keys); err != nil {
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
		opts, err := cfg.Options()
		if err != nil {
			return err
		}

		src.Logger = logger
		dst.Logger = logger
		opts.Logger = logger

		collector := metrics.NewCollector()
		opts.Observers = append(opts.Observers, collector)

		noProgress, _ := cmd.Flags().GetBool("no-progress")
		var progress *uiprogress.Progress
		if !noProgress {
			progress = uiprogress.New()
			progress.Start()
			opts.Observers = append(opts.Observers, &progressObserver{progress: progress})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, runErr := engine.Migrate(ctx, src, dst, opts)

		if progress != nil {
			progress.Stop()
		}

		if cfg.Metrics.File != "" {
			if err := collector.WriteTextfile(cfg.Metrics.File); err != nil {
				logger.Warn().Err(err).Str("file", cfg.Metrics.File).Msg("metrics not written")
			}
		}

		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		if runErr != nil {
			return runErr
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Migration finished")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	flags := migrateCmd.Flags()
	addEndpointFlags(flags, true)
	flags.StringSliceP("tables", "t", []string{}, "Specific tables to migrate (comma-separated)")
	flags.String("on-error", "abort", "What to do when a table fails: abort or continue")
	flags.Int("batch-size", 0, "Stream source rows and insert every N rows (0 loads whole tables)")
	flags.Bool("log-statements", false, "Log every SQL statement at debug level")
	flags.Bool("no-progress", false, "Disable the progress bar")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
}

// progressObserver advances one bar step per finished or failed table.
type progressObserver struct {
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
}

func (p *progressObserver) OnEvent(event engine.Event) {
	switch event.Type {
	case engine.EventRunStarted:
		p.bar = p.progress.AddBar(max(event.Total, 1)).AppendCompleted().PrependElapsed()
		p.bar.PrependFunc(func(b *uiprogress.Bar) string {
			return "Migrating: "
		})
	case engine.EventTableFinished, engine.EventTableFailed:
		if p.bar != nil {
			p.bar.Incr()
		}
	}
}

func printReport(w io.Writer, report *engine.Report) {
	fmt.Fprintln(w, "\n📊 Summary Report:")
	total := len(report.Tables)
	for i, r := range report.Tables {
		icon := "✓"
		status := fmt.Sprintf("%d rows", r.Rows)
		if r.Err != nil {
			icon = "!"
			status = "FAILED (rolled back)"
		}
		if len(r.Sequences) > 0 && r.Err == nil {
			status += " - sequences: " + strings.Join(r.Sequences, ", ")
		}

		fmt.Fprintf(w, "[%s] [%02d/%02d] %-20s : %s\n", icon, i+1, total, r.Name, status)
		if r.Err != nil {
			fmt.Fprintf(w, "    └ Error: %s\n", r.Err)
		}
	}
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total Rows: %d (%d failed tables) in %s\n", report.Rows(), len(report.Failed()), report.Elapsed().Round(time.Millisecond))
}
