package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/developingchet/execmeter/internal/config"
	"github.com/developingchet/execmeter/internal/logger"
	"github.com/developingchet/execmeter/internal/metrics"
	"github.com/developingchet/execmeter/internal/report"
	"github.com/developingchet/execmeter/internal/runner"
	"github.com/developingchet/execmeter/internal/script"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// runtime is the part of *runner.Runner the CLI drives.
type runtime interface {
	Run(ctx context.Context, programs []*script.Program) ([]*report.Result, error)
	Close()
}

// Seams replaced by tests.
var (
	loadConfig       = config.Load
	registerMetrics  = metrics.Register
	newSignalContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	}
	newRuntime = func(cfg *config.Config, sinks []report.Sink) runtime {
		return runner.New(cfg, sinks)
	}
	logOutput io.Writer = os.Stderr
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

// newRootCmd builds and returns the root cobra command. Extracted from main so
// that tests can invoke it directly without spawning a subprocess.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "execmeter [script...]",
		Short: "Run scripts and count the lines each one executes",
		Long: `Runs line-oriented scripts on a pool of workers. Every worker is its own
execution context with its own line counter; each script's count is
reported per call once it finishes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE:          runScripts,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run script...",
		Short: "Run scripts (same as passing them to the root command)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScripts,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check script...",
		Short: "Parse scripts and report their statement counts without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  checkScripts,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "execmeter %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

func runScripts(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no scripts given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat, logOutput)
	registerMetrics()

	ctx, cancel := newSignalContext(cmd.Context())
	defer cancel()

	progs, err := script.LoadAll(ctx, args)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}

	rt := newRuntime(cfg, buildSinks())
	defer rt.Close()

	results, err := rt.Run(ctx, progs)
	printSummary(cmd.OutOrStdout(), results)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Outcome() != report.OutcomeOK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(results))
	}
	return nil
}

func checkScripts(cmd *cobra.Command, args []string) error {
	progs, err := script.LoadAll(cmd.Context(), args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range progs {
		fmt.Fprintf(out, "%s: %d statements\n", p.Name, p.Statements())
	}
	return nil
}

// buildSinks creates the ordered list of report sinks.
func buildSinks() []report.Sink {
	return []report.Sink{
		report.NewLogSink(),
		report.NewMetricsSink(),
	}
}

func printSummary(w io.Writer, results []*report.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tWORKER\tCALLS\tLINES\tOUTCOME\tDURATION")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n", r.Job, r.Worker, len(r.Calls), r.Lines, r.Outcome(), r.Duration.Round(time.Microsecond))
	}
	_ = tw.Flush()
}
