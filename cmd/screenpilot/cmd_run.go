package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screenpilot/internal/config"
	"screenpilot/internal/engine"
	"screenpilot/internal/locator"
	"screenpilot/internal/scenario"
	"screenpilot/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Execute a scenario file headlessly",
	Long: `Loads an ordered step list from a YAML scenario file and executes it
against the live desktop, printing each step's outcome. Template references
in the scenario resolve relative to the scenario's work directory unless
they are absolute paths.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunCmd,
}

var runQuiet bool

func init() {
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "suppress step logs, print only the summary")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if runQuiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	cfg := config.Load()
	sess, err := session.New(session.Options{
		WorkDir:        cfg.WorkDir,
		HistoryPath:    cfg.HistoryPath,
		SettleInterval: cfg.SettleInterval(),
		Confidence:     cfg.DefaultConfidence,
		Downscale:      cfg.MatchDownscale,
		Strategies:     locator.ByName(cfg.MatchStrategies...),
	})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	sess.Steps().Replace(sc.Steps)

	// Ctrl-C aborts the run before the next step.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		sess.StopRun()
	}()

	result, err := sess.Run(cmd.Context())
	if err != nil {
		return err
	}

	printResult(cmd, sc.Name, result)
	if result.Status != engine.StatusCompleted {
		os.Exit(1)
	}
	return nil
}

func printResult(cmd *cobra.Command, name string, result engine.Result) {
	out := cmd.OutOrStdout()
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(out, "%s: %s (run %s, %d steps, %s)\n",
		name, result.Status, result.RunID, len(result.Outcomes),
		result.Finished.Sub(result.Started).Round(time.Millisecond))
	for _, o := range result.Outcomes {
		mark := "ok"
		if o.Err != "" {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "  %2d. %-20s %-4s %s\n", o.Index+1, o.Type, mark, o.Err)
	}
	if result.FailedIndex >= 0 {
		fmt.Fprintf(out, "aborted at step %d\n", result.FailedIndex+1)
	}
}
