// Command claimcheck evaluates a single insight claim against the
// configured dataset and prints the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"claimcheck/internal/config"
	"claimcheck/internal/workflow"
)

func main() {
	claim := flag.String("claim", "", "claim to evaluate (required)")
	summary := flag.String("dataset-summary", "", "dataset summary (defaults from config and CSV header)")
	task := flag.String("task", "", "optional task description")
	noSave := flag.Bool("no-save", false, "do not persist the run")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *claim == "" {
		fmt.Fprintln(os.Stderr, "usage: claimcheck -claim \"...\" [-dataset-summary \"...\"] [-task \"...\"]")
		os.Exit(2)
	}

	if err := config.Load(); err != nil {
		slog.Info("no .env loaded", "error", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	engine, err := workflow.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, evalErr := engine.Evaluate(ctx, *claim, *summary, *task)
	if evalErr != nil {
		slog.Error("evaluation degraded", "error", evalErr)
	}

	if !*noSave {
		store := workflow.NewStore(cfg.RunsDir, cfg.RunsMax)
		if runID, err := store.SaveRun(report); err != nil {
			slog.Warn("run persistence failed", "error", err)
		} else {
			slog.Info("run saved", "run_id", runID)
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}
