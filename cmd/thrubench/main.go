package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sheerbytes/thrubench/internal/config"
	"github.com/sheerbytes/thrubench/internal/logging"
	"github.com/sheerbytes/thrubench/internal/runner"
	"github.com/sheerbytes/thrubench/internal/sink"
	"github.com/sheerbytes/thrubench/internal/workload"
)

const version = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}
	if hasVersionFlag(args) {
		fmt.Println(version)
		return
	}

	switch args[0] {
	case "run":
		runCmd(args[1:])
	case "sink":
		sinkCmd(args[1:])
	default:
		if hasHelpFlag(args) {
			printUsage()
			return
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) {
	cfg, err := config.ParseRunConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.New("thrubench", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := runner.Run(ctx, cfg, logger, os.Stdout, os.Stderr)
	if err != nil {
		logger.Error("benchmark run failed", "error", err)
		os.Exit(1)
	}
	// Progress lines end with a carriage return; move past them.
	fmt.Fprintln(os.Stderr)

	if err := run.Write(cfg.ReportPath); err != nil {
		logger.Error("persisting report failed", "error", err)
		os.Exit(1)
	}
	if cfg.ReportPath != "" {
		logger.Info("report written", "path", cfg.ReportPath, "run_id", run.ID)
	}
}

func sinkCmd(args []string) {
	cfg, err := config.ParseSinkConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.New("thrubench-sink", cfg.LogLevel)

	s := sink.New(logger)
	if err := s.Start(sink.Config{
		TCPAddr:  cfg.TCPAddr,
		QUICAddr: cfg.QUICAddr,
		WSAddr:   cfg.WSAddr,
	}); err != nil {
		logger.Error("sink start failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	_ = s.Close()
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: thrubench <command> [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  run   execute a benchmark suite against a sink")
	fmt.Fprintln(os.Stderr, "  sink  accept and discard benchmark traffic")
	fmt.Fprintf(os.Stderr, "workloads: %v\n", workload.Kinds())
	fmt.Fprintln(os.Stderr, "quick examples:")
	fmt.Fprintln(os.Stderr, "  thrubench sink")
	fmt.Fprintln(os.Stderr, "  thrubench run -workload tcp -workers 8 -ops 10000")
	fmt.Fprintln(os.Stderr, "  thrubench run -suite suite.yaml -report report.yaml")
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}
