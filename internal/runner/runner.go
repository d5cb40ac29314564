package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sheerbytes/thrubench/internal/bufpool"
	"github.com/sheerbytes/thrubench/internal/config"
	"github.com/sheerbytes/thrubench/internal/report"
	"github.com/sheerbytes/thrubench/internal/stats"
	"github.com/sheerbytes/thrubench/internal/workload"
)

// Run executes every workload in cfg and returns the collected report.
//
// Each workload gets one goroutine per worker; every worker owns its
// accumulator and its workload instance, so the hot loop runs without
// locks. The only shared state is the approximate completed-op counter
// that drives progress output. Result lines go to resultW, progress
// lines to progressW.
func Run(ctx context.Context, cfg config.RunConfig, logger *slog.Logger, resultW, progressW io.Writer) (report.Run, error) {
	run := report.NewRun(time.Now())

	for _, spec := range cfg.Workloads {
		res, err := runWorkload(ctx, cfg, spec, logger, resultW, progressW)
		if err != nil {
			if errors.Is(err, stats.ErrNeverExecuted) {
				// Terminal for this workload only, not for the run.
				logger.Error("workload never executed", "workload", spec.Kind)
				continue
			}
			return run, err
		}
		run.Results = append(run.Results, res)
	}

	return run, nil
}

func runWorkload(ctx context.Context, cfg config.RunConfig, spec config.WorkloadSpec, logger *slog.Logger, resultW, progressW io.Writer) (report.WorkloadResult, error) {
	logger.Info("workload starting",
		"workload", spec.Kind, "workers", spec.Workers, "ops", spec.Ops, "chunk_bytes", spec.ChunkBytes)

	pool := bufpool.New(spec.ChunkBytes)
	opts := workload.Options{
		Chunks:   pool,
		TCPAddr:  cfg.TCPAddr,
		QUICAddr: cfg.QUICAddr,
		WSURL:    cfg.WSURL,
		Logger:   logger,
	}

	workers := make([]*stats.WorkerStats, spec.Workers)
	for i := range workers {
		workers[i] = stats.New(progressW)
	}

	// Approximate because each worker reads it without coordinating with
	// the others; it only drives progress cadence.
	var totalDone atomic.Int64
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < spec.Workers; i++ {
		ws := workers[i]
		g.Go(func() error {
			wl, err := workload.New(spec.Kind, opts)
			if err != nil {
				ws.Start()
				ws.Stop()
				return err
			}
			if err := wl.Setup(gctx); err != nil {
				// Keep the Start/Stop lifecycle intact so this
				// accumulator is still safe to merge.
				ws.Start()
				ws.Stop()
				logger.Error("workload setup failed", "workload", spec.Kind, "error", err)
				return nil
			}
			defer wl.Close()

			ws.Start()
			defer ws.Stop()
			for op := 0; op < spec.Ops; op++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				begin := time.Now()
				n, err := wl.RunOp(gctx)
				if err != nil {
					failed.Add(1)
					logger.Debug("op failed", "workload", spec.Kind, "error", err)
					continue
				}
				ws.Update(stats.OpResult{Bytes: n, Elapsed: time.Since(begin)}, totalDone.Add(1))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.WorkloadResult{}, err
	}

	merged := workers[0]
	for _, ws := range workers[1:] {
		merged.Merge(ws)
	}

	sum, err := merged.Report(spec.Kind, resultW)
	if err != nil {
		return report.WorkloadResult{}, err
	}

	return report.WorkloadResult{
		Workload: spec.Kind,
		Workers:  spec.Workers,
		Ops:      spec.Ops,
		Failed:   failed.Load(),
		Summary:  sum,
	}, nil
}
