// Package stage implements the orchestration skeleton shared by the source,
// validator, and serving stages (§4.1): batch-size and wall-clock caps,
// flush-on-boundary, failure-policy application, and restart-mode teardown.
// Each concrete stage supplies a Processor; this package owns only the loop.
package stage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/pipelog"
)

// Outcome classifies the result of one Processor.ProcessOne call.
type Outcome int

const (
	// OutcomeSuccess means a unit of work was processed and should count
	// toward the batch's success total.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure means a unit of work was attempted and failed; the
	// failure is record-level and governed by on_failure policy unless
	// marked fatal.
	OutcomeFailure
	// OutcomeIdle means no work was available within the poll timeout; the
	// batch keeps running until its wall-clock cap.
	OutcomeIdle
	// OutcomeDone means the processor has exhausted all work it will ever
	// have for this pass (e.g. the source stage reached the end of every
	// CSV file) and the batch should close immediately.
	OutcomeDone
)

// Report summarises one completed batch (§4.1 Observability).
type Report struct {
	Processed                 int
	Succeeded                 int
	Failed                    int
	LatestSuccessfulKey       string
	LatestSuccessfulTimestamp time.Time
}

// Processor is implemented by each stage's per-unit-of-work logic.
type Processor interface {
	// ProcessOne attempts one unit of work. key/ts are used for reporting on
	// success; err explains an OutcomeFailure. fatal marks an infrastructure
	// error (bus/KV connectivity) that must abort the whole batch regardless
	// of on_failure policy.
	ProcessOne(ctx context.Context) (outcome Outcome, key string, ts time.Time, err error, fatal bool)

	// Flush blocks until all outbound writes issued so far are durable.
	Flush(ctx context.Context) error
}

// Restarter is optionally implemented by a Processor to support RESTART
// mode's idempotent teardown (§4.1).
type Restarter interface {
	Teardown(ctx context.Context) error
}

// Runtime drives the batch loop for one stage.
type Runtime struct {
	cfg   config.RuntimeConfig
	log   *log.Logger
	runID string
}

// New constructs a Runtime bound to cfg, logging through logger. Each Runtime
// gets its own run id, stamped onto every batch report so operators can
// correlate a stage process's log lines across restarts.
func New(cfg config.RuntimeConfig, logger *log.Logger) *Runtime {
	return &Runtime{cfg: cfg, log: logger, runID: uuid.NewString()}
}

// Run drives proc to completion: in RESTART mode it tears down and exits; in
// single-pass mode it runs exactly one batch; otherwise it loops forever,
// sleeping main_loop_interval between batches.
func (r *Runtime) Run(ctx context.Context, proc Processor) error {
	if r.cfg.Restart {
		if restarter, ok := proc.(Restarter); ok {
			if err := restarter.Teardown(ctx); err != nil {
				return fmt.Errorf("stage: restart teardown: %w", err)
			}
		}
		r.log.Print("restart: teardown complete, exiting without processing")
		return nil
	}

	for {
		report, err := r.runBatch(ctx, proc)
		r.logReport(report)
		if err != nil {
			return err
		}
		if !r.cfg.MainLoop {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.MainLoopInterval):
		}
	}
}

func (r *Runtime) runBatch(ctx context.Context, proc Processor) (Report, error) {
	var report Report
	deadline := time.Now().Add(r.cfg.MainLoopTimeout)

batch:
	for report.Processed < r.cfg.BatchSize && time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break batch
		}
		outcome, key, ts, err, fatal := proc.ProcessOne(ctx)
		switch outcome {
		case OutcomeIdle:
			continue
		case OutcomeDone:
			break batch
		case OutcomeSuccess:
			report.Processed++
			report.Succeeded++
			report.LatestSuccessfulKey = key
			report.LatestSuccessfulTimestamp = ts
		case OutcomeFailure:
			report.Processed++
			report.Failed++
			if fatal {
				_ = proc.Flush(ctx)
				return report, fmt.Errorf("stage: infrastructure error: %w", err)
			}
			r.log.Printf("record failure: key=%s err=%v", key, err)
			if r.cfg.OnFailure == config.OnFailureRaise {
				_ = proc.Flush(ctx)
				return report, fmt.Errorf("stage: record failure, on_failure=raise: %w", err)
			}
		}
	}

	if err := proc.Flush(ctx); err != nil {
		return report, fmt.Errorf("stage: flush: %w", err)
	}
	return report, nil
}

func (r *Runtime) logReport(report Report) {
	pipelog.Banner(r.log, "batch report")
	ts := ""
	if !report.LatestSuccessfulTimestamp.IsZero() {
		ts = report.LatestSuccessfulTimestamp.Format(time.RFC3339)
	}
	r.log.Printf("run=%s processed=%d succeeded=%d failed=%d latest_key=%s latest_ts=%s",
		r.runID, report.Processed, report.Succeeded, report.Failed, report.LatestSuccessfulKey, ts)
}
