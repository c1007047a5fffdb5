package server

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/quvar/ansatzfit/internal/circuit"
	"github.com/quvar/ansatzfit/internal/opt"
	"github.com/quvar/ansatzfit/internal/sim"
	"github.com/quvar/ansatzfit/internal/store"
	"github.com/quvar/ansatzfit/internal/train"
)

// runJob executes a training job in the background.
// If checkpointStore is not nil and job has checkpointInterval > 0, periodic checkpoints are saved.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string) error {
	// Get the job
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Update state to running
	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "data", job.Config.DataPath, "mode", job.Config.Mode)

	// Load target bitstrings
	targets, err := train.LoadTargets(job.Config.DataPath, job.Config.Qubits)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to load targets: %w", err))
		return err
	}

	slog.Info("Loaded targets", "job_id", jobID, "count", len(targets), "qubits", job.Config.Qubits)

	// Build ansatz and sampler
	ansatz, err := circuit.BlockAnsatz(job.Config.Qubits, job.Config.Reps)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to build ansatz: %w", err))
		return err
	}
	sampler := sim.NewSimulator(ansatz, job.Config.Seed)

	// Initial parameters: uniform angles from the run's seed
	initRng := rand.New(rand.NewSource(job.Config.Seed))
	x0 := make([]float64, ansatz.NumParams())
	for i := range x0 {
		x0[i] = initRng.Float64() * 2 * math.Pi
	}

	// Initial loss over one mini-batch
	batch := drawBatch(targets, job.Config.BatchSize, initRng)
	initialCounts, err := sampler.Sample(ctx, x0, job.Config.Shots)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	initialLoss, err := train.NLL(initialCounts, batch, job.Config.Shots)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialLoss = initialLoss
		j.Loss = initialLoss
		j.Params = append([]float64(nil), x0...)
	})

	// Trace persistence
	var traceWriter *store.TraceWriter
	if fsStore, ok := checkpointStore.(*store.FSStore); ok {
		traceWriter, err = store.NewTraceWriter(fsStore.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Failed to create trace writer", "job_id", jobID, "error", err)
			traceWriter = nil
		} else {
			defer traceWriter.Close()
		}
	}

	// Check for cancellation before starting expensive operation
	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	start := time.Now()

	// Start progress monitoring goroutine
	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, start, progressDone)

	// Start checkpoint monitoring goroutine if enabled
	checkpointDone := make(chan struct{})
	if checkpointStore != nil && job.Config.CheckpointInterval > 0 {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, checkpointDone)
	}

	var final []float64
	switch job.Config.Mode {
	case "spsa":
		final, err = runSPSA(ctx, jm, traceWriter, sampler, targets, x0, jobID, job.Config)
	case "mayfly":
		final, err = runMayfly(ctx, jm, sampler, targets, jobID, job.Config)
	default:
		err = fmt.Errorf("unknown mode: %s", job.Config.Mode)
	}

	close(progressDone)
	close(checkpointDone)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	// Update job with results
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Params = final
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	// Persist a final checkpoint so the run can be resumed or inspected
	if checkpointStore != nil {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Warn("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}
	if traceWriter != nil {
		if err := traceWriter.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "job_id", jobID, "error", err)
		}
	}

	job, _ = jm.GetJob(jobID)
	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"initial_loss", initialLoss,
		"final_loss", job.Loss,
	)

	// Broadcast final completion event
	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		Step:      job.Step,
		Loss:      job.Loss,
		ShotsPerS: shotsPerSecond(job, elapsed.Seconds()),
		Timestamp: time.Now(),
	})

	return nil
}

// runSPSA drives the gradient-descent trainer, mirroring step progress
// into the job and the trace file.
func runSPSA(ctx context.Context, jm *JobManager, traceWriter *store.TraceWriter, sampler *sim.Simulator, targets []uint64, x0 []float64, jobID string, config JobConfig) ([]float64, error) {
	trainer := train.NewTrainer(sampler, config.Shots, config.BatchSize, config.LearningRate, config.EpsilonScale, config.Seed)
	trainer.OnStep = func(step int, loss float64, x []float64) {
		params := append([]float64(nil), x...)
		jm.UpdateJob(jobID, func(j *Job) {
			j.Step = step + 1
			j.Loss = loss
			j.Params = params
		})
		if traceWriter != nil {
			entry := store.TraceEntry{Step: step, Loss: loss, Timestamp: time.Now()}
			if err := traceWriter.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}
	}

	final, _, err := trainer.Run(ctx, x0, targets, config.Steps, nil)
	return final, err
}

// runMayfly runs the gradient-free mode: a population search over the
// [0, 2π] hypercube minimizing fresh-sample NLL.
func runMayfly(ctx context.Context, jm *JobManager, sampler *sim.Simulator, targets []uint64, jobID string, config JobConfig) ([]float64, error) {
	batchRng := rand.New(rand.NewSource(config.Seed))

	var samplerErr error
	evals := 0
	best := math.Inf(1)

	eval := func(x []float64) float64 {
		if samplerErr != nil || ctx.Err() != nil {
			return math.Inf(1)
		}
		batch := drawBatch(targets, config.BatchSize, batchRng)
		counts, err := sampler.Sample(ctx, x, config.Shots)
		if err != nil {
			samplerErr = err
			return math.Inf(1)
		}
		loss, err := train.NLL(counts, batch, config.Shots)
		if err != nil {
			samplerErr = err
			return math.Inf(1)
		}

		evals++
		if loss < best {
			best = loss
			step := evals
			jm.UpdateJob(jobID, func(j *Job) {
				j.Step = step
				j.Loss = loss
			})
		}
		return loss
	}

	dim := sampler.NumParams()
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		upper[i] = 2 * math.Pi
	}

	optimizer := opt.NewMayfly(config.Steps, config.PopSize, config.Seed)
	bestParams, bestLoss := optimizer.Run(eval, lower, upper, dim)

	if samplerErr != nil {
		return nil, samplerErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.Loss = bestLoss
	})
	return bestParams, nil
}

// drawBatch samples a mini-batch uniformly with replacement.
func drawBatch(targets []uint64, batchSize int, rng *rand.Rand) []uint64 {
	if batchSize > len(targets) {
		batchSize = len(targets)
	}
	batch := make([]uint64, batchSize)
	for i := range batch {
		batch[i] = targets[rng.Intn(len(targets))]
	}
	return batch
}

// monitorProgress periodically broadcasts progress events during training
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, startTime time.Time, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Get current job state
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}

			elapsed := time.Since(startTime).Seconds()

			// Broadcast progress event
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:     jobID,
				State:     job.State,
				Step:      job.Step,
				Loss:      job.Loss,
				ShotsPerS: shotsPerSecond(job, elapsed),
				Timestamp: time.Now(),
			})
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during training
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, done chan struct{}) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}

	interval := time.Duration(job.Config.CheckpointInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Save checkpoint
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint saves a checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	// Get current job state
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	// Skip if no parameters yet
	if len(job.Params) == 0 {
		slog.Debug("Skipping checkpoint, no params yet", "job_id", jobID)
		return nil
	}

	// Create checkpoint
	checkpoint := store.NewCheckpoint(
		jobID,
		job.Params,
		job.Loss,
		job.InitialLoss,
		job.Step,
		job.Config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"step", job.Step,
		"loss", job.Loss,
	)

	return nil
}
