package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quvar/ansatzfit/internal/circuit"
	"github.com/quvar/ansatzfit/internal/sim"
	"github.com/quvar/ansatzfit/internal/store"
	"github.com/quvar/ansatzfit/internal/train"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir string
	resumeSteps   int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a checkpointed training run",
	Long: `Loads the checkpoint for a job and continues SPSA training from the
saved parameters, appending to the job's loss trace. The additional
steps use a fresh perturbation stream; parameters continue from where
the checkpoint left off.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	resumeCmd.Flags().IntVar(&resumeSteps, "steps", 100, "Additional training steps")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	if resumeSteps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", resumeSteps)
	}

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	if checkpoint.Config.Mode != "spsa" {
		return fmt.Errorf("resume supports spsa jobs only, checkpoint mode is %q", checkpoint.Config.Mode)
	}

	config := checkpoint.Config

	slog.Info("Resuming job",
		"job_id", jobID,
		"step", checkpoint.Step,
		"loss", checkpoint.Loss,
		"additional_steps", resumeSteps,
	)

	targets, err := train.LoadTargets(config.DataPath, config.Qubits)
	if err != nil {
		return fmt.Errorf("failed to load targets: %w", err)
	}

	ansatz, err := circuit.BlockAnsatz(config.Qubits, config.Reps)
	if err != nil {
		return fmt.Errorf("failed to build ansatz: %w", err)
	}
	if ansatz.NumParams() != len(checkpoint.Params) {
		return fmt.Errorf("checkpoint has %d params, ansatz expects %d", len(checkpoint.Params), ansatz.NumParams())
	}
	sampler := sim.NewSimulator(ansatz, config.Seed)

	// Continue the trace file of the original run
	traceWriter, err := store.NewTraceWriter(resumeDataDir, jobID, true)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer traceWriter.Close()

	stepOffset := checkpoint.Step

	// Offset the seed so the continuation draws a fresh perturbation
	// stream instead of replaying the original run's.
	trainer := train.NewTrainer(sampler, config.Shots, config.BatchSize, config.LearningRate, config.EpsilonScale, config.Seed+int64(stepOffset))
	trainer.OnStep = func(step int, loss float64, x []float64) {
		entry := store.TraceEntry{Step: stepOffset + step, Loss: loss, Timestamp: time.Now()}
		if err := traceWriter.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	}

	start := time.Now()
	final, trace, err := trainer.Run(context.Background(), checkpoint.Params, targets, resumeSteps, nil)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	elapsed := time.Since(start)

	finalLoss := trace[len(trace)-1]

	updated := store.NewCheckpoint(jobID, final, finalLoss, checkpoint.InitialLoss, stepOffset+resumeSteps, config)
	if err := checkpointStore.SaveCheckpoint(jobID, updated); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	if err := traceWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}

	slog.Info("Resume complete",
		"job_id", jobID,
		"elapsed", elapsed,
		"step", stepOffset+resumeSteps,
		"loss", finalLoss,
	)

	fmt.Printf("Resumed %s: step %d -> %d (loss: %.4f -> %.4f)\n",
		jobID, stepOffset, stepOffset+resumeSteps, checkpoint.Loss, finalLoss)

	return nil
}
