package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/quvar/ansatzfit/internal/circuit"
	"github.com/quvar/ansatzfit/internal/opt"
	"github.com/quvar/ansatzfit/internal/sim"
	"github.com/quvar/ansatzfit/internal/train"
	"github.com/spf13/cobra"
)

var (
	dataPath  string
	outPath   string
	mode      string
	qubits    int
	reps      int
	steps     int
	batchSize int
	shots     int
	learnRate float64
	epsScale  float64
	popSize   int
	seed      int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot training",
	Long:  `Trains ansatz parameters against a target bitstring file and writes the result as JSON.`,
	RunE:  runTraining,
}

func init() {
	runCmd.Flags().StringVar(&dataPath, "data", "", "Target bitstring file (required)")
	runCmd.Flags().StringVar(&outPath, "out", "result.json", "Output result path")
	runCmd.Flags().StringVar(&mode, "mode", "spsa", "Training mode: spsa, mayfly")
	runCmd.Flags().IntVar(&qubits, "qubits", 4, "Number of qubits (2, 4 or a multiple of 4)")
	runCmd.Flags().IntVar(&reps, "reps", 3, "Ansatz layer repetitions")
	runCmd.Flags().IntVar(&steps, "steps", 200, "Training steps")
	runCmd.Flags().IntVar(&batchSize, "batch", 16, "Mini-batch size")
	runCmd.Flags().IntVar(&shots, "shots", 1000, "Measurement shots per sample")
	runCmd.Flags().Float64Var(&learnRate, "lr", 0.1, "Learning rate")
	runCmd.Flags().Float64Var(&epsScale, "eps", 0.05, "Perturbation scale (fraction of 2π)")
	runCmd.Flags().IntVar(&popSize, "pop", 20, "Population size (mayfly mode)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")

	runCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(runCmd)
}

// runResult is the JSON document written by the run command.
type runResult struct {
	Mode        string    `json:"mode"`
	Qubits      int       `json:"qubits"`
	Reps        int       `json:"reps"`
	Seed        int64     `json:"seed"`
	InitialLoss float64   `json:"initialLoss"`
	FinalLoss   float64   `json:"finalLoss"`
	Params      []float64 `json:"params"`
	Trace       []float64 `json:"trace,omitempty"`
}

func runTraining(cmd *cobra.Command, args []string) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	slog.Info("Starting training", "mode", mode, "qubits", qubits, "reps", reps, "steps", steps)

	targets, err := train.LoadTargets(dataPath, qubits)
	if err != nil {
		return fmt.Errorf("failed to load targets: %w", err)
	}

	ansatz, err := circuit.BlockAnsatz(qubits, reps)
	if err != nil {
		return fmt.Errorf("failed to build ansatz: %w", err)
	}
	sampler := sim.NewSimulator(ansatz, seed)

	slog.Info("Built ansatz", "qubits", qubits, "params", ansatz.NumParams(), "targets", len(targets))

	// Initial parameters: uniform angles from the seed
	rng := rand.New(rand.NewSource(seed))
	x0 := make([]float64, ansatz.NumParams())
	for i := range x0 {
		x0[i] = rng.Float64() * 2 * math.Pi
	}

	ctx := context.Background()

	initialLoss, err := evalLoss(ctx, sampler, targets, x0, rng)
	if err != nil {
		return err
	}

	start := time.Now()
	result := runResult{
		Mode:        mode,
		Qubits:      qubits,
		Reps:        reps,
		Seed:        seed,
		InitialLoss: initialLoss,
	}

	switch mode {
	case "spsa":
		trainer := train.NewTrainer(sampler, shots, batchSize, learnRate, epsScale, seed)
		final, trace, err := trainer.Run(ctx, x0, targets, steps, nil)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
		result.Params = final
		result.Trace = trace
		result.FinalLoss = trace[len(trace)-1]

	case "mayfly":
		final, loss, err := runMayflySearch(ctx, sampler, targets, seed)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
		result.Params = final
		result.FinalLoss = loss

	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}

	elapsed := time.Since(start)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	slog.Info("Training complete",
		"elapsed", elapsed,
		"initial_loss", result.InitialLoss,
		"final_loss", result.FinalLoss,
	)

	fmt.Printf("Wrote %s (loss: %.4f -> %.4f, %d params)\n", outPath, result.InitialLoss, result.FinalLoss, len(result.Params))

	return nil
}

// evalLoss samples once at x and evaluates NLL over a fresh mini-batch.
func evalLoss(ctx context.Context, sampler *sim.Simulator, targets []uint64, x []float64, rng *rand.Rand) (float64, error) {
	n := batchSize
	if n > len(targets) {
		n = len(targets)
	}
	batch := make([]uint64, n)
	for i := range batch {
		batch[i] = targets[rng.Intn(len(targets))]
	}

	counts, err := sampler.Sample(ctx, x, shots)
	if err != nil {
		return 0, err
	}
	return train.NLL(counts, batch, shots)
}

// runMayflySearch runs the gradient-free mode over the [0, 2π] hypercube.
func runMayflySearch(ctx context.Context, sampler *sim.Simulator, targets []uint64, seed int64) ([]float64, float64, error) {
	batchRng := rand.New(rand.NewSource(seed))

	var samplerErr error
	eval := func(x []float64) float64 {
		if samplerErr != nil {
			return math.Inf(1)
		}
		loss, err := evalLoss(ctx, sampler, targets, x, batchRng)
		if err != nil {
			samplerErr = err
			return math.Inf(1)
		}
		return loss
	}

	dim := sampler.NumParams()
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := 0; i < dim; i++ {
		upper[i] = 2 * math.Pi
	}

	optimizer := opt.NewMayfly(steps, popSize, seed)
	best, bestLoss := optimizer.Run(eval, lower, upper, dim)
	if samplerErr != nil {
		return nil, 0, samplerErr
	}
	return best, bestLoss, nil
}
