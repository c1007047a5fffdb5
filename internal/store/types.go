package store

import (
	"fmt"
	"time"
)

// JobConfig holds configuration for a training job (checkpoint copy).
// This avoids import cycles with server package.
type JobConfig struct {
	DataPath           string  `json:"dataPath"`
	Mode               string  `json:"mode"` // spsa, mayfly
	Qubits             int     `json:"qubits"`
	Reps               int     `json:"reps"`
	Steps              int     `json:"steps"`
	BatchSize          int     `json:"batchSize"`
	Shots              int     `json:"shots"`
	LearningRate       float64 `json:"learningRate"`
	EpsilonScale       float64 `json:"epsilonScale"`
	PopSize            int     `json:"popSize,omitempty"` // mayfly mode only
	Seed               int64   `json:"seed"`
	CheckpointInterval int     `json:"checkpointInterval,omitempty"` // Checkpoint every N seconds (0 = disabled)
}

// Checkpoint represents a saved training state that can be resumed
// later. All fields are serialized to JSON for persistence.
//
// The checkpoint carries the current parameter vector and step count,
// not the trainer's RNG state. A resumed run therefore continues from
// the saved angles with a fresh perturbation stream: losses will not
// replay bit-identically, but the parameters never regress and the
// checkpoint format stays independent of the optimization mode.
type Checkpoint struct {
	// JobID is the unique identifier for this training job
	JobID string `json:"jobId"`

	// Params is the circuit parameter vector at checkpoint time
	Params []float64 `json:"params"`

	// Loss is the most recent training loss (mean NLL over a batch)
	Loss float64 `json:"loss"`

	// InitialLoss is the loss at the starting parameters, for
	// improvement tracking
	InitialLoss float64 `json:"initialLoss"`

	// Step is the number of completed training steps
	Step int `json:"step"`

	// Timestamp records when this checkpoint was created
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for validation during
	// resume. Resumed jobs must use compatible settings (same targets,
	// same ansatz shape).
	Config JobConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without the full
// parameter data. Used for listing checkpoints efficiently.
type CheckpointInfo struct {
	JobID     string    `json:"jobId"`
	Loss      float64   `json:"loss"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Qubits    int       `json:"qubits"`
	DataPath  string    `json:"dataPath"`
}

// NewCheckpoint creates a checkpoint from job state.
func NewCheckpoint(jobID string, params []float64, loss, initialLoss float64, step int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		Params:      params,
		Loss:        loss,
		InitialLoss: initialLoss,
		Step:        step,
		Timestamp:   time.Now(),
		Config:      config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:     c.JobID,
		Loss:      c.Loss,
		Step:      c.Step,
		Timestamp: c.Timestamp,
		Mode:      c.Config.Mode,
		Qubits:    c.Config.Qubits,
		DataPath:  c.Config.DataPath,
	}
}

// Validate checks if the checkpoint has valid data.
// Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.Params) == 0 {
		return &ValidationError{Field: "Params", Reason: "cannot be empty"}
	}
	if c.Step < 0 {
		return &ValidationError{Field: "Step", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.DataPath == "" {
		return &ValidationError{Field: "Config.DataPath", Reason: "cannot be empty"}
	}
	if c.Config.Mode == "" {
		return &ValidationError{Field: "Config.Mode", Reason: "cannot be empty"}
	}
	if c.Config.Qubits <= 0 {
		return &ValidationError{Field: "Config.Qubits", Reason: "must be positive"}
	}
	if c.Config.Reps <= 0 {
		return &ValidationError{Field: "Config.Reps", Reason: "must be positive"}
	}
	if c.Config.Steps <= 0 {
		return &ValidationError{Field: "Config.Steps", Reason: "must be positive"}
	}
	if c.Config.Shots <= 0 {
		return &ValidationError{Field: "Config.Shots", Reason: "must be positive"}
	}
	if c.Config.BatchSize <= 0 {
		return &ValidationError{Field: "Config.BatchSize", Reason: "must be positive"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given
// config. The target set and the ansatz shape must match; everything
// else (rates, shots, step budget) may change between runs.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.DataPath != config.DataPath {
		return &CompatibilityError{
			Field:    "DataPath",
			Expected: c.Config.DataPath,
			Actual:   config.DataPath,
		}
	}
	if c.Config.Mode != config.Mode {
		return &CompatibilityError{
			Field:    "Mode",
			Expected: c.Config.Mode,
			Actual:   config.Mode,
		}
	}
	if c.Config.Qubits != config.Qubits {
		return &CompatibilityError{
			Field:    "Qubits",
			Expected: fmt.Sprintf("%d", c.Config.Qubits),
			Actual:   fmt.Sprintf("%d", config.Qubits),
		}
	}
	if c.Config.Reps != config.Reps {
		return &CompatibilityError{
			Field:    "Reps",
			Expected: fmt.Sprintf("%d", c.Config.Reps),
			Actual:   fmt.Sprintf("%d", config.Reps),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
