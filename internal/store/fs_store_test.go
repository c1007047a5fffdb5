package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir() // Automatically cleaned up after test
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		Params:      []float64{0.5, 1.2, 3.1, 2.7, 0.9, 1.8},
		Loss:        1.234,
		InitialLoss: 8.562,
		Step:        500,
		Timestamp:   time.Now(),
		Config: JobConfig{
			DataPath:     "assets/targets.txt",
			Mode:         "spsa",
			Qubits:       4,
			Reps:         3,
			Steps:        1000,
			BatchSize:    16,
			Shots:        1000,
			LearningRate: 0.1,
			EpsilonScale: 0.05,
			Seed:         42,
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if store.BaseDir() != tempDir {
		t.Errorf("Expected base dir %s, got %s", tempDir, store.BaseDir())
	}

	// Verify base directory was created
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	jobID := "test-job-123"
	checkpoint := createTestCheckpoint(jobID)

	// Save checkpoint
	err := store.SaveCheckpoint(jobID, checkpoint)
	if err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	// Verify checkpoint file exists
	expectedPath := filepath.Join(tempDir, "jobs", jobID, "checkpoint.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Checkpoint file was not created at %s", expectedPath)
	}

	// Verify no temp file remains
	tempPath := expectedPath + ".tmp"
	if _, err := os.Stat(tempPath); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save: %s", tempPath)
	}
}

func TestSaveCheckpoint_EmptyJobID(t *testing.T) {
	store, _ := setupTestStore(t)
	checkpoint := createTestCheckpoint("any-id")

	err := store.SaveCheckpoint("", checkpoint)
	if err == nil {
		t.Fatal("Expected error for empty jobID")
	}
}

func TestSaveCheckpoint_NilCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.SaveCheckpoint("test-job", nil)
	if err == nil {
		t.Fatal("Expected error for nil checkpoint")
	}
}

func TestSaveCheckpoint_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "test-job-overwrite"
	checkpoint1 := createTestCheckpoint(jobID)
	checkpoint1.Loss = 5.0

	checkpoint2 := createTestCheckpoint(jobID)
	checkpoint2.Loss = 1.0

	// Save first checkpoint
	if err := store.SaveCheckpoint(jobID, checkpoint1); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	// Overwrite with second checkpoint
	if err := store.SaveCheckpoint(jobID, checkpoint2); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	// Load and verify the second checkpoint won
	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.Loss != 1.0 {
		t.Errorf("Expected loss 1.0 after overwrite, got %v", loaded.Loss)
	}
}

func TestLoadCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "test-job-load"
	original := createTestCheckpoint(jobID)

	if err := store.SaveCheckpoint(jobID, original); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.JobID != original.JobID {
		t.Errorf("JobID mismatch: expected %s, got %s", original.JobID, loaded.JobID)
	}
	if loaded.Loss != original.Loss {
		t.Errorf("Loss mismatch: expected %v, got %v", original.Loss, loaded.Loss)
	}
	if loaded.InitialLoss != original.InitialLoss {
		t.Errorf("InitialLoss mismatch: expected %v, got %v", original.InitialLoss, loaded.InitialLoss)
	}
	if loaded.Step != original.Step {
		t.Errorf("Step mismatch: expected %d, got %d", original.Step, loaded.Step)
	}
	if len(loaded.Params) != len(original.Params) {
		t.Fatalf("Params length mismatch: expected %d, got %d", len(original.Params), len(loaded.Params))
	}
	for i := range original.Params {
		if loaded.Params[i] != original.Params[i] {
			t.Errorf("Params[%d] mismatch: expected %v, got %v", i, original.Params[i], loaded.Params[i])
		}
	}
	if loaded.Config.Mode != original.Config.Mode {
		t.Errorf("Config.Mode mismatch: expected %s, got %s", original.Config.Mode, loaded.Config.Mode)
	}
	if loaded.Config.Qubits != original.Config.Qubits {
		t.Errorf("Config.Qubits mismatch: expected %d, got %d", original.Config.Qubits, loaded.Config.Qubits)
	}
}

func TestLoadCheckpoint_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("nonexistent-job")
	if err == nil {
		t.Fatal("Expected error for nonexistent checkpoint")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLoadCheckpoint_Corrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	jobID := "corrupted-job"
	jobDir := filepath.Join(tempDir, "jobs", jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		t.Fatalf("Failed to create job dir: %v", err)
	}
	path := filepath.Join(jobDir, "checkpoint.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupted file: %v", err)
	}

	_, err := store.LoadCheckpoint(jobID)
	if err == nil {
		t.Fatal("Expected error for corrupted checkpoint")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Corrupted checkpoint should not report as not found")
	}
}

func TestListCheckpoints_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty list, got %d entries", len(infos))
	}
}

func TestListCheckpoints(t *testing.T) {
	store, _ := setupTestStore(t)

	jobIDs := []string{"job-a", "job-b", "job-c"}
	for _, jobID := range jobIDs {
		if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
			t.Fatalf("SaveCheckpoint failed for %s: %v", jobID, err)
		}
	}

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != len(jobIDs) {
		t.Fatalf("Expected %d checkpoints, got %d", len(jobIDs), len(infos))
	}

	found := map[string]bool{}
	for _, info := range infos {
		found[info.JobID] = true
		if info.Mode != "spsa" {
			t.Errorf("Expected mode spsa in info, got %s", info.Mode)
		}
		if info.Qubits != 4 {
			t.Errorf("Expected 4 qubits in info, got %d", info.Qubits)
		}
	}
	for _, jobID := range jobIDs {
		if !found[jobID] {
			t.Errorf("Checkpoint %s missing from listing", jobID)
		}
	}
}

func TestListCheckpoints_SkipsCorrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveCheckpoint("good-job", createTestCheckpoint("good-job")); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	badDir := filepath.Join(tempDir, "jobs", "bad-job")
	os.MkdirAll(badDir, 0755)
	os.WriteFile(filepath.Join(badDir, "checkpoint.json"), []byte("garbage"), 0644)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Expected 1 checkpoint (corrupted skipped), got %d", len(infos))
	}
	if infos[0].JobID != "good-job" {
		t.Errorf("Expected good-job, got %s", infos[0].JobID)
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	jobID := "test-job-delete"
	if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	// Write a trace alongside, deletion covers all job artifacts
	tw, err := NewTraceWriter(tempDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.Write(TraceEntry{Step: 1, Loss: 2.0, Timestamp: time.Now()})
	tw.Close()

	if err := store.DeleteCheckpoint(jobID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	// Entire job directory is gone
	jobDir := filepath.Join(tempDir, "jobs", jobID)
	if _, err := os.Stat(jobDir); !os.IsNotExist(err) {
		t.Errorf("Job directory should be removed: %s", jobDir)
	}

	_, err = store.LoadCheckpoint(jobID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteCheckpoint_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.DeleteCheckpoint("nonexistent-job")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
