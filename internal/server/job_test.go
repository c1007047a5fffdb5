package server

import (
	"testing"
)

func testJobConfig() JobConfig {
	return JobConfig{
		DataPath:     "testdata/targets.txt",
		Mode:         "spsa",
		Qubits:       4,
		Reps:         3,
		Steps:        200,
		BatchSize:    16,
		Shots:        1000,
		LearningRate: 0.1,
		EpsilonScale: 0.05,
		Seed:         42,
	}
}

func TestCreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig())

	if job.ID == "" {
		t.Error("Expected non-empty job ID")
	}
	if job.State != StatePending {
		t.Errorf("Expected state pending, got %s", job.State)
	}
	if job.Config.DataPath != "testdata/targets.txt" {
		t.Errorf("Expected config to be stored, got %+v", job.Config)
	}
	if job.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}
}

func TestCreateJob_UniqueIDs(t *testing.T) {
	jm := NewJobManager()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		job := jm.CreateJob(testJobConfig())
		if seen[job.ID] {
			t.Fatalf("Duplicate job ID: %s", job.ID)
		}
		seen[job.ID] = true
	}
}

func TestGetJob(t *testing.T) {
	jm := NewJobManager()
	created := jm.CreateJob(testJobConfig())

	job, exists := jm.GetJob(created.ID)
	if !exists {
		t.Fatal("Expected job to exist")
	}
	if job.ID != created.ID {
		t.Errorf("Expected job ID %s, got %s", created.ID, job.ID)
	}

	_, exists = jm.GetJob("nonexistent")
	if exists {
		t.Error("Expected nonexistent job to not exist")
	}
}

func TestListJobs(t *testing.T) {
	jm := NewJobManager()

	if jobs := jm.ListJobs(); len(jobs) != 0 {
		t.Errorf("Expected no jobs initially, got %d", len(jobs))
	}

	jm.CreateJob(testJobConfig())
	jm.CreateJob(testJobConfig())
	jm.CreateJob(testJobConfig())

	if jobs := jm.ListJobs(); len(jobs) != 3 {
		t.Errorf("Expected 3 jobs, got %d", len(jobs))
	}
}

func TestUpdateJob(t *testing.T) {
	jm := NewJobManager()
	created := jm.CreateJob(testJobConfig())

	err := jm.UpdateJob(created.ID, func(j *Job) {
		j.State = StateRunning
		j.Step = 10
		j.Loss = 2.5
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	job, _ := jm.GetJob(created.ID)
	if job.State != StateRunning {
		t.Errorf("Expected state running, got %s", job.State)
	}
	if job.Step != 10 {
		t.Errorf("Expected step 10, got %d", job.Step)
	}
	if job.Loss != 2.5 {
		t.Errorf("Expected loss 2.5, got %v", job.Loss)
	}
}

func TestUpdateJob_NotFound(t *testing.T) {
	jm := NewJobManager()

	err := jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("Expected error for nonexistent job")
	}
}

func TestGetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	job1 := jm.CreateJob(testJobConfig())
	job2 := jm.CreateJob(testJobConfig())
	jm.CreateJob(testJobConfig()) // stays pending

	jm.UpdateJob(job1.ID, func(j *Job) { j.State = StateRunning })
	jm.UpdateJob(job2.ID, func(j *Job) { j.State = StateCompleted })

	running := jm.GetRunningJobs()
	if len(running) != 1 {
		t.Fatalf("Expected 1 running job, got %d", len(running))
	}
	if running[0].ID != job1.ID {
		t.Errorf("Expected running job %s, got %s", job1.ID, running[0].ID)
	}
}
