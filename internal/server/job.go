package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobConfig describes an optimization job: which problem to solve, with which
// algorithm, and how the archipelago is shaped.
type JobConfig struct {
	// Problem is the registered problem name (e.g. "Sphere")
	Problem string `json:"problem"`

	// ProblemConfig is passed verbatim to the problem factory.
	// When empty and Dim > 0, {"dim": Dim} is used instead.
	ProblemConfig json.RawMessage `json:"problemConfig,omitempty"`

	// Dim is a convenience shortcut for dimension-only problem configs
	Dim int `json:"dim,omitempty"`

	// Algorithm is the registered algorithm name (e.g. "DE")
	Algorithm string `json:"algorithm"`

	// AlgorithmConfig is passed verbatim to the algorithm factory
	AlgorithmConfig json.RawMessage `json:"algorithmConfig,omitempty"`

	Islands     int    `json:"islands"`
	PopSize     int    `json:"popSize"`
	Generations int    `json:"generations"`
	Seed        uint64 `json:"seed,omitempty"`

	// SnapshotInterval saves a restorable run snapshot every N seconds
	// while the job runs (0 = disabled). A final snapshot is always saved
	// when SaveSnapshot is true.
	SnapshotInterval int  `json:"snapshotInterval,omitempty"`
	SaveSnapshot     bool `json:"saveSnapshot,omitempty"`
}

// Job represents an optimization job
type Job struct {
	ID          string     `json:"id"`
	State       JobState   `json:"state"`
	Config      JobConfig  `json:"config"`
	BestX       []float64  `json:"bestX,omitempty"`
	BestF       float64    `json:"bestF"`
	InitialF    float64    `json:"initialF"`
	Generation  int        `json:"generation"`
	Fevals      uint64     `json:"fevals"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	return job
}

// GetJob retrieves a job by ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	return job, exists
}

// ListJobs returns all jobs
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, job)
		}
	}
	return runningJobs
}
