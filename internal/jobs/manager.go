package jobs

import (
	"errors"
	"fmt"
	"sync"

	"reaper-video-fx/internal/domain"
)

// ErrJobAlreadyRunning is returned when starting a second active job.
var ErrJobAlreadyRunning = errors.New("job already running")

// ErrNoRunningJob is returned when cancel is requested for idle state.
var ErrNoRunningJob = errors.New("no running job")

// Manager tracks the single allowed processing job and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Job
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Job{
			Status: domain.JobStatusIdle,
		},
	}
}

// Start registers a new job for videoPath and moves it to extracting.
func (m *Manager) Start(jobID, videoPath string, trackIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isRunning(m.current.Status) {
		return ErrJobAlreadyRunning
	}

	m.current = domain.Job{
		ID:         jobID,
		Status:     domain.JobStatusExtracting,
		VideoPath:  videoPath,
		TrackIndex: trackIndex,
	}
	return nil
}

// Transition validates and applies state transitions for current job.
func (m *Manager) Transition(status domain.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.JobStatusIdle {
		return fmt.Errorf("cannot transition without an active job")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Complete records the output path and moves a merging job to done.
func (m *Manager) Complete(outputPath string) error {
	if err := m.Transition(domain.JobStatusDone); err != nil {
		return err
	}
	m.mu.Lock()
	m.current.OutputPath = outputPath
	m.mu.Unlock()
	return nil
}

// Current returns a snapshot of the current job.
func (m *Manager) Current() domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears job metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Job{Status: domain.JobStatusIdle}
}

// IsRunning reports whether the current state is an active stage.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isRunning(m.current.Status)
}

// Cancel moves an active job to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isRunning(m.current.Status) {
		return ErrNoRunningJob
	}
	m.current.Status = domain.JobStatusCancelled
	return nil
}

// isRunning checks if a status represents active pipeline execution.
func isRunning(status domain.JobStatus) bool {
	switch status {
	case domain.JobStatusExtracting,
		domain.JobStatusClearing,
		domain.JobStatusLoading,
		domain.JobStatusRendering,
		domain.JobStatusMerging:
		return true
	default:
		return false
	}
}

// next lists the forward edge of each running stage.
var next = map[domain.JobStatus]domain.JobStatus{
	domain.JobStatusExtracting: domain.JobStatusClearing,
	domain.JobStatusClearing:   domain.JobStatusLoading,
	domain.JobStatusLoading:    domain.JobStatusRendering,
	domain.JobStatusRendering:  domain.JobStatusMerging,
	domain.JobStatusMerging:    domain.JobStatusDone,
}

// isValidTransition enforces the allowed job state machine edges.
func isValidTransition(from, to domain.JobStatus) bool {
	switch {
	case from == domain.JobStatusIdle:
		return to == domain.JobStatusExtracting
	case isRunning(from):
		return to == next[from] || to == domain.JobStatusFailed || to == domain.JobStatusCancelled
	case from == domain.JobStatusDone, from == domain.JobStatusFailed, from == domain.JobStatusCancelled:
		return to == domain.JobStatusExtracting || to == domain.JobStatusIdle
	default:
		return false
	}
}
