package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// StateProvider exposes the resident calculator state
type StateProvider interface {
	State() *Snapshot
}

// HealthService reports liveness and the state of the resident dataset
type HealthService struct {
	version   string
	state     StateProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Dataset   *DatasetStatus         `json:"dataset,omitempty"`
}

// DatasetStatus summarizes the resident snapshot
type DatasetStatus struct {
	Loaded       bool      `json:"loaded"`
	Valid        bool      `json:"valid"`
	Source       string    `json:"source,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	YearMin      int       `json:"year_min,omitempty"`
	YearMax      int       `json:"year_max,omitempty"`
	Observations int       `json:"observations"`
	People       int       `json:"people"`
	Ratios       int       `json:"ratios"`
	Panels       int       `json:"panels"`
	Errors       int       `json:"errors"`
	Results      int       `json:"results"`
}

// NewHealthService creates a health service reading the state of state
func NewHealthService(version string, state StateProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		state:     state,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// StatusCheck returns the health status with a summary of the resident dataset.
// The status is "empty" until a dataset is loaded and "invalid" while it has errors.
func (hs *HealthService) StatusCheck(ctx context.Context) HealthStatus {
	ds := DescribeSnapshot(hs.state.State())

	status := "ok"
	switch {
	case !ds.Loaded:
		status = "empty"
	case !ds.Valid:
		status = "invalid"
	}

	hs.logger.DebugContext(ctx, "status check", slog.String("status", status))
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   hs.version,
		Dataset:   &ds,
	}
}

// DescribeSnapshot counts the content of s
func DescribeSnapshot(s *Snapshot) DatasetStatus {
	return DatasetStatus{
		Loaded:       s.HasDataset(),
		Valid:        s.IsValid(),
		Source:       s.Source,
		RunID:        s.RunID,
		LoadedAt:     s.LoadedAt,
		YearMin:      s.YearMin(),
		YearMax:      s.YearMax(),
		Observations: len(s.Observations()),
		People:       len(s.People()),
		Ratios:       len(s.Ratios()),
		Panels:       len(s.Panels()),
		Errors:       len(s.Errors()),
		Results:      len(s.Results()),
	}
}
