package http

import (
	"context"
	"io"

	"pindex/internal/services"
)

// CalculatorService is the part of services.CalculatorService the HTTP view uses
type CalculatorService interface {
	Load(ctx context.Context, src io.Reader, source string) (*services.Snapshot, error)
	State() *services.Snapshot
	Reset()
	WriteRatios(ctx context.Context, w io.Writer) error
	WriteIndices(ctx context.Context, w io.Writer) error
	WriteWorkbook(ctx context.Context, w io.Writer) error
}

// HealthService is the part of services.HealthService the HTTP view uses
type HealthService interface {
	LivenessCheck(ctx context.Context) services.HealthStatus
	StatusCheck(ctx context.Context) services.HealthStatus
}
