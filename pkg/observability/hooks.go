// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about topology pipeline execution, validation outcomes,
// and connectivity metrics.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetMetricsHooks(&myMetricsHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnPhaseStart(ctx, "splitting", pieceCount)
//	// ... run the phase ...
//	observability.Pipeline().OnPhaseComplete(ctx, "splitting", changes, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the topology construction pipeline.
type PipelineHooks interface {
	// OnPhaseStart records the start of a pipeline phase
	// (classification, splitting, bridging, contraction, ...).
	OnPhaseStart(ctx context.Context, phase string, entityCount int)

	// OnPhaseComplete records a finished phase with the number of changes
	// it made.
	OnPhaseComplete(ctx context.Context, phase string, changes int, duration time.Duration, err error)

	// OnIterationComplete records one optimization-loop iteration.
	OnIterationComplete(ctx context.Context, iteration int, changed bool)
}

// =============================================================================
// Validation Hooks
// =============================================================================

// ValidationHooks receives validation outcomes.
type ValidationHooks interface {
	// OnValidation records one validation run.
	OnValidation(ctx context.Context, phase string, passed bool, accuracyPct float64)

	// OnCheckFailed records a single failed check by name.
	OnCheckFailed(ctx context.Context, phase, check string)
}

// =============================================================================
// Metrics Hooks
// =============================================================================

// MetricsHooks receives connectivity metrics after each loop iteration.
type MetricsHooks interface {
	// OnConnectivity records the connectivity score and component count.
	OnConnectivity(ctx context.Context, iteration int, score float64, components int)

	// OnRegression records a connectivity score drop beyond the fatal
	// threshold.
	OnRegression(ctx context.Context, iteration int, previous, current float64)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnPhaseStart(context.Context, string, int)                          {}
func (NoopPipelineHooks) OnPhaseComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnIterationComplete(context.Context, int, bool)                     {}

// NoopValidationHooks is a no-op implementation of ValidationHooks.
type NoopValidationHooks struct{}

func (NoopValidationHooks) OnValidation(context.Context, string, bool, float64) {}
func (NoopValidationHooks) OnCheckFailed(context.Context, string, string)       {}

// NoopMetricsHooks is a no-op implementation of MetricsHooks.
type NoopMetricsHooks struct{}

func (NoopMetricsHooks) OnConnectivity(context.Context, int, float64, int)   {}
func (NoopMetricsHooks) OnRegression(context.Context, int, float64, float64) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks   PipelineHooks   = NoopPipelineHooks{}
	validationHooks ValidationHooks = NoopValidationHooks{}
	metricsHooks    MetricsHooks    = NoopMetricsHooks{}
	hooksMu         sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any runs.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetValidationHooks registers custom validation hooks.
// This should be called once at application startup before any runs.
func SetValidationHooks(h ValidationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		validationHooks = h
	}
}

// SetMetricsHooks registers custom metrics hooks.
// This should be called once at application startup before any runs.
func SetMetricsHooks(h MetricsHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		metricsHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Validation returns the registered validation hooks.
func Validation() ValidationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return validationHooks
}

// Metrics returns the registered metrics hooks.
func Metrics() MetricsHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return metricsHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	validationHooks = NoopValidationHooks{}
	metricsHooks = NoopMetricsHooks{}
}
