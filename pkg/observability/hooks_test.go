package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnPhaseStart(ctx, "splitting", 42)
	p.OnPhaseComplete(ctx, "splitting", 7, time.Second, nil)
	p.OnIterationComplete(ctx, 1, true)

	v := NoopValidationHooks{}
	v.OnValidation(ctx, "splitting", true, 99.8)
	v.OnCheckFailed(ctx, "splitting", "coverage")

	m := NoopMetricsHooks{}
	m.OnConnectivity(ctx, 1, 0.97, 2)
	m.OnRegression(ctx, 2, 0.97, 0.85)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Validation().(NoopValidationHooks); !ok {
		t.Error("Validation() should return NoopValidationHooks by default")
	}
	if _, ok := Metrics().(NoopMetricsHooks); !ok {
		t.Error("Metrics() should return NoopMetricsHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customValidation := &testValidationHooks{}
	SetValidationHooks(customValidation)
	if Validation() != customValidation {
		t.Error("SetValidationHooks should set custom hooks")
	}

	customMetrics := &testMetricsHooks{}
	SetMetricsHooks(customMetrics)
	if Metrics() != customMetrics {
		t.Error("SetMetricsHooks should set custom hooks")
	}

	// Nil registrations are ignored
	SetPipelineHooks(nil)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks(nil) should not clear hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore noop hooks")
	}
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testPipelineHooks{}
	SetPipelineHooks(h)

	ctx := context.Background()
	Pipeline().OnPhaseStart(ctx, "bridging", 10)
	Pipeline().OnPhaseComplete(ctx, "bridging", 3, time.Millisecond, nil)
	Pipeline().OnIterationComplete(ctx, 1, true)

	if h.starts != 1 || h.completes != 1 || h.iterations != 1 {
		t.Errorf("expected 1/1/1 events, got %d/%d/%d", h.starts, h.completes, h.iterations)
	}
	if h.lastPhase != "bridging" {
		t.Errorf("expected phase bridging, got %s", h.lastPhase)
	}
}

type testPipelineHooks struct {
	starts     int
	completes  int
	iterations int
	lastPhase  string
}

func (h *testPipelineHooks) OnPhaseStart(_ context.Context, phase string, _ int) {
	h.starts++
	h.lastPhase = phase
}

func (h *testPipelineHooks) OnPhaseComplete(_ context.Context, phase string, _ int, _ time.Duration, _ error) {
	h.completes++
	h.lastPhase = phase
}

func (h *testPipelineHooks) OnIterationComplete(context.Context, int, bool) {
	h.iterations++
}

type testValidationHooks struct{}

func (testValidationHooks) OnValidation(context.Context, string, bool, float64) {}
func (testValidationHooks) OnCheckFailed(context.Context, string, string)       {}

type testMetricsHooks struct{}

func (testMetricsHooks) OnConnectivity(context.Context, int, float64, int)   {}
func (testMetricsHooks) OnRegression(context.Context, int, float64, float64) {}
