package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"yc-mcp-go/internal/directory"
	"yc-mcp-go/internal/tools"
)

// InstrumentedCaller wraps a tool caller to add telemetry
type InstrumentedCaller struct {
	next    tools.Caller
	metrics *Metrics
}

// NewInstrumentedCaller creates a new telemetry-aware tool caller
func NewInstrumentedCaller(next tools.Caller, metrics *Metrics) *InstrumentedCaller {
	return &InstrumentedCaller{
		next:    next,
		metrics: metrics,
	}
}

// Call wraps the underlying Call to add telemetry
func (c *InstrumentedCaller) Call(ctx context.Context, name string, args json.RawMessage) (directory.Envelope, error) {
	start := time.Now()

	result, err := c.next.Call(ctx, name, args)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	} else if _, failed := result.Err(); failed {
		outcome = OutcomeEnvelopeError
	}

	c.metrics.RecordToolExecution(name, outcome, time.Since(start))

	return result, err
}
