package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope for all engine metrics.
const meterName = "github.com/cory-johannsen/rogue"

// Metrics holds the instruments recorded by the turn loop. All fields are
// safe for concurrent use.
type Metrics struct {
	// Committed counts actions applied to the world. Attribute: kind.
	Committed metric.Int64Counter
	// Rejected counts actions a rule rejected. Attributes: kind, rule.
	Rejected metric.Int64Counter
	// Consumed counts actions a rule replaced. Attributes: kind, rule.
	Consumed metric.Int64Counter
	// Failed counts actions skipped because a rule returned an error or the
	// commit failed. Attribute: kind.
	Failed metric.Int64Counter
	// ReactionsScheduled counts reactions inserted into the scheduler.
	ReactionsScheduled metric.Int64Counter
	// TurnReactions records how many reactions one resolved entity action scheduled.
	TurnReactions metric.Int64Histogram
}

var reactionBuckets = []float64{0, 1, 2, 4, 8, 16, 32, 64}

// NewMetrics creates every instrument from mp.
//
// Precondition: mp must be non-nil.
// Postcondition: Returns a fully initialised Metrics or the first instrument error.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		panic("observability.NewMetrics: meter provider must not be nil")
	}
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Committed, err = m.Int64Counter("rogue.actions.committed",
		metric.WithDescription("Actions committed to the world by kind."),
	); err != nil {
		return nil, err
	}
	if met.Rejected, err = m.Int64Counter("rogue.actions.rejected",
		metric.WithDescription("Actions rejected by kind and rule."),
	); err != nil {
		return nil, err
	}
	if met.Consumed, err = m.Int64Counter("rogue.actions.consumed",
		metric.WithDescription("Actions replaced by a substitute by kind and rule."),
	); err != nil {
		return nil, err
	}
	if met.Failed, err = m.Int64Counter("rogue.actions.failed",
		metric.WithDescription("Actions skipped after a rule or commit error."),
	); err != nil {
		return nil, err
	}
	if met.ReactionsScheduled, err = m.Int64Counter("rogue.reactions.scheduled",
		metric.WithDescription("Reactions inserted into the action scheduler."),
	); err != nil {
		return nil, err
	}
	if met.TurnReactions, err = m.Int64Histogram("rogue.turn.reactions",
		metric.WithDescription("Reactions scheduled while resolving one entity action."),
		metric.WithExplicitBucketBoundaries(reactionBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// NopMetrics returns Metrics backed by a no-op provider.
func NopMetrics() *Metrics {
	m, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observability.NopMetrics: " + err.Error())
	}
	return m
}

// RecordCommitted counts one committed action.
func (m *Metrics) RecordCommitted(ctx context.Context, kind string) {
	m.Committed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRejected counts one action rejected by rule.
func (m *Metrics) RecordRejected(ctx context.Context, kind, rule string) {
	m.Rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("rule", rule)))
}

// RecordConsumed counts one action consumed by rule.
func (m *Metrics) RecordConsumed(ctx context.Context, kind, rule string) {
	m.Consumed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("rule", rule)))
}

// RecordFailed counts one action skipped on error.
func (m *Metrics) RecordFailed(ctx context.Context, kind string) {
	m.Failed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
