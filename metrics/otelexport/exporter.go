// Package otelexport bridges the in-process authcore counters to an
// OpenTelemetry Meter as observable counters. The bridge is pull-based:
// values are read from a snapshot inside the SDK's collection callback, so
// the hot path stays free of OTel instrumentation.
package otelexport

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/arlogy/authcore"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is anything that can produce a counters snapshot. *authcore.Authority
// satisfies it.
type Source interface {
	MetricsSnapshot() authcore.MetricsSnapshot
}

type observedCounter struct {
	id         authcore.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter owns the registered instruments. Unregister stops collection.
type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []observedCounter
}

// New registers one observable counter per authcore.CounterDefs entry.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(authcore.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(authcore.CounterDefs))
	for _, def := range authcore.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register metrics callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snap.Counters[c.id]))
	}
	return nil
}

// Unregister detaches the exporter from its meter.
func (e *Exporter) Unregister() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
