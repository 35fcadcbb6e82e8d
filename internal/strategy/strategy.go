// Package strategy defines the Evaluator interface for investment signal
// strategies and provides a Registry for building them by name.
package strategy

import (
	"fmt"
	"sort"

	"dripsim/internal/domain"
)

// Signal is the outcome of evaluating one bar window.
type Signal struct {
	// Invest indicates the strategy wants to deploy accumulated cash at
	// this bar's close.
	Invest bool

	// Value is the indicator reading that produced the decision, for
	// diagnostics.
	Value float64

	// Reason is a short human-readable explanation of the decision.
	Reason string
}

// Evaluator is the interface all signal strategies implement. Evaluate is
// called once per bar with a window of the most recent bars, newest last.
// The window holds at least Warmup bars; the engine skips evaluation until
// that many bars have been seen.
type Evaluator interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Warmup returns the minimum number of bars required before Evaluate
	// produces meaningful signals.
	Warmup() int

	// Evaluate inspects the bar window and decides whether to invest.
	Evaluate(window []domain.PriceBar) (Signal, error)
}

// Builder constructs an Evaluator from numeric parameters. Missing keys take
// strategy defaults; unknown keys are ignored.
type Builder func(params map[string]float64) (Evaluator, error)

// Registry holds a named collection of strategy builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// NewDefaultRegistry creates a Registry with every built-in strategy
// registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("dca", NewDCA)
	r.Register("rsi", NewRSI)
	r.Register("ma-cross", NewMACross)
	r.Register("bollinger", NewBollinger)
	return r
}

// Register adds a builder under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, b Builder) {
	r.builders[name] = b
}

// Build constructs the named strategy with the given parameters.
func (r *Registry) Build(name string, params map[string]float64) (Evaluator, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (have %v)", name, r.List())
	}
	return b(params)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// param reads a parameter with a fallback default.
func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// intParam reads an integer-valued parameter, rejecting non-positive values.
func intParam(params map[string]float64, key string, def int) (int, error) {
	v := param(params, key, float64(def))
	n := int(v)
	if n <= 0 || float64(n) != v {
		return 0, fmt.Errorf("parameter %q must be a positive integer, got %v", key, v)
	}
	return n, nil
}
