// Package form implements the schema-driven parameter form: a state machine
// that materializes default values for a selected strategy, accepts per-field
// edits with immutable-update semantics, and validates typed values before
// they may become a configuration request.
//
// The engine owns its value map exclusively and is meant for a single
// operator session; it is not safe for concurrent writers.
package form

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pythia-trading/pythia-console/internal/models"
)

// State names the form's position in its selection state machine.
type State string

const (
	StateNoSelection State = "no_selection"
	StateSelected    State = "selected"
)

// ErrNoSelection is returned by operations that need a selected strategy.
var ErrNoSelection = errors.New("no strategy selected")

// ValidationError aggregates field-scoped failures from one validation
// pass. It blocks submission and never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, if it failed.
func (e *ValidationError) Field(name string) (string, bool) {
	msg, ok := e.Fields[name]
	return msg, ok
}

// Engine is the parameter form state machine.
type Engine struct {
	strategy *models.StrategyDefinition
	values   map[string]string
}

// NewEngine starts in NoSelection with an empty value map.
func NewEngine() *Engine {
	return &Engine{}
}

// State reports the current machine state.
func (e *Engine) State() State {
	if e.strategy == nil {
		return StateNoSelection
	}
	return StateSelected
}

// StrategyID returns the selected strategy's identifier, empty in
// NoSelection.
func (e *Engine) StrategyID() string {
	if e.strategy == nil {
		return ""
	}
	return e.strategy.ID
}

// Strategy returns a copy of the selected definition.
func (e *Engine) Strategy() (models.StrategyDefinition, bool) {
	if e.strategy == nil {
		return models.StrategyDefinition{}, false
	}
	return e.strategy.Clone(), true
}

// Select enters Selected for the given strategy, rebuilding the value map
// from the schema's defaults. Any prior edits are discarded unconditionally,
// including when re-selecting the same strategy.
func (e *Engine) Select(def models.StrategyDefinition) {
	clone := def.Clone()
	e.strategy = &clone

	values := make(map[string]string, len(clone.Parameters))
	for name, spec := range clone.Parameters {
		values[name] = spec.DefaultString()
	}
	e.values = values
}

// Deselect returns to NoSelection and empties the value map.
func (e *Engine) Deselect() {
	e.strategy = nil
	e.values = nil
}

// FieldNames returns the schema's parameter names in sorted order.
func (e *Engine) FieldNames() []string {
	if e.strategy == nil {
		return nil
	}
	names := make([]string, 0, len(e.strategy.Parameters))
	for name := range e.strategy.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec returns the declared spec for one parameter.
func (e *Engine) Spec(name string) (models.ParameterSpec, bool) {
	if e.strategy == nil {
		return models.ParameterSpec{}, false
	}
	spec, ok := e.strategy.Parameters[name]
	return spec, ok
}

// Value returns the pending value for one parameter.
func (e *Engine) Value(name string) (string, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Values returns a copy of the pending value map.
func (e *Engine) Values() map[string]string {
	out := make(map[string]string, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// SetValue records an edit to a single field, building a new value map that
// differs from the previous one in exactly that key. Edits to parameters
// the schema does not declare are rejected.
func (e *Engine) SetValue(name, raw string) error {
	if e.strategy == nil {
		return ErrNoSelection
	}
	if _, ok := e.strategy.Parameters[name]; !ok {
		return fmt.Errorf("unknown parameter %q for strategy %s", name, e.strategy.ID)
	}

	next := make(map[string]string, len(e.values))
	for k, v := range e.values {
		next[k] = v
	}
	next[name] = raw
	e.values = next
	return nil
}

// Validate checks every pending value against its declared spec. It returns
// nil when all fields pass, a *ValidationError carrying each failing field
// otherwise. Values are never clamped or coerced.
func (e *Engine) Validate() error {
	if e.strategy == nil {
		return ErrNoSelection
	}

	fields := map[string]string{}
	for name, spec := range e.strategy.Parameters {
		if msg := validateField(spec, e.values[name]); msg != "" {
			fields[name] = msg
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// BuildRequest validates the form and serializes the submission payload.
// The payload's keys are exactly the schema's parameter names.
func (e *Engine) BuildRequest() (models.ConfigurationRequest, error) {
	if err := e.Validate(); err != nil {
		return models.ConfigurationRequest{}, err
	}
	return models.ConfigurationRequest{
		StrategyID: e.strategy.ID,
		Parameters: e.Values(),
	}, nil
}

// validateField dispatches on the declared parameter type. An empty return
// means the value passed.
func validateField(spec models.ParameterSpec, raw string) string {
	switch spec.Type {
	case models.ParameterTypeNumber:
		return validateNumber(spec, raw)
	case models.ParameterTypeBoolean:
		return validateBool(raw)
	case models.ParameterTypeString:
		return validateString(spec, raw)
	default:
		return fmt.Sprintf("unsupported parameter type %q", spec.Type)
	}
}

// validateNumber requires a finite decimal inside the closed [min, max]
// interval when bounds are declared. Comparison is exact, so boundary
// values like 0.99 never fail to float artifacts.
func validateNumber(spec models.ParameterSpec, raw string) string {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return "must be a number"
	}
	if spec.Min != nil && value.LessThan(decimal.NewFromFloat(*spec.Min)) {
		return fmt.Sprintf("must be >= %s", formatBound(*spec.Min))
	}
	if spec.Max != nil && value.GreaterThan(decimal.NewFromFloat(*spec.Max)) {
		return fmt.Sprintf("must be <= %s", formatBound(*spec.Max))
	}
	return ""
}

func validateBool(raw string) string {
	if _, err := strconv.ParseBool(raw); err != nil {
		return "must be true or false"
	}
	return ""
}

func validateString(spec models.ParameterSpec, raw string) string {
	if len(spec.Options) == 0 {
		return ""
	}
	for _, opt := range spec.Options {
		if raw == opt {
			return ""
		}
	}
	return fmt.Sprintf("must be one of: %s", strings.Join(spec.Options, ", "))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
