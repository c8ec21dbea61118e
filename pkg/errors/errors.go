// Package errors provides the error handling and warning system used across
// ctgml. Errors carry stack traces via cockroachdb/errors and marshal into
// structured zerolog events; warnings flow through a process-wide handler so
// callers can decide whether non-fatal conditions (undefined metrics, failed
// grid candidates) are logged, collected, or ignored.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("ctgml-warning: %v\n", w)
	}
	// zerolog sink, installed lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. When set it
// takes precedence over the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a non-fatal warning through the installed handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an iterative optimizer stops at its
// iteration cap without meeting its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning is raised when an evaluation metric is not defined
// for the given inputs, e.g. AUC over a single-class label vector. Result
// holds the value returned under that condition.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// CandidateFailedWarning is raised when one hyperparameter candidate fails
// to train during a grid search. The search records the failure and moves
// on to the next candidate.
type CandidateFailedWarning struct {
	Search    string
	Candidate string
	Err       error
}

func (w *CandidateFailedWarning) Error() string {
	return fmt.Sprintf("%s: candidate %s failed and was skipped: %v", w.Search, w.Candidate, w.Err)
}

func (w *CandidateFailedWarning) Unwrap() error {
	return w.Err
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *CandidateFailedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("search", w.Search).
		Str("candidate", w.Candidate).
		AnErr("cause", w.Err).
		Str("type", "CandidateFailedWarning")
}

// NewCandidateFailedWarning creates a new CandidateFailedWarning.
func NewCandidateFailedWarning(search, candidate string, err error) *CandidateFailedWarning {
	return &CandidateFailedWarning{Search: search, Candidate: candidate, Err: err}
}

// NotFittedError is returned when Predict or Transform is called on a model
// that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("ctgml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input dimensions do not match expectations.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("ctgml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError is returned when a parameter fails validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ctgml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid for an operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("ctgml: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DataError is returned when input data cannot be parsed or is missing a
// required column. Row is 1-based and 0 when not applicable.
type DataError struct {
	Op     string
	Column string
	Row    int
	Reason string
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("ctgml: %s: column %q, row %d: %s", e.Op, e.Column, e.Row, e.Reason)
	}
	if e.Column != "" {
		return fmt.Sprintf("ctgml: %s: column %q: %s", e.Op, e.Column, e.Reason)
	}
	return fmt.Sprintf("ctgml: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Int("row", e.Row).
		Str("reason", e.Reason).
		Str("type", "DataError")
}

// NewDataError creates a DataError with a stack trace attached.
func NewDataError(op, column string, row int, reason string) error {
	err := &DataError{Op: op, Column: column, Row: row, Reason: reason}
	return errors.WithStack(err)
}

// ModelError is a general error raised by an estimator.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ctgml: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ctgml: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace attached.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives no rows.
	ErrEmptyData = New("empty data")

	// ErrAllCandidatesFailed is returned when every candidate in a grid
	// search failed to train.
	ErrAllCandidatesFailed = New("all candidates failed")
)
