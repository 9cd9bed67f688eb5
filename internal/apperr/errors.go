package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors
// ⭐ SSOT: 错误分类只在这里定义
type Kind int

const (
	// KindUnknown is the zero value, unclassified failure
	KindUnknown Kind = iota
	// KindSchemaViolation means a DSL field failed validation
	KindSchemaViolation
	// KindUpstreamUnavailable means a provider call failed or timed out
	KindUpstreamUnavailable
	// KindInvalidGeneratedCode means stored strategy code is missing an entry
	// point or produced the wrong return shape
	KindInvalidGeneratedCode
	// KindNotFound means a referenced record id is absent. Expected, not fatal.
	KindNotFound
)

// Stage identifies which pipeline stage failed
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageGenerate Stage = "generate"
	StageExecute  Stage = "execute"
	StagePersist  Stage = "persist"
)

// Error is a classified, stage-tagged application error
type Error struct {
	Kind  Kind
	Stage Stage
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(kind Kind, stage Stage, msg string) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg}
}

// Wrap creates a classified error wrapping a cause
func Wrap(kind Kind, stage Stage, msg string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsSchemaViolation reports whether err is a SchemaViolation error
func IsSchemaViolation(err error) bool {
	return KindOf(err) == KindSchemaViolation
}

// HTTPStatus maps an error to an HTTP status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindSchemaViolation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindInvalidGeneratedCode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
