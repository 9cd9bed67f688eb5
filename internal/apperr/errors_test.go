package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"schema violation", New(KindSchemaViolation, StageGenerate, "bad field"), http.StatusBadRequest},
		{"not found", New(KindNotFound, StagePersist, "no such row"), http.StatusNotFound},
		{"upstream", New(KindUpstreamUnavailable, StageFetch, "timeout"), http.StatusBadGateway},
		{"invalid code", New(KindInvalidGeneratedCode, StageExecute, "no entry point"), http.StatusUnprocessableEntity},
		{"unknown kind", New(KindUnknown, StagePersist, "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"nil-ish wrapped", fmt.Errorf("outer: %w", New(KindNotFound, StagePersist, "gone")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindOfUnwrapsChain(t *testing.T) {
	cause := errors.New("socket closed")
	err := Wrap(KindUpstreamUnavailable, StageFetch, "spot fetch", cause)

	wrapped := fmt.Errorf("run failed: %w", err)

	assert.Equal(t, KindUpstreamUnavailable, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	e := New(KindSchemaViolation, StageGenerate, "unknown tech trigger")
	assert.Equal(t, "generate: unknown tech trigger", e.Error())

	we := Wrap(KindUnknown, StagePersist, "insert failed", errors.New("conn reset"))
	assert.Equal(t, "persist: insert failed: conn reset", we.Error())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(New(KindNotFound, StagePersist, "x")))
	assert.False(t, IsNotFound(New(KindSchemaViolation, StageGenerate, "x")))
	assert.True(t, IsSchemaViolation(New(KindSchemaViolation, StageGenerate, "x")))
	assert.False(t, IsSchemaViolation(errors.New("x")))
}
