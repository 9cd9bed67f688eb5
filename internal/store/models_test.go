package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	idRe := regexp.MustCompile(`^stg_[0-9a-f]{16}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID("stg")
		assert.Regexp(t, idRe, id)
		assert.False(t, seen[id], "ids must not repeat")
		seen[id] = true
	}

	assert.Regexp(t, `^run_[0-9a-f]{16}$`, NewID("run"))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-5, 1},
		{1, 1},
		{20, 20},
		{100, 100},
		{101, 100},
		{10000, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in))
	}
}
