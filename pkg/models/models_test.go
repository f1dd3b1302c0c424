package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseIntentArrived(t *testing.T) {
	tests := []struct {
		name     string
		baseline uint64
		expected uint64
		current  uint64
		want     bool
	}{
		{"below target", 100, 10, 105, false},
		{"exactly target", 100, 10, 110, true},
		{"above target", 100, 10, 150, true},
		{"balance fell below baseline", 100, 10, 50, false},
		{"expected wraps past max", 100, math.MaxUint64, 100, false},
		{"expected wraps to just below balance", 100, math.MaxUint64 - 1, 100, false},
		{"full range from zero", 0, math.MaxUint64, math.MaxUint64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := ReverseIntent{BaselineBalance: tt.baseline, ExpectedAmount: tt.expected}
			assert.Equal(t, tt.want, intent.Arrived(tt.current))
		})
	}
}

func TestReverseIntentTargetSaturates(t *testing.T) {
	assert.Equal(t, uint64(110), ReverseIntent{BaselineBalance: 100, ExpectedAmount: 10}.Target())
	assert.Equal(t, uint64(math.MaxUint64), ReverseIntent{BaselineBalance: 100, ExpectedAmount: math.MaxUint64}.Target())
}
