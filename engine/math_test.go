package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeTimedScale(t *testing.T) {
	assert.InDelta(t, 2.0, RangeTimedScale(-1, 2, 6), 1e-9)
	assert.InDelta(t, 4.0, RangeTimedScale(0, 2, 6), 1e-9)
	assert.InDelta(t, 6.0, RangeTimedScale(1, 2, 6), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(0.5, 1, 1.6))
	assert.Equal(t, 1.6, Clamp(3, 1, 1.6))
	assert.Equal(t, 1.25, Clamp(1.25, 1, 1.6))
}
