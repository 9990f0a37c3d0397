package frame

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerPacesFrames(t *testing.T) {
	ticker := NewTicker(100)
	assert.Equal(t, 10*time.Millisecond, ticker.Interval())

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 6; i++ {
		require.NoError(t, ticker.Next(ctx))
	}
	// 第一帧立即放行，之后每帧约 10ms
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestTickerDefaultsFPS(t *testing.T) {
	assert.Equal(t, float64(DefaultFPS), NewTicker(0).FPS())
}

func TestTickerStopsOnCancel(t *testing.T) {
	ticker := NewTicker(1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ticker.Next(ctx))

	cancel()
	assert.ErrorIs(t, ticker.Next(ctx), context.Canceled)
}

func TestImmediate(t *testing.T) {
	host := Immediate()
	require.NoError(t, host.Next(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, host.Next(ctx))
}
