package vad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgerun-ai/edgerun/testutil"
)

func TestAnalyticsSegments(t *testing.T) {
	t.Parallel()

	a := NewAnalytics()
	assert.False(t, a.SpeechActive())

	a.SpeechStart()
	assert.True(t, a.SpeechActive())
	time.Sleep(5 * time.Millisecond)
	a.SpeechEnd()
	assert.False(t, a.SpeechActive())

	m := a.Metrics()
	assert.Equal(t, 1, m.TotalSpeechSegments)
	assert.GreaterOrEqual(t, m.TotalSpeechDuration, 5*time.Millisecond)
	assert.Equal(t, m.TotalSpeechDuration, m.AverageSpeechDuration)
	assert.False(t, m.LastEventTime.IsZero())
}

func TestAnalyticsEndWithoutStart(t *testing.T) {
	t.Parallel()

	a := NewAnalytics()
	a.SpeechEnd()
	assert.Equal(t, 0, a.Metrics().TotalSpeechSegments)
}

func TestAnalyticsReset(t *testing.T) {
	t.Parallel()

	a := NewAnalytics()
	a.SpeechStart()
	a.SpeechEnd()
	require.Equal(t, 1, a.Metrics().TotalSpeechSegments)

	a.Reset()
	m := a.Metrics()
	assert.Equal(t, 0, m.TotalSpeechSegments)
	assert.Equal(t, time.Duration(0), m.TotalSpeechDuration)
	assert.True(t, m.LastEventTime.IsZero())
}

func TestComponentTracksSpeechSegments(t *testing.T) {
	t.Parallel()

	c, _ := newTestComponent(t)
	ctx := testutil.TestContext(t)
	require.NoError(t, c.Load(ctx))
	calibrate(t, c)

	_, err := c.ProcessAudio(ctx, frame(0.1, 160))
	require.NoError(t, err)
	require.True(t, c.SpeechActive())
	assert.True(t, c.Analytics().SpeechActive())

	for i := 0; i < voiceEndFrames; i++ {
		_, err = c.ProcessAudio(ctx, frame(0.0001, 160))
		require.NoError(t, err)
	}
	require.False(t, c.SpeechActive())

	m := c.Analytics().Metrics()
	assert.Equal(t, 1, m.TotalSpeechSegments)
	assert.False(t, c.Analytics().SpeechActive())
}

func TestComponentPauseClosesSegment(t *testing.T) {
	t.Parallel()

	c, _ := newTestComponent(t)
	ctx := testutil.TestContext(t)
	require.NoError(t, c.Load(ctx))
	calibrate(t, c)

	_, err := c.ProcessAudio(ctx, frame(0.1, 160))
	require.NoError(t, err)
	require.True(t, c.SpeechActive())

	c.Pause()
	assert.Equal(t, 1, c.Analytics().Metrics().TotalSpeechSegments)
}
