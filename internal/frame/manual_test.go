package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Verify implementations satisfy Scheduler and Clock
var (
	_ Scheduler = (*Manual)(nil)
	_ Scheduler = (*Loop)(nil)
	_ Clock     = (*Manual)(nil)
	_ Clock     = SystemClock{}
)

func TestManual_RequestRunsOnNextStep(t *testing.T) {
	m := NewManual(epoch)

	var got []time.Time
	m.Request(func(now time.Time) { got = append(got, now) })
	require.Equal(t, 1, m.Pending())

	ran := m.Advance(16 * time.Millisecond)

	assert.Equal(t, 1, ran)
	require.Len(t, got, 1)
	assert.Equal(t, epoch.Add(16*time.Millisecond), got[0])
	assert.Equal(t, 0, m.Pending())

	// callbacks run once
	assert.Equal(t, 0, m.Step())
}

func TestManual_HandlesAreUniqueAndNonZero(t *testing.T) {
	m := NewManual(epoch)

	h1 := m.Request(func(time.Time) {})
	h2 := m.Request(func(time.Time) {})

	assert.NotZero(t, h1)
	assert.NotEqual(t, h1, h2)
}

func TestManual_Cancel(t *testing.T) {
	m := NewManual(epoch)

	called := false
	h := m.Request(func(time.Time) { called = true })
	m.Cancel(h)

	assert.Equal(t, 0, m.Step())
	assert.False(t, called)
}

func TestManual_CancelUnknownIsNoop(t *testing.T) {
	m := NewManual(epoch)

	called := false
	m.Request(func(time.Time) { called = true })
	m.Cancel(Handle(999))
	m.Cancel(0)

	assert.Equal(t, 1, m.Step())
	assert.True(t, called)
}

func TestManual_RequestDuringFrameWaitsForNextFrame(t *testing.T) {
	m := NewManual(epoch)

	count := 0
	var tick Callback
	tick = func(time.Time) {
		count++
		m.Request(tick)
	}
	m.Request(tick)

	m.Step()
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, m.Pending())

	m.Step()
	assert.Equal(t, 2, count)
}

func TestManual_CancelFromSameFrame(t *testing.T) {
	m := NewManual(epoch)

	secondCalled := false
	var second Handle
	m.Request(func(time.Time) { m.Cancel(second) })
	second = m.Request(func(time.Time) { secondCalled = true })

	assert.Equal(t, 1, m.Step())
	assert.False(t, secondCalled)
}

func TestManual_Set(t *testing.T) {
	m := NewManual(epoch)
	later := epoch.Add(time.Hour)

	m.Set(later)

	assert.Equal(t, later, m.Now())
}
