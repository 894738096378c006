package countdown

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining_OneSecondBefore(t *testing.T) {
	target := time.Date(2024, 12, 15, 19, 0, 0, 0, time.FixedZone("", -5*3600))

	d, ok := Remaining(target, target.Add(-time.Second))
	require.True(t, ok)
	assert.Equal(t, Duration{Seconds: 1}, d)

	_, ok = Remaining(target, target)
	assert.False(t, ok, "target == now is passed")

	_, ok = Remaining(target, target.Add(time.Second))
	assert.False(t, ok)
}

func TestRemaining_Decomposition(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	target := now.Add(3*24*time.Hour + 4*time.Hour + 5*time.Minute + 6*time.Second + 900*time.Millisecond)

	d, ok := Remaining(target, now)
	require.True(t, ok)
	assert.Equal(t, Duration{Days: 3, Hours: 4, Minutes: 5, Seconds: 6}, d)
	assert.Equal(t, "3d 04h 05m 06s", d.String())
}

func TestRemaining_SubSecondIsPendingButZero(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d, ok := Remaining(now.Add(300*time.Millisecond), now)
	require.True(t, ok)
	assert.Equal(t, Duration{}, d)
}

func TestRemaining_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2000; i++ {
		delta := time.Duration(rnd.Int63n(int64(400 * 24 * time.Hour)))
		target := now.Add(delta)

		d, ok := Remaining(target, now)
		if delta == 0 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.GreaterOrEqual(t, d.Days, 0)
		assert.True(t, d.Hours >= 0 && d.Hours < 24)
		assert.True(t, d.Minutes >= 0 && d.Minutes < 60)
		assert.True(t, d.Seconds >= 0 && d.Seconds < 60)
		assert.Equal(t, int64(delta/time.Second), d.TotalSeconds())

		_, ok = Remaining(now, target)
		assert.False(t, ok, "negative delta never decomposes")
	}
}
