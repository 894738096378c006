package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedecision/internal/countdown"
	"collegedecision/internal/datespec"
	"collegedecision/internal/model"
)

func mustInstant(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

func TestClassify_OneSecondBeforeRegular(t *testing.T) {
	u := model.University{Name: "Harvard University", Domain: "harvard.edu", NotificationRegular: "15-12-24"}
	target := mustInstant(t, "2024-12-15T19:00:00-05:00")

	before := Snap(u, target.Add(-time.Second))
	require.NotNil(t, before.Regular.Remaining)
	assert.Equal(t, countdown.Duration{Seconds: 1}, *before.Regular.Remaining)
	assert.False(t, before.Classification.IsPassed)
	assert.True(t, before.Classification.IsToday)
	assert.Equal(t, StatusToday, before.Classification.Status)
	assert.Nil(t, before.Early)

	after := Snap(u, target)
	assert.Nil(t, after.Regular.Remaining)
	assert.True(t, after.Regular.Passed)
	assert.False(t, after.Classification.IsPassed, "equal instant is not strictly after")

	later := Classify(u, target.Add(time.Second))
	assert.True(t, later.IsPassed)
	// Still the 15th at -05:00, so the badge stays on "today".
	assert.Equal(t, StatusToday, later.Status)

	nextDay := Classify(u, target.Add(6*time.Hour))
	assert.True(t, nextDay.IsPassed)
	assert.False(t, nextDay.IsToday)
	assert.Equal(t, StatusPassed, nextDay.Status)
}

func TestClassify_EarlyPassedRegularPending(t *testing.T) {
	u := model.University{
		Name:                "Stanford University",
		Domain:              "stanford.edu",
		ShowEarly:           true,
		NotificationEarly:   "01-12-24",
		NotificationRegular: "15-12-24",
	}
	now := mustInstant(t, "2024-12-05T12:00:00-05:00")

	c := Classify(u, now)
	assert.False(t, c.IsPassed)
	assert.False(t, c.IsToday)
	assert.Equal(t, StatusPending, c.Status)

	s := Snap(u, now)
	require.NotNil(t, s.Early)
	assert.True(t, s.Early.Passed)
	require.NotNil(t, s.Regular.Remaining)
	assert.Equal(t, 10, s.Regular.Remaining.Days)
}

func TestClassify_EarlyAfterRegular(t *testing.T) {
	// Both instants must be behind now before the record is passed.
	u := model.University{
		Domain:              "x.edu",
		ShowEarly:           true,
		NotificationEarly:   "20-12-24",
		NotificationRegular: "15-12-24",
	}
	c := Classify(u, mustInstant(t, "2024-12-17T12:00:00-05:00"))
	assert.False(t, c.IsPassed)
}

func TestClassify_HiddenEarlyIgnored(t *testing.T) {
	u := model.University{
		Domain:              "x.edu",
		ShowEarly:           false,
		NotificationEarly:   "20-12-24",
		NotificationRegular: "15-12-24",
	}
	now := mustInstant(t, "2024-12-20T08:00:00-05:00")
	c := Classify(u, now)
	assert.True(t, c.IsPassed)
	assert.False(t, c.IsToday)
	assert.Nil(t, Snap(u, now).Early)
}

func TestClassify_EarlyToday(t *testing.T) {
	u := model.University{
		Domain:              "x.edu",
		ShowEarly:           true,
		NotificationEarly:   "01-12-24",
		NotificationRegular: "15-03-25",
	}
	c := Classify(u, mustInstant(t, "2024-12-01T09:00:00-05:00"))
	assert.True(t, c.IsToday)
	assert.Equal(t, StatusToday, c.Status)
}

func TestClassify_TodayUsesDecisionZone(t *testing.T) {
	u := model.University{Domain: "x.edu", NotificationRegular: "15-12-24"}

	// 02:00 UTC on the 16th is 21:00 on the 15th at -05:00.
	c := Classify(u, time.Date(2024, 12, 16, 2, 0, 0, 0, time.UTC))
	assert.True(t, c.IsToday)
	assert.True(t, c.IsPassed)

	// 06:00 UTC on the 15th is 01:00 on the 15th at -05:00.
	c = Classify(u, time.Date(2024, 12, 15, 6, 0, 0, 0, time.UTC))
	assert.True(t, c.IsToday)
	assert.False(t, c.IsPassed)
}

func TestClassify_InvalidDates(t *testing.T) {
	now := mustInstant(t, "2025-01-01T00:00:00-05:00")

	bad := model.University{Domain: "bad.edu", NotificationRegular: "soon"}
	c := Classify(bad, now)
	assert.ErrorIs(t, c.RegularErr, datespec.ErrMalformedDate)
	assert.Equal(t, StatusInvalid, c.Status)
	assert.False(t, c.IsPassed)
	assert.False(t, c.IsToday)
	s := Snap(bad, now)
	assert.True(t, s.Regular.Invalid)
	assert.Nil(t, s.Regular.Remaining)

	badEarly := model.University{
		Domain:              "early.edu",
		ShowEarly:           true,
		NotificationEarly:   "31-02-24",
		NotificationRegular: "15-12-24",
	}
	c = Classify(badEarly, now)
	assert.ErrorIs(t, c.EarlyErr, datespec.ErrInvalidInstant)
	assert.NoError(t, c.RegularErr)
	assert.True(t, c.IsPassed)
	s = Snap(badEarly, now)
	require.NotNil(t, s.Early)
	assert.True(t, s.Early.Invalid)
}

func TestClassify_Idempotent(t *testing.T) {
	u := model.University{
		Domain:              "x.edu",
		ShowEarly:           true,
		NotificationEarly:   "01-12-24",
		NotificationRegular: "15-12-24",
		Time:                "17:00:00",
	}
	now := mustInstant(t, "2024-12-10T10:00:00-05:00")
	assert.Equal(t, Classify(u, now), Classify(u, now))
	assert.Equal(t, Snap(u, now), Snap(u, now))
}
