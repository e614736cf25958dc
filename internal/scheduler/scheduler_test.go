package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

func TestNewValidation(t *testing.T) {
	_, err := New(domain.Interval("hourly"), "08:00")
	require.Error(t, err)

	_, err = New(domain.IntervalDaily, "8am")
	require.Error(t, err)

	s, err := New(domain.IntervalDaily, "08:00")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNextRunDaily(t *testing.T) {
	s, err := New(domain.IntervalDaily, "08:00")
	require.NoError(t, err)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "before trigger time fires today",
			from: time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "after trigger time fires tomorrow",
			from: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at trigger time fires tomorrow",
			from: time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.NextRun(tt.from))
		})
	}
}

func TestNextRunWeekly(t *testing.T) {
	s, err := New(domain.IntervalWeekly, "09:30")
	require.NoError(t, err)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			// 2026-08-28 is a Friday
			name: "midweek waits for next Monday",
			from: time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
		},
		{
			// 2026-08-31 is a Monday
			name: "Monday before trigger time fires same day",
			from: time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "Monday after trigger time waits a full week",
			from: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := s.NextRun(tt.from)
			assert.Equal(t, tt.want, next)
			assert.Equal(t, time.Monday, next.Weekday())
		})
	}
}

func TestDescribe(t *testing.T) {
	daily, err := New(domain.IntervalDaily, "08:00")
	require.NoError(t, err)
	assert.Equal(t, "every day at 08:00", daily.Describe())

	weekly, err := New(domain.IntervalWeekly, "09:05")
	require.NoError(t, err)
	assert.Equal(t, "every Monday at 09:05", weekly.Describe())
}

func TestStopUnblocksStart(t *testing.T) {
	s, err := New(domain.IntervalDaily, "08:00")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.Start(func() {})
	}()

	require.Eventually(t, s.Running, time.Second, 10*time.Millisecond)

	s.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.False(t, s.Running())
}

func TestStartWhileRunningFails(t *testing.T) {
	s, err := New(domain.IntervalDaily, "08:00")
	require.NoError(t, err)

	go s.Start(func() {})
	require.Eventually(t, s.Running, time.Second, 10*time.Millisecond)
	defer s.Stop()

	err = s.Start(func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestStopWithoutStart(t *testing.T) {
	s, err := New(domain.IntervalWeekly, "08:00")
	require.NoError(t, err)

	// must not panic
	s.Stop()
	assert.False(t, s.Running())
}
