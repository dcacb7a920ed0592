package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewMemStore(), time.UTC)
}

func TestCheckInCheckOutLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	in := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	out := time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)

	opened, err := svc.CheckIn(ctx, "emp-1", in)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, opened.Status)
	assert.Equal(t, "2025-03-10", opened.DayKey)
	assert.Nil(t, opened.CheckOutAt)

	closed, err := svc.CheckOut(ctx, "emp-1", out)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.CheckOutAt)
	require.NotNil(t, closed.TotalHours)
	assert.Equal(t, 8.5, *closed.TotalHours)
}

func TestDoubleCheckIn(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.CheckIn(ctx, "emp-1", now)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, "emp-1", now.Add(time.Minute))
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	sessions, err := svc.List(ctx, "emp-1", "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc := newTestService()
	_, err := svc.CheckOut(context.Background(), "emp-1", time.Now())
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestDoubleCheckOut(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.CheckIn(ctx, "emp-1", now)
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, "emp-1", now.Add(8*time.Hour))
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, "emp-1", now.Add(9*time.Hour))
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckOutNeverBecomesCheckIn(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.CheckOut(ctx, "emp-1", time.Now())
	require.ErrorIs(t, err, ErrNoActiveSession)

	// The rejected check-out must not have created anything.
	sessions, err := svc.List(ctx, "emp-1", "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDayKeyUsesReferenceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	svc := NewService(NewMemStore(), loc)

	// 20:00 UTC on the 10th is already the 11th in Kolkata.
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	opened, err := svc.CheckIn(context.Background(), "emp-1", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", opened.DayKey)
}

func TestNewDayAllowsNewSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

	_, err := svc.CheckIn(ctx, "emp-1", day1)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, "emp-1", day2)
	require.NoError(t, err)
}

func TestConcurrentCheckInsOpenExactlyOneSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(ctx, "emp-1", now)
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrAlreadyCheckedIn):
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, rejected)

	sessions, err := svc.List(ctx, "emp-1", "2025-03-10", 0, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, StatusOpen, sessions[0].Status)
}

func TestHoursRounding(t *testing.T) {
	in := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		out  time.Time
		want float64
	}{
		{"full day", in.Add(8*time.Hour + 30*time.Minute), 8.5},
		{"quarter hour", in.Add(7*time.Hour + 45*time.Minute), 7.75},
		{"short stint", in.Add(5 * time.Minute), 0.08},
		{"zero", in, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Hours(in, tc.out))
		})
	}
}
