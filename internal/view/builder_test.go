package view

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyroom/internal/models"
	"studyroom/internal/schedule"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type stubStore struct {
	bookings []models.Booking
}

func (s *stubStore) FindByResource(_ context.Context, pool models.Pool, resource string, dates []string) ([]models.Booking, error) {
	inDates := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		inDates[d] = struct{}{}
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.Pool != pool || b.Resource != resource {
			continue
		}
		if _, ok := inDates[b.Date]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestBuilder(store Store, today string) *Builder {
	now, err := time.ParseInLocation(schedule.DateFormat, today, schedule.KST)
	if err != nil {
		panic(err)
	}
	logger := zerolog.New(io.Discard)
	return NewBuilder(store, fixedClock{now: now}, &logger)
}

func room(id int64, date, hour string, duration int, leaderName, leaderID string) models.Booking {
	return models.Booking{
		ID: id, Pool: models.PoolGroup, Resource: "1",
		Date: date, Hour: hour, Duration: duration,
		LeaderName: leaderName, LeaderID: leaderID,
	}
}

func TestResourceGrid(t *testing.T) {
	store := &stubStore{bookings: []models.Booking{
		room(1, "2025-06-01", "9", 2, "Kim", "A1"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grid, err := builder.Resource(context.Background(), models.PoolGroup, "1", 7)
	require.NoError(t, err)

	assert.Len(t, grid.Days, 7)
	assert.Equal(t, "2025-06-01", grid.Days[0])
	assert.Len(t, grid.Hours, 24)

	assert.True(t, grid.Occupied("2025-06-01", 9))
	assert.True(t, grid.Occupied("2025-06-01", 10))
	assert.False(t, grid.Occupied("2025-06-01", 11))
	assert.Equal(t, "A1 Kim", grid.Owner("2025-06-01", 9))
}

func TestGridLabelOmitsDuplicateName(t *testing.T) {
	store := &stubStore{bookings: []models.Booking{
		room(1, "2025-06-01", "9", 1, "A1", "A1"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grid, err := builder.Resource(context.Background(), models.PoolGroup, "1", 7)
	require.NoError(t, err)
	assert.Equal(t, "A1", grid.Owner("2025-06-01", 9))
}

func TestGridMidnightRollover(t *testing.T) {
	// A booking dated the day before the window starts still marks the
	// window's first day when it rolls past midnight.
	store := &stubStore{bookings: []models.Booking{
		room(1, "2025-05-31", "23", 3, "Kim", "A1"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grid, err := builder.Resource(context.Background(), models.PoolGroup, "1", 7)
	require.NoError(t, err)

	assert.True(t, grid.Occupied("2025-06-01", 0))
	assert.True(t, grid.Occupied("2025-06-01", 1))
	assert.False(t, grid.Occupied("2025-06-01", 2))
	// The 23:00 cell is outside the displayed window.
	assert.False(t, grid.Occupied("2025-05-31", 23))
}

func TestGridSkipsMalformedRows(t *testing.T) {
	store := &stubStore{bookings: []models.Booking{
		room(1, "2025-06-01", "not-a-number", 2, "Kim", "A1"),
		room(2, "2025-06-01", "14", 1, "Lee", "B2"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grid, err := builder.Resource(context.Background(), models.PoolGroup, "1", 7)
	require.NoError(t, err, "one corrupt row must not fail the whole view")
	assert.True(t, grid.Occupied("2025-06-01", 14))
	assert.Len(t, grid.Owners, 1)
}

func TestGridFirstWriterWinsLabels(t *testing.T) {
	// Two rows claiming the same cell should not happen, but the label
	// policy is first-writer-wins.
	store := &stubStore{bookings: []models.Booking{
		room(1, "2025-06-01", "9", 2, "Kim", "A1"),
		room(2, "2025-06-01", "10", 2, "Lee", "B2"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grid, err := builder.Resource(context.Background(), models.PoolGroup, "1", 7)
	require.NoError(t, err)
	assert.Equal(t, "A1 Kim", grid.Owner("2025-06-01", 10))
	assert.Equal(t, "B2 Lee", grid.Owner("2025-06-01", 11))
}

func TestAllResources(t *testing.T) {
	seat := func(id int64, seatNo, hour string) models.Booking {
		return models.Booking{
			ID: id, Pool: models.PoolSeat, Resource: seatNo,
			Date: "2025-06-01", Hour: hour, Duration: 1,
			LeaderName: "Kim", LeaderID: "A1",
		}
	}
	store := &stubStore{bookings: []models.Booking{
		seat(1, "1", "9"),
		seat(2, "3", "14"),
	}}
	builder := newTestBuilder(store, "2025-06-01")

	grids, err := builder.AllResources(context.Background(), models.PoolSeat,
		[]string{"1", "2", "3"}, 3)
	require.NoError(t, err)
	require.Len(t, grids, 3)

	assert.True(t, grids[0].Occupied("2025-06-01", 9))
	assert.Len(t, grids[1].Owners, 0)
	assert.True(t, grids[2].Occupied("2025-06-01", 14))
	assert.Len(t, grids[0].Days, 3)
}
