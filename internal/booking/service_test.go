package booking

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyroom/internal/models"
	"studyroom/internal/schedule"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeStore is an in-memory Store with the same filtering semantics as
// the sqlite layer.
type fakeStore struct {
	nextID   int64
	bookings []*models.Booking
}

func (f *fakeStore) FindByResource(_ context.Context, pool models.Pool, resource string, dates []string) ([]models.Booking, error) {
	return f.filter(func(b *models.Booking) bool {
		return b.Pool == pool && b.Resource == resource && contains(dates, b.Date)
	}), nil
}

func (f *fakeStore) FindByLeader(_ context.Context, pool models.Pool, leaderID string, dates []string) ([]models.Booking, error) {
	return f.filter(func(b *models.Booking) bool {
		return b.Pool == pool && b.LeaderID == leaderID && contains(dates, b.Date)
	}), nil
}

func (f *fakeStore) FindByLeaderName(_ context.Context, leaderName, leaderID string, dates []string) ([]models.Booking, error) {
	return f.filter(func(b *models.Booking) bool {
		return b.LeaderName == leaderName && b.LeaderID == leaderID && contains(dates, b.Date)
	}), nil
}

func (f *fakeStore) FindByIdentity(_ context.Context, ident models.Identity) ([]models.Booking, error) {
	return f.filter(func(b *models.Booking) bool {
		return b.LeaderName == ident.LeaderName && b.LeaderID == ident.LeaderID && b.LeaderPhone == ident.LeaderPhone
	}), nil
}

func (f *fakeStore) GetBooking(_ context.Context, pool models.Pool, id int64) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.Pool == pool && b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) InsertBooking(_ context.Context, b *models.Booking) error {
	f.nextID++
	b.ID = f.nextID
	copied := *b
	f.bookings = append(f.bookings, &copied)
	return nil
}

func (f *fakeStore) UpdateBookingSlot(_ context.Context, pool models.Pool, id int64, date string, duration int) error {
	for _, b := range f.bookings {
		if b.Pool == pool && b.ID == id {
			b.Date = date
			b.Duration = duration
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) DeleteBooking(_ context.Context, pool models.Pool, id int64, ident models.Identity) (bool, error) {
	for i, b := range f.bookings {
		if b.Pool == pool && b.ID == id &&
			b.LeaderName == ident.LeaderName && b.LeaderID == ident.LeaderID && b.LeaderPhone == ident.LeaderPhone {
			f.bookings = append(f.bookings[:i], f.bookings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) filter(keep func(*models.Booking) bool) []models.Booking {
	var out []models.Booking
	for _, b := range f.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	return out
}

func contains(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}

func newTestService(now time.Time) (*Service, *fakeStore, *fakeClock) {
	store := &fakeStore{}
	clock := &fakeClock{now: now}
	logger := zerolog.New(io.Discard)
	return NewService(store, clock, &logger), store, clock
}

func kstTime(date string, hour, minute int) time.Time {
	t, err := time.ParseInLocation(schedule.DateFormat, date, schedule.KST)
	if err != nil {
		panic(err)
	}
	return t.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func createReq(room, date string, hour, duration int) CreateRequest {
	return CreateRequest{
		Pool: models.PoolGroup, Resource: room, Date: date, Hour: hour, Duration: duration,
		LeaderName: "Kim", LeaderID: "a1", LeaderPhone: "010-1234-5678",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"empty name", func(r *CreateRequest) { r.LeaderName = "  " }},
		{"empty id", func(r *CreateRequest) { r.LeaderID = "" }},
		{"empty phone", func(r *CreateRequest) { r.LeaderPhone = "" }},
		{"name equals id", func(r *CreateRequest) { r.LeaderName = "A1"; r.LeaderID = "a1" }},
		{"hour too large", func(r *CreateRequest) { r.Hour = 24 }},
		{"negative hour", func(r *CreateRequest) { r.Hour = -1 }},
		{"zero duration", func(r *CreateRequest) { r.Duration = 0 }},
		{"bad date", func(r *CreateRequest) { r.Date = "June 1st" }},
		{"empty resource", func(r *CreateRequest) { r.Resource = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createReq("1", "2025-06-01", 9, 2)
			tt.mutate(&req)
			_, err := svc.Create(ctx, req)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateSuccess(t *testing.T) {
	svc, store, _ := newTestService(kstTime("2025-06-01", 8, 0))

	req := createReq("1", "2025-06-01", 9, 2)
	req.Members = []models.Member{{Name: "Lee", ID: "b2"}, {Name: "", ID: ""}}
	b, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "A1", b.LeaderID, "leader id is case-normalized")
	assert.Equal(t, "9", b.Hour)
	assert.Equal(t, 2, b.TotalPeople, "leader plus one filled member slot")
	require.Len(t, b.Members, 1)
	assert.Equal(t, "B2", b.Members[0].ID)
	assert.Len(t, store.bookings, 1)
}

func TestCreateConflictSameRoom(t *testing.T) {
	svc, _, _ := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("1", "2025-06-01", 9, 2))
	require.NoError(t, err)

	second := createReq("1", "2025-06-01", 10, 1)
	second.LeaderName = "Park"
	second.LeaderID = "C3"
	_, err = svc.Create(ctx, second)

	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "2025-06-01 09:00-11:00", cerr.Conflict.Interval())
	assert.False(t, cerr.CrossPool)
}

func TestCreateAdjacentSlotsDoNotConflict(t *testing.T) {
	svc, _, _ := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("1", "2025-06-01", 10, 2))
	require.NoError(t, err)

	second := createReq("1", "2025-06-01", 12, 1)
	second.LeaderName = "Park"
	second.LeaderID = "C3"
	_, err = svc.Create(ctx, second)
	assert.NoError(t, err)
}

func TestCreateCrossPoolMutualExclusion(t *testing.T) {
	svc, _, _ := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	// Leader X books room 1 at 09:00-11:00.
	room := createReq("1", "2025-06-01", 9, 2)
	room.LeaderID = "X"
	_, err := svc.Create(ctx, room)
	require.NoError(t, err)

	// The same X cannot take a seat at 10:00.
	seat := CreateRequest{
		Pool: models.PoolSeat, Resource: "3", Date: "2025-06-01", Hour: 10, Duration: 1,
		LeaderName: "Kim", LeaderID: "x", LeaderPhone: "010-1234-5678",
	}
	_, err = svc.Create(ctx, seat)
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.CrossPool)

	// A different person can.
	seat.LeaderName = "Park"
	seat.LeaderID = "Y"
	_, err = svc.Create(ctx, seat)
	assert.NoError(t, err)
}

func TestCreateMidnightRolloverBlocksNextDay(t *testing.T) {
	svc, _, _ := newTestService(kstTime("2025-01-01", 8, 0))
	ctx := context.Background()

	// 23:00 for 3 hours occupies (01-01,23), (01-02,0), (01-02,1).
	_, err := svc.Create(ctx, createReq("1", "2025-01-01", 23, 3))
	require.NoError(t, err)

	second := createReq("1", "2025-01-02", 1, 1)
	second.LeaderName = "Park"
	second.LeaderID = "C3"
	_, err = svc.Create(ctx, second)
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)

	third := createReq("1", "2025-01-02", 2, 1)
	third.LeaderName = "Park"
	third.LeaderID = "C3"
	_, err = svc.Create(ctx, third)
	assert.NoError(t, err)
}

func TestFindActive(t *testing.T) {
	// Booking 09:00-11:00; the window opens at 10:40 and closes at 11:00.
	svc, _, clock := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("1", "2025-06-01", 9, 2))
	require.NoError(t, err)

	clock.now = kstTime("2025-06-01", 10, 30)
	_, err = svc.FindActive(ctx, "Kim", "A1")
	var nferr *NotFoundError
	assert.ErrorAs(t, err, &nferr, "30 minutes before end is outside the window")

	clock.now = kstTime("2025-06-01", 10, 45)
	b, err := svc.FindActive(ctx, "Kim", "a1")
	require.NoError(t, err)
	assert.Equal(t, "1", b.Resource)

	clock.now = kstTime("2025-06-01", 11, 1)
	_, err = svc.FindActive(ctx, "Kim", "A1")
	assert.ErrorAs(t, err, &nferr, "window closes at end time")
}

func TestFindActiveAcrossMidnight(t *testing.T) {
	// Booking dated yesterday, 23:00 for 3 hours, ends today 02:00.
	svc, _, clock := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("1", "2025-06-01", 23, 3))
	require.NoError(t, err)

	clock.now = kstTime("2025-06-02", 1, 50)
	b, err := svc.FindActive(ctx, "Kim", "A1")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", b.Date)
}

func TestExtend(t *testing.T) {
	svc, store, clock := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("1", "2025-06-01", 9, 2))
	require.NoError(t, err)

	t.Run("outside window fails", func(t *testing.T) {
		clock.now = kstTime("2025-06-01", 10, 30)
		_, err := svc.Extend(ctx, models.PoolGroup, created.ID, 1)
		var nferr *NotFoundError
		assert.ErrorAs(t, err, &nferr)
	})

	t.Run("inside window succeeds", func(t *testing.T) {
		clock.now = kstTime("2025-06-01", 10, 45)
		b, err := svc.Extend(ctx, models.PoolGroup, created.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, b.Duration)
		assert.Equal(t, "2025-06-01", b.Date)
		assert.Equal(t, "9", b.Hour, "start hour never changes")
	})

	t.Run("blocked by following booking", func(t *testing.T) {
		next := createReq("1", "2025-06-01", 12, 1)
		next.LeaderName = "Park"
		next.LeaderID = "C3"
		_, err := svc.Create(ctx, next)
		require.NoError(t, err)

		clock.now = kstTime("2025-06-01", 11, 45)
		_, err = svc.Extend(ctx, models.PoolGroup, created.ID, 1)
		var berr *ExtensionBlockedError
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "2025-06-01 12:00-13:00", berr.Conflict.Interval())
	})

	t.Run("missing booking", func(t *testing.T) {
		clock.now = kstTime("2025-06-01", 10, 45)
		_, err := svc.Extend(ctx, models.PoolGroup, 9999, 1)
		var nferr *NotFoundError
		assert.ErrorAs(t, err, &nferr)
	})

	_ = store
}

func TestExtendRollsDateForward(t *testing.T) {
	svc, _, clock := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("1", "2025-06-01", 23, 2))
	require.NoError(t, err)

	// Ends 01:00 next day; extension starts at rolled hour 25.
	clock.now = kstTime("2025-06-02", 0, 50)
	b, err := svc.Extend(ctx, models.PoolGroup, created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", b.Date, "stored date rolls when the extension starts past midnight")
	assert.Equal(t, 4, b.Duration)
	assert.Equal(t, "23", b.Hour)
}

func TestCancelBulk(t *testing.T) {
	svc, store, _ := newTestService(kstTime("2025-06-01", 8, 0))
	ctx := context.Background()
	ident := models.Identity{LeaderName: "Kim", LeaderID: "a1", LeaderPhone: "010-1234-5678"}

	t.Run("no bookings is zero-count success", func(t *testing.T) {
		list, err := svc.ListByIdentity(ctx, ident)
		require.NoError(t, err)
		assert.Empty(t, list)

		n, err := svc.CancelBulk(ctx, ident, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	b1, err := svc.Create(ctx, createReq("1", "2025-06-01", 9, 2))
	require.NoError(t, err)
	b2, err := svc.Create(ctx, createReq("2", "2025-06-02", 10, 1))
	require.NoError(t, err)

	t.Run("lists both ordered", func(t *testing.T) {
		list, err := svc.ListByIdentity(ctx, ident)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("deletes only selected and matching", func(t *testing.T) {
		n, err := svc.CancelBulk(ctx, ident, []Selection{
			{Pool: models.PoolGroup, ID: b1.ID},
			{Pool: models.PoolGroup, ID: 9999}, // unknown id: skipped
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, store.bookings, 1)
		assert.Equal(t, b2.ID, store.bookings[0].ID)
	})

	t.Run("identity must fully match", func(t *testing.T) {
		bad := ident
		bad.LeaderPhone = "000"
		n, err := svc.CancelBulk(ctx, bad, []Selection{{Pool: models.PoolGroup, ID: b2.ID}})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestResourceLocks(t *testing.T) {
	locks := newResourceLocks()

	release := locks.Acquire("group:1", "leader:A1")
	done := make(chan struct{})
	go func() {
		r := locks.Acquire("leader:A1")
		r()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should block while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded")
	}
}
