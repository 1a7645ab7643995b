package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"studyroom/internal/models"
)

const groupColumns = `id, room, date, hour, duration, leader_name, leader_id, leader_phone,
	member_1_name, member_1_id, member_2_name, member_2_id, member_3_name, member_3_id,
	member_4_name, member_4_id, member_5_name, member_5_id, total_people, created_at, updated_at`

const seatColumns = `id, seat, date, hour, duration, leader_name, leader_id, leader_phone,
	total_people, created_at, updated_at`

func tableFor(pool models.Pool) (table, resourceCol, columns string, err error) {
	switch pool {
	case models.PoolGroup:
		return "group_bookings", "room", groupColumns, nil
	case models.PoolSeat:
		return "seat_bookings", "seat", seatColumns, nil
	default:
		return "", "", "", fmt.Errorf("unknown pool %q", pool)
	}
}

// FindByResource returns bookings for one resource whose date is in dates.
func (db *DB) FindByResource(ctx context.Context, pool models.Pool, resource string, dates []string) ([]models.Booking, error) {
	table, resourceCol, columns, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(dates)+1)
	args = append(args, resource)
	for _, d := range dates {
		args = append(args, d)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND date IN (%s)
		ORDER BY date, CAST(hour AS INTEGER)`,
		columns, table, resourceCol, placeholders(len(dates)))
	return db.queryBookings(ctx, pool, query, args...)
}

// FindByLeader returns one leader's bookings in a pool whose date is in dates.
func (db *DB) FindByLeader(ctx context.Context, pool models.Pool, leaderID string, dates []string) ([]models.Booking, error) {
	table, _, columns, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(dates)+1)
	args = append(args, leaderID)
	for _, d := range dates {
		args = append(args, d)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE leader_id = ? AND date IN (%s)
		ORDER BY date, CAST(hour AS INTEGER)`,
		columns, table, placeholders(len(dates)))
	return db.queryBookings(ctx, pool, query, args...)
}

// FindByIdentity returns every booking across both pools matching the full
// (name, id, phone) triple, ordered by (date, start hour).
func (db *DB) FindByIdentity(ctx context.Context, ident models.Identity) ([]models.Booking, error) {
	var out []models.Booking
	for _, pool := range []models.Pool{models.PoolGroup, models.PoolSeat} {
		table, _, columns, err := tableFor(pool)
		if err != nil {
			return nil, err
		}
		query := fmt.Sprintf(`SELECT %s FROM %s
			WHERE leader_name = ? AND leader_id = ? AND leader_phone = ?
			ORDER BY date, CAST(hour AS INTEGER)`, columns, table)
		bookings, err := db.queryBookings(ctx, pool, query, ident.LeaderName, ident.LeaderID, ident.LeaderPhone)
		if err != nil {
			return nil, err
		}
		out = append(out, bookings...)
	}
	sortByDateHour(out)
	return out, nil
}

// FindByLeaderName returns bookings in both pools matching (name, id) and
// date in dates. Used to locate a caller's currently active booking.
func (db *DB) FindByLeaderName(ctx context.Context, leaderName, leaderID string, dates []string) ([]models.Booking, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var out []models.Booking
	for _, pool := range []models.Pool{models.PoolGroup, models.PoolSeat} {
		table, _, columns, err := tableFor(pool)
		if err != nil {
			return nil, err
		}
		args := []any{leaderName, leaderID}
		for _, d := range dates {
			args = append(args, d)
		}
		query := fmt.Sprintf(`SELECT %s FROM %s
			WHERE leader_name = ? AND leader_id = ? AND date IN (%s)
			ORDER BY date, CAST(hour AS INTEGER)`, columns, table, placeholders(len(dates)))
		bookings, err := db.queryBookings(ctx, pool, query, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, bookings...)
	}
	sortByDateHour(out)
	return out, nil
}

// GetBooking returns one booking by pool and id.
func (db *DB) GetBooking(ctx context.Context, pool models.Pool, id int64) (*models.Booking, error) {
	table, _, columns, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", columns, table)
	bookings, err := db.queryBookings(ctx, pool, query, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, sql.ErrNoRows
	}
	return &bookings[0], nil
}

// InsertBooking persists a new booking and fills in its id.
func (db *DB) InsertBooking(ctx context.Context, b *models.Booking) error {
	now := time.Now()
	var res sql.Result
	var err error
	switch b.Pool {
	case models.PoolGroup:
		members := make([]any, 0, models.MaxMembers*2)
		for i := 0; i < models.MaxMembers; i++ {
			if i < len(b.Members) {
				members = append(members, nullable(b.Members[i].Name), nullable(b.Members[i].ID))
			} else {
				members = append(members, nil, nil)
			}
		}
		args := []any{b.Resource, b.Date, b.Hour, b.Duration, b.LeaderName, b.LeaderID, b.LeaderPhone}
		args = append(args, members...)
		args = append(args, b.TotalPeople, now, now)
		res, err = db.ExecContext(ctx, `INSERT INTO group_bookings (
			room, date, hour, duration, leader_name, leader_id, leader_phone,
			member_1_name, member_1_id, member_2_name, member_2_id, member_3_name, member_3_id,
			member_4_name, member_4_id, member_5_name, member_5_id,
			total_people, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	case models.PoolSeat:
		res, err = db.ExecContext(ctx, `INSERT INTO seat_bookings (
			seat, date, hour, duration, leader_name, leader_id, leader_phone,
			total_people, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Resource, b.Date, b.Hour, b.Duration, b.LeaderName, b.LeaderID, b.LeaderPhone,
			b.TotalPeople, now, now)
	default:
		return fmt.Errorf("unknown pool %q", b.Pool)
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// UpdateBookingSlot rewrites a booking's date and duration after an
// extension. The start hour is never changed.
func (db *DB) UpdateBookingSlot(ctx context.Context, pool models.Pool, id int64, date string, duration int) error {
	table, _, _, err := tableFor(pool)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET date = ?, duration = ?, updated_at = ? WHERE id = ?", table)
	res, err := db.ExecContext(ctx, query, date, duration, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteBooking removes one booking by id, but only when the full identity
// triple matches the stored row. Reports whether a row was deleted.
func (db *DB) DeleteBooking(ctx context.Context, pool models.Pool, id int64, ident models.Identity) (bool, error) {
	table, _, _, err := tableFor(pool)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`DELETE FROM %s
		WHERE id = ? AND leader_name = ? AND leader_id = ? AND leader_phone = ?`, table)
	res, err := db.ExecContext(ctx, query, id, ident.LeaderName, ident.LeaderID, ident.LeaderPhone)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAll returns every booking in a pool, ordered by (date, start hour).
func (db *DB) ListAll(ctx context.Context, pool models.Pool) ([]models.Booking, error) {
	table, _, columns, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY date, CAST(hour AS INTEGER)", columns, table)
	return db.queryBookings(ctx, pool, query)
}

func (db *DB) queryBookings(ctx context.Context, pool models.Pool, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b *models.Booking
		if pool == models.PoolGroup {
			b, err = scanGroup(rows)
		} else {
			b, err = scanSeat(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanGroup(rows *sql.Rows) (*models.Booking, error) {
	b := models.Booking{Pool: models.PoolGroup}
	memberCols := make([]sql.NullString, models.MaxMembers*2)
	dest := []any{
		&b.ID, &b.Resource, &b.Date, &b.Hour, &b.Duration,
		&b.LeaderName, &b.LeaderID, &b.LeaderPhone,
	}
	for i := range memberCols {
		dest = append(dest, &memberCols[i])
	}
	dest = append(dest, &b.TotalPeople, &b.CreatedAt, &b.UpdatedAt)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	for i := 0; i < models.MaxMembers; i++ {
		name, id := memberCols[i*2], memberCols[i*2+1]
		if name.Valid && name.String != "" {
			b.Members = append(b.Members, models.Member{Name: name.String, ID: id.String})
		}
	}
	return &b, nil
}

func scanSeat(rows *sql.Rows) (*models.Booking, error) {
	b := models.Booking{Pool: models.PoolSeat}
	err := rows.Scan(
		&b.ID, &b.Resource, &b.Date, &b.Hour, &b.Duration,
		&b.LeaderName, &b.LeaderID, &b.LeaderPhone,
		&b.TotalPeople, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// sortByDateHour keeps (date, start hour) order after merging both pools.
func sortByDateHour(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].Date != bookings[j].Date {
			return bookings[i].Date < bookings[j].Date
		}
		hi, _ := strconv.Atoi(strings.TrimSpace(bookings[i].Hour))
		hj, _ := strconv.Atoi(strings.TrimSpace(bookings[j].Hour))
		return hi < hj
	})
}
