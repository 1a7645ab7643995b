// Package database is the sqlite storage layer behind the booking
// service: two structurally identical pools (group rooms, personal
// seats) plus the capability set the lifecycle manager is built on.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the booking service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Group room reservations
		`CREATE TABLE IF NOT EXISTS group_bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room TEXT NOT NULL,
			date TEXT NOT NULL,
			hour TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 1,
			leader_name TEXT NOT NULL,
			leader_id TEXT NOT NULL,
			leader_phone TEXT NOT NULL,
			member_1_name TEXT, member_1_id TEXT,
			member_2_name TEXT, member_2_id TEXT,
			member_3_name TEXT, member_3_id TEXT,
			member_4_name TEXT, member_4_id TEXT,
			member_5_name TEXT, member_5_id TEXT,
			total_people INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Personal seat reservations (seats 1..7)
		`CREATE TABLE IF NOT EXISTS seat_bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seat TEXT NOT NULL,
			date TEXT NOT NULL,
			hour TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 1,
			leader_name TEXT NOT NULL,
			leader_id TEXT NOT NULL,
			leader_phone TEXT NOT NULL,
			total_people INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// The two query shapes used throughout: by-resource and by-user.
		`CREATE INDEX IF NOT EXISTS idx_group_room_date ON group_bookings(room, date)`,
		`CREATE INDEX IF NOT EXISTS idx_group_leader_date ON group_bookings(leader_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_seat_seat_date ON seat_bookings(seat, date)`,
		`CREATE INDEX IF NOT EXISTS idx_seat_leader_date ON seat_bookings(leader_id, date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
