// Package export renders the full reservation ledger as an Excel
// workbook, one sheet per pool.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"studyroom/internal/models"
)

// Store is the read capability the exporter needs.
type Store interface {
	ListAll(ctx context.Context, pool models.Pool) ([]models.Booking, error)
}

// Service writes booking exports.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

var groupHeader = []string{"ID", "Room", "Date", "Start Hour", "Duration", "Leader Name", "Leader ID", "Leader Phone", "Members", "Total People", "Created At"}
var seatHeader = []string{"ID", "Seat", "Date", "Start Hour", "Duration", "Leader Name", "Leader ID", "Leader Phone", "Total People", "Created At"}

// WriteWorkbook writes an xlsx with a "Rooms" and a "Seats" sheet.
func (s *Service) WriteWorkbook(ctx context.Context, w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := s.writeSheet(ctx, file, "Rooms", models.PoolGroup, groupHeader); err != nil {
		return err
	}
	if err := s.writeSheet(ctx, file, "Seats", models.PoolSeat, seatHeader); err != nil {
		return err
	}
	return file.Write(w)
}

func (s *Service) writeSheet(ctx context.Context, file *excelize.File, name string, pool models.Pool, header []string) error {
	if pool == models.PoolGroup {
		// Rename the default sheet instead of leaving an empty Sheet1.
		file.SetSheetName("Sheet1", name)
	} else {
		if _, err := file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	if err := writeRow(file, name, 1, toAny(header)); err != nil {
		return err
	}
	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = file.SetCellStyle(name, startCell, endCell, style)
	}

	bookings, err := s.store.ListAll(ctx, pool)
	if err != nil {
		return fmt.Errorf("list %s bookings: %w", pool, err)
	}

	for i, b := range bookings {
		row := []any{b.ID, b.Resource, b.Date, b.Hour, b.Duration, b.LeaderName, b.LeaderID, b.LeaderPhone}
		if pool == models.PoolGroup {
			row = append(row, memberList(b.Members))
		}
		row = append(row, b.TotalPeople, b.CreatedAt.Format("2006-01-02 15:04:05"))
		if err := writeRow(file, name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(file *excelize.File, sheet string, rowNum int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

func memberList(members []models.Member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID != "" && m.Name != "" {
			parts = append(parts, m.ID+" "+m.Name)
		} else {
			parts = append(parts, m.ID+m.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
