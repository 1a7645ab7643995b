package schedule

// Cell is an atomic (date, hour) unit of occupancy.
type Cell struct {
	Date string
	Hour int
}

// Expand converts (date, startHour, duration) into its ordered cell
// sequence. Hours past 23 roll into the next civil date. duration 0
// yields an empty sequence.
func Expand(date string, startHour, duration int) []Cell {
	if duration <= 0 {
		return nil
	}
	cells := make([]Cell, 0, duration)
	next := NextDate(date)
	for i := 0; i < duration; i++ {
		h := startHour + i
		if h < 24 {
			cells = append(cells, Cell{Date: date, Hour: h})
		} else {
			cells = append(cells, Cell{Date: next, Hour: h - 24})
		}
	}
	return cells
}

// CellSet is a set of cells keyed for intersection tests.
type CellSet map[Cell]struct{}

// NewCellSet builds a set from cells.
func NewCellSet(cells []Cell) CellSet {
	set := make(CellSet, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	return set
}

// Intersects reports whether any of cells is in the set.
func (s CellSet) Intersects(cells []Cell) bool {
	for _, c := range cells {
		if _, ok := s[c]; ok {
			return true
		}
	}
	return false
}
