package timeline

import (
	"pensio/pkg/model"
)

// Classification describes what a room day cell holds.
type Classification string

const (
	ClassEmpty    Classification = "empty"
	ClassCheckIn  Classification = "checkin"
	ClassOccupied Classification = "occupied"
	ClassCheckOut Classification = "checkout"
)

// rank orders classifications for cell merging. A departure on a cell
// always outranks an arrival, which outranks a plain stay.
func rank(c Classification) int {
	switch c {
	case ClassCheckOut:
		return 3
	case ClassCheckIn:
		return 2
	case ClassOccupied:
		return 1
	default:
		return 0
	}
}

// DayState is one cell of the occupancy grid: one room on one calendar day.
type DayState struct {
	RoomID           string         `json:"room_id"`
	Date             string         `json:"date"`
	Classification   Classification `json:"classification"`
	ReservationID    string         `json:"reservation_id,omitempty"`
	Number           string         `json:"reservation_number,omitempty"`
	GuestName        string         `json:"guest_name,omitempty"`
	GuestCount       int            `json:"guest_count,omitempty"`
	ArrivalMarkers   string         `json:"arrival_markers,omitempty"`
	DepartureMarkers string         `json:"departure_markers,omitempty"`
}

// RoomRow is the full run of day cells for a single room.
type RoomRow struct {
	Room model.Room `json:"room"`
	Days []DayState `json:"days"`
}

// Grid is the derived occupancy view for a date window. Rows are ordered
// by room location then name, days ascending. A Grid is a pure value:
// once derived it is never mutated, only sliced.
type Grid struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	Days  []string  `json:"days"`
	Rows  []RoomRow `json:"rows"`
}

// Split slices the grid into consecutive pages of at most pageDays days
// each. The cells are shared with the parent grid, nothing is re-derived.
func (g *Grid) Split(pageDays int) []*Grid {
	if pageDays <= 0 || len(g.Days) == 0 {
		return []*Grid{g}
	}

	var pages []*Grid
	for lo := 0; lo < len(g.Days); lo += pageDays {
		hi := lo + pageDays
		if hi > len(g.Days) {
			hi = len(g.Days)
		}

		page := &Grid{
			Start: g.Days[lo],
			End:   g.Days[hi-1],
			Days:  g.Days[lo:hi],
			Rows:  make([]RoomRow, len(g.Rows)),
		}
		for i, row := range g.Rows {
			page.Rows[i] = RoomRow{
				Room: row.Room,
				Days: row.Days[lo:hi],
			}
		}
		pages = append(pages, page)
	}

	return pages
}

// CheckoutCount returns the number of departure cells in the grid.
func (g *Grid) CheckoutCount() int {
	count := 0
	for _, row := range g.Rows {
		for _, day := range row.Days {
			if day.Classification == ClassCheckOut {
				count++
			}
		}
	}
	return count
}

// OccupiedRoomCount returns how many rooms are not empty on the given day.
func (g *Grid) OccupiedRoomCount(date string) int {
	idx := -1
	for i, d := range g.Days {
		if d == date {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0
	}

	count := 0
	for _, row := range g.Rows {
		if row.Days[idx].Classification != ClassEmpty {
			count++
		}
	}
	return count
}
