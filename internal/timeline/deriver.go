// Package timeline derives a day-indexed occupancy grid from a set of
// reservations. Derivation is pure: the same rooms, reservations and
// window always produce the same grid, and nothing here touches storage.
package timeline

import (
	"sort"
	"time"

	apperrors "pensio/pkg/errors"
	"pensio/pkg/model"
)

// Derive builds the occupancy grid for the window [start, end], both
// inclusive, given in calendar date form ("2006-01-02"). Cancelled
// reservations and reservations for rooms outside the given set are
// ignored. When two reservations touch the same cell (a departure and
// an arrival on the same day) the departure classifies the cell; the
// arrival's markers are still recorded on it.
func Derive(rooms []model.Room, reservations []model.Reservation, start, end string) (*Grid, error) {
	startDay, err := time.Parse(model.DateLayout, start)
	if err != nil {
		return nil, apperrors.InvalidInput("start date must be formatted as YYYY-MM-DD")
	}
	endDay, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return nil, apperrors.InvalidInput("end date must be formatted as YYYY-MM-DD")
	}
	if endDay.Before(startDay) {
		return nil, apperrors.InvalidInput("end date must not precede start date")
	}

	days := make([]string, 0, endDay.Sub(startDay)/(24*time.Hour)+1)
	dayIndex := make(map[string]int)
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		dayIndex[key] = len(days)
		days = append(days, key)
	}

	sortedRooms := make([]model.Room, len(rooms))
	copy(sortedRooms, rooms)
	sort.Slice(sortedRooms, func(i, j int) bool {
		a, b := sortedRooms[i], sortedRooms[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	grid := &Grid{
		Start: start,
		End:   end,
		Days:  days,
		Rows:  make([]RoomRow, len(sortedRooms)),
	}
	rowIndex := make(map[string]int, len(sortedRooms))
	for i, room := range sortedRooms {
		cells := make([]DayState, len(days))
		for j, day := range days {
			cells[j] = DayState{
				RoomID:         room.ID,
				Date:           day,
				Classification: ClassEmpty,
			}
		}
		grid.Rows[i] = RoomRow{Room: room, Days: cells}
		rowIndex[room.ID] = i
	}

	// Fixed application order keeps cell merging deterministic.
	sorted := make([]model.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CheckinDate != sorted[j].CheckinDate {
			return sorted[i].CheckinDate < sorted[j].CheckinDate
		}
		return sorted[i].ID < sorted[j].ID
	})

	for i := range sorted {
		res := &sorted[i]
		if res.Status == model.StatusCancelled {
			continue
		}
		row, ok := rowIndex[res.RoomID]
		if !ok {
			continue
		}

		checkin, err := time.Parse(model.DateLayout, res.CheckinDate)
		if err != nil {
			continue
		}
		checkout, err := time.Parse(model.DateLayout, res.CheckoutDate)
		if err != nil || checkout.Before(checkin) {
			continue
		}

		for d := checkin; !d.After(checkout); d = d.AddDate(0, 0, 1) {
			idx, inWindow := dayIndex[d.Format(model.DateLayout)]
			if !inWindow {
				continue
			}
			cell := &grid.Rows[row].Days[idx]

			if d.Equal(checkin) {
				paint(cell, ClassCheckIn, res)
			}
			if d.Equal(checkout) {
				paint(cell, ClassCheckOut, res)
			}
			if d.After(checkin) && d.Before(checkout) {
				paint(cell, ClassOccupied, res)
			}
		}
	}

	return grid, nil
}

// paint merges one reservation event into a cell. Markers are recorded
// for the event itself; the cell's classification and guest fields only
// change when the event outranks what is already there.
func paint(cell *DayState, class Classification, res *model.Reservation) {
	switch class {
	case ClassCheckIn:
		if cell.ArrivalMarkers == "" {
			cell.ArrivalMarkers = res.ArrivalMarkers
		}
	case ClassCheckOut:
		if cell.DepartureMarkers == "" {
			cell.DepartureMarkers = res.DepartureMarkers
		}
	}

	if rank(class) > rank(cell.Classification) {
		cell.Classification = class
		cell.ReservationID = res.ID
		cell.Number = res.Number
		cell.GuestName = res.GuestName
		cell.GuestCount = res.GuestCount
	}
}
