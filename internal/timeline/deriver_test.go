package timeline

import (
	"reflect"
	"testing"

	"pensio/pkg/model"
)

func testRooms() []model.Room {
	return []model.Room{
		{ID: "r1", Name: "101", Location: "main", Capacity: 2},
		{ID: "r2", Name: "102", Location: "main", Capacity: 4},
	}
}

func TestDerive_BackToBackReservations(t *testing.T) {
	reservations := []model.Reservation{
		{
			ID: "res-a", RoomID: "r1", GuestID: "g1", GuestName: "Alice", GuestCount: 2,
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03", Status: model.StatusActive,
			DepartureMarkers: "early",
		},
		{
			ID: "res-b", RoomID: "r1", GuestID: "g2", GuestName: "Bob", GuestCount: 1,
			CheckinDate: "2025-10-03", CheckoutDate: "2025-10-05", Status: model.StatusActive,
			ArrivalMarkers: "late",
		},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-05")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if len(grid.Days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(grid.Days))
	}

	row := grid.Rows[0]
	if row.Room.ID != "r1" {
		t.Fatalf("expected room r1 first, got %s", row.Room.ID)
	}

	expectClass := []Classification{ClassCheckIn, ClassOccupied, ClassCheckOut, ClassOccupied, ClassCheckOut}
	for i, want := range expectClass {
		if row.Days[i].Classification != want {
			t.Errorf("day %s: expected %s, got %s", grid.Days[i], want, row.Days[i].Classification)
		}
	}

	// The shared day belongs to the departing guest.
	shared := row.Days[2]
	if shared.ReservationID != "res-a" {
		t.Errorf("shared day should classify as the departure, got reservation %s", shared.ReservationID)
	}
	if shared.GuestName != "Alice" {
		t.Errorf("shared day guest should be Alice, got %s", shared.GuestName)
	}
	if shared.DepartureMarkers != "early" {
		t.Errorf("expected departure markers 'early', got %q", shared.DepartureMarkers)
	}
	if shared.ArrivalMarkers != "late" {
		t.Errorf("arrival markers of the incoming stay should still be recorded, got %q", shared.ArrivalMarkers)
	}

	// The other room stays empty.
	for _, cell := range grid.Rows[1].Days {
		if cell.Classification != ClassEmpty {
			t.Errorf("room r2 day %s should be empty, got %s", cell.Date, cell.Classification)
		}
	}
}

func TestDerive_Deterministic(t *testing.T) {
	reservations := []model.Reservation{
		{ID: "res-b", RoomID: "r1", GuestID: "g2", GuestName: "Bob", CheckinDate: "2025-10-03", CheckoutDate: "2025-10-05", Status: model.StatusActive},
		{ID: "res-a", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03", Status: model.StatusActive},
		{ID: "res-c", RoomID: "r2", GuestID: "g3", GuestName: "Cara", CheckinDate: "2025-10-02", CheckoutDate: "2025-10-04", Status: model.StatusActive},
	}
	reversed := []model.Reservation{reservations[2], reservations[0], reservations[1]}

	first, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-05")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	second, err := Derive(testRooms(), reversed, "2025-10-01", "2025-10-05")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("derivation should not depend on input order")
	}
}

func TestDerive_SingleDayReservation(t *testing.T) {
	reservations := []model.Reservation{
		{
			ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice",
			CheckinDate: "2025-10-02", CheckoutDate: "2025-10-02", Status: model.StatusActive,
			ArrivalMarkers: "am", DepartureMarkers: "pm",
		},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	cell := grid.Rows[0].Days[1]
	if cell.Classification != ClassCheckOut {
		t.Errorf("same-day stay should classify as checkout, got %s", cell.Classification)
	}
	if cell.ArrivalMarkers != "am" || cell.DepartureMarkers != "pm" {
		t.Errorf("both marker sets should be recorded, got %q / %q", cell.ArrivalMarkers, cell.DepartureMarkers)
	}
}

func TestDerive_WindowClipping(t *testing.T) {
	reservations := []model.Reservation{
		// Straddles the window start: only the tail is visible.
		{ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-09-28", CheckoutDate: "2025-10-02", Status: model.StatusActive},
		// Entirely outside the window.
		{ID: "res-2", RoomID: "r2", GuestID: "g2", GuestName: "Bob", CheckinDate: "2025-11-01", CheckoutDate: "2025-11-03", Status: model.StatusActive},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	row := grid.Rows[0]
	if row.Days[0].Classification != ClassOccupied {
		t.Errorf("2025-10-01 should be occupied, got %s", row.Days[0].Classification)
	}
	if row.Days[1].Classification != ClassCheckOut {
		t.Errorf("2025-10-02 should be checkout, got %s", row.Days[1].Classification)
	}
	if row.Days[2].Classification != ClassEmpty {
		t.Errorf("2025-10-03 should be empty, got %s", row.Days[2].Classification)
	}
	for _, cell := range grid.Rows[1].Days {
		if cell.Classification != ClassEmpty {
			t.Errorf("out-of-window reservation should not paint, got %s on %s", cell.Classification, cell.Date)
		}
	}
}

func TestDerive_CancelledIgnored(t *testing.T) {
	reservations := []model.Reservation{
		{ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03", Status: model.StatusCancelled},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	for _, cell := range grid.Rows[0].Days {
		if cell.Classification != ClassEmpty {
			t.Errorf("cancelled reservation should not paint, got %s on %s", cell.Classification, cell.Date)
		}
	}
}

func TestDerive_RoomOrdering(t *testing.T) {
	rooms := []model.Room{
		{ID: "r3", Name: "201", Location: "annex"},
		{ID: "r1", Name: "102", Location: "main"},
		{ID: "r2", Name: "101", Location: "main"},
	}

	grid, err := Derive(rooms, nil, "2025-10-01", "2025-10-01")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	var got []string
	for _, row := range grid.Rows {
		got = append(got, row.Room.ID)
	}
	want := []string{"r3", "r2", "r1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rooms should sort by location then name, got %v", got)
	}
}

func TestDerive_InvalidWindow(t *testing.T) {
	if _, err := Derive(testRooms(), nil, "not-a-date", "2025-10-01"); err == nil {
		t.Error("expected error for malformed start date")
	}
	if _, err := Derive(testRooms(), nil, "2025-10-05", "2025-10-01"); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestGrid_Split(t *testing.T) {
	reservations := []model.Reservation{
		{ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-10-03", CheckoutDate: "2025-10-08", Status: model.StatusActive},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-10")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	pages := grid.Split(4)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}

	wantLens := []int{4, 4, 2}
	for i, page := range pages {
		if len(page.Days) != wantLens[i] {
			t.Errorf("page %d: expected %d days, got %d", i, wantLens[i], len(page.Days))
		}
		if page.Start != page.Days[0] || page.End != page.Days[len(page.Days)-1] {
			t.Errorf("page %d: start/end do not match day slice", i)
		}
	}

	// Pages slice the parent grid, they never re-derive cells.
	if &pages[0].Rows[0].Days[0] != &grid.Rows[0].Days[0] {
		t.Error("page cells should share backing storage with the parent grid")
	}

	// Day 2025-10-08 lives on page 2 and keeps its checkout classification.
	cell := pages[1].Rows[0].Days[3]
	if cell.Date != "2025-10-08" || cell.Classification != ClassCheckOut {
		t.Errorf("expected checkout on 2025-10-08, got %s on %s", cell.Classification, cell.Date)
	}
}

func TestGrid_Counts(t *testing.T) {
	reservations := []model.Reservation{
		{ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03", Status: model.StatusActive},
		{ID: "res-2", RoomID: "r2", GuestID: "g2", GuestName: "Bob", CheckinDate: "2025-10-02", CheckoutDate: "2025-10-04", Status: model.StatusActive},
	}

	grid, err := Derive(testRooms(), reservations, "2025-10-01", "2025-10-05")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if got := grid.CheckoutCount(); got != 2 {
		t.Errorf("expected 2 checkout cells, got %d", got)
	}
	if got := grid.OccupiedRoomCount("2025-10-02"); got != 2 {
		t.Errorf("expected 2 rooms in use on 2025-10-02, got %d", got)
	}
	if got := grid.OccupiedRoomCount("2025-10-05"); got != 0 {
		t.Errorf("expected no rooms in use on 2025-10-05, got %d", got)
	}
}
