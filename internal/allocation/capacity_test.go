package allocation

import (
	"testing"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

func TestTrackerHandsOutSeatsInRowOrder(t *testing.T) {
	enc := model.Enclosure{
		Letter: "A",
		Rows: []model.Row{
			{Letter: "A", StartSeat: 1, EndSeat: 3},
			{Letter: "B", StartSeat: 1, EndSeat: 2},
		},
	}
	tr := NewTracker(enc, nil)

	want := []SeatRef{
		{Row: "A", Seat: 1}, {Row: "A", Seat: 2}, {Row: "A", Seat: 3},
		{Row: "B", Seat: 1}, {Row: "B", Seat: 2},
	}
	if got := tr.Remaining(); got != len(want) {
		t.Fatalf("Remaining() = %d, want %d", got, len(want))
	}
	for i, w := range want {
		seat, ok := tr.Next()
		if !ok {
			t.Fatalf("Next() exhausted at %d, want %v", i, w)
		}
		if seat != w {
			t.Fatalf("Next() #%d = %v, want %v", i, seat, w)
		}
	}
	if _, ok := tr.Next(); ok {
		t.Fatal("Next() returned a seat after exhaustion")
	}
	if got := tr.Remaining(); got != 0 {
		t.Fatalf("Remaining() after exhaustion = %d, want 0", got)
	}
}

func TestTrackerSkipsReservedAndOccupied(t *testing.T) {
	enc := model.Enclosure{
		Letter: "B",
		Rows: []model.Row{
			{Letter: "A", StartSeat: 1, EndSeat: 8, Reserved: []uint32{5, 6}},
		},
	}
	taken := []model.SeatAllocation{
		{Enclosure: "B", Row: "A", SeatNumber: 1},
		{Enclosure: "C", Row: "A", SeatNumber: 2}, // other enclosure, must not count
	}
	tr := NewTracker(enc, taken)

	var got []uint32
	for {
		seat, ok := tr.Next()
		if !ok {
			break
		}
		got = append(got, seat.Seat)
	}
	want := []uint32{2, 3, 4, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("free seats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("free seats = %v, want %v", got, want)
		}
	}
}

func TestTrackerIgnoresInvertedRowRange(t *testing.T) {
	enc := model.Enclosure{
		Letter: "C",
		Rows: []model.Row{
			{Letter: "A", StartSeat: 10, EndSeat: 5},
			{Letter: "B", StartSeat: 1, EndSeat: 1},
		},
	}
	tr := NewTracker(enc, nil)
	if got := tr.Remaining(); got != 1 {
		t.Fatalf("Remaining() = %d, want 1", got)
	}
	seat, ok := tr.Next()
	if !ok || seat.Row != "B" || seat.Seat != 1 {
		t.Fatalf("Next() = %v/%v, want B1", seat, ok)
	}
}

func TestTrackerReservedOutsideRangeIgnored(t *testing.T) {
	enc := model.Enclosure{
		Letter: "D",
		Rows: []model.Row{
			{Letter: "A", StartSeat: 1, EndSeat: 3, Reserved: []uint32{99}},
		},
	}
	tr := NewTracker(enc, nil)
	if got := tr.Remaining(); got != 3 {
		t.Fatalf("Remaining() = %d, want 3", got)
	}
}
