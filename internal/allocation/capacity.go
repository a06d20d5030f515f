package allocation

import "github.com/iliyamo/convocation-seat-allocation/internal/model"

// SeatRef identifies one seat inside an enclosure by row letter and
// seat number.
type SeatRef struct {
	Row  string // row letter
	Seat uint32 // seat number within the row
}

// Tracker enumerates the free seats of a single enclosure in
// allocation priority order: configured row order first, ascending
// seat number within a row. Seats handed out by Next are consumed for
// the remainder of the run, so two attendees can never be offered the
// same seat within one run regardless of when the store write lands.
type Tracker struct {
	letter string
	free   []SeatRef
	next   int
}

// NewTracker builds a Tracker for the enclosure, excluding reserved
// seat numbers and every seat already present in taken. Reserved
// values outside the row's range are ignored; they can never describe
// an allocatable seat.
func NewTracker(enc model.Enclosure, taken []model.SeatAllocation) *Tracker {
	occupied := make(map[SeatRef]struct{}, len(taken))
	for _, t := range taken {
		if t.Enclosure == enc.Letter {
			occupied[SeatRef{Row: t.Row, Seat: t.SeatNumber}] = struct{}{}
		}
	}
	var free []SeatRef
	for _, row := range enc.Rows {
		if row.EndSeat < row.StartSeat {
			continue
		}
		reserved := row.ReservedSet()
		for n := row.StartSeat; n <= row.EndSeat; n++ {
			if _, ok := reserved[n]; ok {
				continue
			}
			ref := SeatRef{Row: row.Letter, Seat: n}
			if _, ok := occupied[ref]; ok {
				continue
			}
			free = append(free, ref)
		}
	}
	return &Tracker{letter: enc.Letter, free: free}
}

// Letter returns the enclosure letter this tracker serves.
func (t *Tracker) Letter() string { return t.letter }

// Next hands out the next free seat and consumes it. The boolean is
// false when the enclosure is exhausted.
func (t *Tracker) Next() (SeatRef, bool) {
	if t.next >= len(t.free) {
		return SeatRef{}, false
	}
	ref := t.free[t.next]
	t.next++
	return ref, true
}

// Remaining reports how many free seats are left to hand out.
func (t *Tracker) Remaining() int {
	return len(t.free) - t.next
}
