package model

import "time"

// SeatAllocation records that one attendee occupies one seat.  Rows in
// `seat_allocations` are created only by the allocation engine and
// removed only by explicit clear operations.  Two unique keys protect
// the table: (enclosure_letter, row_letter, seat_number) so no seat is
// double-booked, and attendee_id so no attendee holds two seats.  The
// keys are the correctness boundary when runs race each other.
//
// Fields:
//  ID          – primary key identifier.
//  Enclosure   – letter of the enclosure containing the seat.
//  Row         – row letter within the enclosure.
//  SeatNumber  – seat number within the row's range.
//  AttendeeID  – attendee occupying the seat (unique).
//  AllocatedAt – timestamp when the engine wrote the record.
type SeatAllocation struct {
    ID          uint64    // seat_allocations.id
    Enclosure   string    // seat_allocations.enclosure_letter
    Row         string    // seat_allocations.row_letter
    SeatNumber  uint32    // seat_allocations.seat_number
    AttendeeID  uint64    // seat_allocations.attendee_id (unique)
    AllocatedAt time.Time // seat_allocations.allocated_at
}
