// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// allocation engine and HTTP handlers to distinguish between failure
// scenarios. The two duplicate errors are deliberately separate: the
// engine treats a duplicate seat as "taken by another run, try the next
// seat" while a duplicate attendee means the attendee is already placed
// and must be skipped.
package repository

import "errors"

// ErrSeatTaken is returned by AllocationRepo.Create when the
// (enclosure, row, seat) tuple already exists. The engine reacts by
// pulling the next free seat and retrying once.
var ErrSeatTaken = errors.New("seat already allocated")

// ErrAttendeeAllocated is returned by AllocationRepo.Create when the
// attendee already holds an allocation. The engine records this as a
// per-attendee failure and continues the run.
var ErrAttendeeAllocated = errors.New("attendee already has a seat")

// ErrAllocationNotFound is returned by point lookups when no
// allocation exists for the requested attendee. Handlers translate
// this into a 404 response rather than an error.
var ErrAllocationNotFound = errors.New("allocation not found")

// ErrEnclosureNotFound is returned when an enclosure letter does not
// name a configured enclosure.
var ErrEnclosureNotFound = errors.New("enclosure not found")

// ErrAttendeeNotFound is returned when an enrollment id does not name
// a known attendee.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrInvalidRow is returned at venue seeding time when a row
// definition is inconsistent, e.g. a reserved seat number outside the
// row's [start, end] range or an inverted range.
var ErrInvalidRow = errors.New("invalid row definition")
