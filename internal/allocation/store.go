// Package allocation implements the seat allocation engine for the
// convocation venue: a greedy, single-pass assignment of eligible
// attendees to free seats, enclosure by enclosure. The engine works
// against three narrow store interfaces so that the MySQL repositories
// and the in-memory stores used in tests are interchangeable.
package allocation

import (
	"context"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

// VenueStore supplies the static venue model. It is read-only during
// allocation runs.
type VenueStore interface {
	// ListEnclosures returns all active enclosures with rows attached,
	// in configured venue order.
	ListEnclosures(ctx context.Context) ([]model.Enclosure, error)
}

// AttendeeStore supplies the eligibility filter: attendees that are
// eligible, registered and not yet allocated, in a stable order
// (ascending enrollment id) so repeated runs assign identically.
// Scoped runs narrow this stream in memory via the resolver so that
// full and scoped runs use one resolution path.
type AttendeeStore interface {
	ListEligibleUnallocated(ctx context.Context) ([]model.Attendee, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID string) (*model.Attendee, error)
	CountEligibleRegistered(ctx context.Context) (int64, error)
}

// AllocationStore persists allocation records. Create must reject a
// duplicate (enclosure, row, seat) tuple with repository.ErrSeatTaken
// and a duplicate attendee with repository.ErrAttendeeAllocated; the
// uniqueness constraints behind Create are the correctness boundary
// when two runs race.
type AllocationStore interface {
	Create(ctx context.Context, a *model.SeatAllocation) error
	ListAll(ctx context.Context) ([]model.SeatAllocation, error)
	ListByEnclosure(ctx context.Context, letter string) ([]model.SeatAllocation, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByEnclosure(ctx context.Context, letter string) (int64, error)
	FindByAttendee(ctx context.Context, attendeeID uint64) (*model.SeatAllocation, error)
	CountByEnclosure(ctx context.Context, letter string) (int64, error)
}
