package allocation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
)

// In-memory implementations of the three store interfaces. They back
// deterministic engine tests and enforce exactly the same contract as
// the MySQL repositories: stable enrollment-id ordering and the two
// uniqueness constraints on Create.

// MemoryVenue serves a fixed set of enclosures.
type MemoryVenue struct {
	Enclosures []model.Enclosure
}

// ListEnclosures returns the active enclosures in configured order.
func (m *MemoryVenue) ListEnclosures(ctx context.Context) ([]model.Enclosure, error) {
	out := make([]model.Enclosure, 0, len(m.Enclosures))
	for _, e := range m.Enclosures {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Letter < out[j].Letter
	})
	return out, nil
}

// MemoryAllocations is an in-memory allocation store guarded by a
// mutex so concurrent runs in tests exercise the same conflict paths
// as the database uniqueness keys.
type MemoryAllocations struct {
	mu      sync.Mutex
	seq     uint64
	records []model.SeatAllocation
}

// Create appends a record after checking both uniqueness constraints.
func (m *MemoryAllocations) Create(ctx context.Context, a *model.SeatAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.AttendeeID == a.AttendeeID {
			return repository.ErrAttendeeAllocated
		}
		if r.Enclosure == a.Enclosure && r.Row == a.Row && r.SeatNumber == a.SeatNumber {
			return repository.ErrSeatTaken
		}
	}
	m.seq++
	a.ID = m.seq
	a.AllocatedAt = time.Now().UTC()
	m.records = append(m.records, *a)
	return nil
}

func (m *MemoryAllocations) snapshot(letter string) []model.SeatAllocation {
	out := make([]model.SeatAllocation, 0, len(m.records))
	for _, r := range m.records {
		if letter == "" || r.Enclosure == letter {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Enclosure != b.Enclosure {
			return a.Enclosure < b.Enclosure
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.SeatNumber < b.SeatNumber
	})
	return out
}

// ListAll returns every record ordered by enclosure, row and seat.
func (m *MemoryAllocations) ListAll(ctx context.Context) ([]model.SeatAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(""), nil
}

// ListByEnclosure returns the records of one enclosure.
func (m *MemoryAllocations) ListByEnclosure(ctx context.Context, letter string) ([]model.SeatAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(letter), nil
}

// DeleteAll removes every record and returns the count removed.
func (m *MemoryAllocations) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.records))
	m.records = nil
	return n, nil
}

// DeleteByEnclosure removes one enclosure's records and returns the count.
func (m *MemoryAllocations) DeleteByEnclosure(ctx context.Context, letter string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	var n int64
	for _, r := range m.records {
		if r.Enclosure == letter {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return n, nil
}

// FindByAttendee returns the record held by one attendee.
func (m *MemoryAllocations) FindByAttendee(ctx context.Context, attendeeID uint64) (*model.SeatAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.AttendeeID == attendeeID {
			rec := r
			return &rec, nil
		}
	}
	return nil, repository.ErrAllocationNotFound
}

// CountByEnclosure counts one enclosure's records.
func (m *MemoryAllocations) CountByEnclosure(ctx context.Context, letter string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.Enclosure == letter {
			n++
		}
	}
	return n, nil
}

// MemoryAttendees serves a fixed attendee set and filters eligibility
// against a MemoryAllocations instance, mirroring the NOT EXISTS
// subquery of the SQL repository.
type MemoryAttendees struct {
	Attendees   []model.Attendee
	Allocations *MemoryAllocations
}

func (m *MemoryAttendees) allocatedSet() map[uint64]struct{} {
	set := make(map[uint64]struct{})
	if m.Allocations == nil {
		return set
	}
	m.Allocations.mu.Lock()
	defer m.Allocations.mu.Unlock()
	for _, r := range m.Allocations.records {
		set[r.AttendeeID] = struct{}{}
	}
	return set
}

func sortByEnrollment(list []model.Attendee) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.Compare(list[i].EnrollmentID, list[j].EnrollmentID) < 0
	})
}

// ListEligibleUnallocated returns eligible, registered, unallocated
// attendees ordered by enrollment id.
func (m *MemoryAttendees) ListEligibleUnallocated(ctx context.Context) ([]model.Attendee, error) {
	allocated := m.allocatedSet()
	var out []model.Attendee
	for _, a := range m.Attendees {
		if !a.Eligible || !a.Registered {
			continue
		}
		if _, ok := allocated[a.ID]; ok {
			continue
		}
		out = append(out, a)
	}
	sortByEnrollment(out)
	return out, nil
}

// GetByEnrollmentID fetches one attendee by enrollment id.
func (m *MemoryAttendees) GetByEnrollmentID(ctx context.Context, enrollmentID string) (*model.Attendee, error) {
	for _, a := range m.Attendees {
		if a.EnrollmentID == enrollmentID {
			att := a
			return &att, nil
		}
	}
	return nil, repository.ErrAttendeeNotFound
}

// CountEligibleRegistered counts attendees with both flags set.
func (m *MemoryAttendees) CountEligibleRegistered(ctx context.Context) (int64, error) {
	var n int64
	for _, a := range m.Attendees {
		if a.Eligible && a.Registered {
			n++
		}
	}
	return n, nil
}
