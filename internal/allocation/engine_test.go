package allocation

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
)

func testVenue() *MemoryVenue {
	return &MemoryVenue{Enclosures: []model.Enclosure{
		{
			Letter: "A", Category: model.CategoryStudents, DisplayOrder: 1, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 3}},
		},
		{
			Letter: "B", Category: model.CategoryFaculty, DisplayOrder: 2, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 2}},
		},
	}}
}

func student(id uint64, enrollment string) model.Attendee {
	return model.Attendee{
		ID: id, EnrollmentID: enrollment, FullName: "Attendee " + enrollment,
		Category: model.CategoryStudents, Eligible: true, Registered: true,
	}
}

func newTestEngine(venue *MemoryVenue, attendees []model.Attendee) (*Engine, *MemoryAllocations, *MemoryAttendees) {
	allocs := &MemoryAllocations{}
	atts := &MemoryAttendees{Attendees: attendees, Allocations: allocs}
	return NewEngine(venue, atts, allocs), allocs, atts
}

func TestAllocateSeatsFillsSeatsInOrder(t *testing.T) {
	eng, allocs, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
	})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 2 allocated, 0 failed", res)
	}

	records, _ := allocs.ListByEnclosure(context.Background(), "A")
	if len(records) != 2 {
		t.Fatalf("enclosure A records = %d, want 2", len(records))
	}
	// EN001 sorts before EN002, so it gets seat 1.
	if records[0].SeatNumber != 1 || records[0].AttendeeID != 1 {
		t.Fatalf("first record = %+v, want seat 1 for attendee 1", records[0])
	}
	if records[1].SeatNumber != 2 || records[1].AttendeeID != 2 {
		t.Fatalf("second record = %+v, want seat 2 for attendee 2", records[1])
	}
}

func TestAllocateSeatsReportsCapacityExhaustion(t *testing.T) {
	eng, _, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
		student(3, "EN003"),
		student(4, "EN004"), // enclosure A only has 3 seats
	})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 3 || res.Failed != 1 {
		t.Fatalf("result = %+v, want 3 allocated, 1 failed", res)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", res.Errors)
	}
	// Stable ordering means the last enrollment id loses.
	if res.Errors[0].EnrollmentID != "EN004" || res.Errors[0].Reason != ReasonNoSeat {
		t.Fatalf("error = %+v, want EN004 / %q", res.Errors[0], ReasonNoSeat)
	}
}

func TestAllocateSeatsNeverUsesReservedSeats(t *testing.T) {
	venue := &MemoryVenue{Enclosures: []model.Enclosure{{
		Letter: "A", Category: model.CategoryStudents, DisplayOrder: 1, IsActive: true,
		Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 8, Reserved: []uint32{5, 6}}},
	}}}
	var attendees []model.Attendee
	for i := uint64(1); i <= 8; i++ {
		attendees = append(attendees, student(i, "EN00"+string(rune('0'+i))))
	}
	eng, allocs, _ := newTestEngine(venue, attendees)

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 6 || res.Failed != 2 {
		t.Fatalf("result = %+v, want 6 allocated, 2 failed", res)
	}
	records, _ := allocs.ListAll(context.Background())
	for _, r := range records {
		if r.SeatNumber == 5 || r.SeatNumber == 6 {
			t.Fatalf("reserved seat %d was allocated", r.SeatNumber)
		}
	}
}

func TestAllocateSeatsSkipsIneligibleAttendees(t *testing.T) {
	ineligible := student(2, "EN002")
	ineligible.Eligible = false
	unregistered := student(3, "EN003")
	unregistered.Registered = false

	eng, allocs, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"), ineligible, unregistered,
	})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want only the eligible attendee seated", res)
	}
	records, _ := allocs.ListAll(context.Background())
	if len(records) != 1 || records[0].AttendeeID != 1 {
		t.Fatalf("records = %+v, want single record for attendee 1", records)
	}
}

func TestAllocateSeatsUnknownEnclosureHintFails(t *testing.T) {
	hinted := student(1, "EN001")
	hinted.AssignedEnclosure = "Z"

	eng, _, _ := newTestEngine(testVenue(), []model.Attendee{hinted})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 0 || res.Failed != 1 {
		t.Fatalf("result = %+v, want 0 allocated, 1 failed", res)
	}
	if res.Errors[0].Reason != ReasonNoEnclosure {
		t.Fatalf("reason = %q, want %q", res.Errors[0].Reason, ReasonNoEnclosure)
	}
}

func TestAllocateSeatsMixedEnclosureFallback(t *testing.T) {
	venue := &MemoryVenue{Enclosures: []model.Enclosure{
		{
			Letter: "A", Category: model.CategoryStudents, DisplayOrder: 1, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 2}},
		},
		{
			Letter: "M", Category: model.CategoryMixed, DisplayOrder: 2, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 2}},
		},
	}}
	guest := model.Attendee{
		ID: 1, EnrollmentID: "GU001", Category: model.CategoryGuests,
		Eligible: true, Registered: true,
	}
	eng, allocs, _ := newTestEngine(venue, []model.Attendee{guest})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 1 {
		t.Fatalf("result = %+v, want guest seated via MIXED enclosure", res)
	}
	records, _ := allocs.ListByEnclosure(context.Background(), "M")
	if len(records) != 1 {
		t.Fatalf("MIXED enclosure records = %d, want 1", len(records))
	}
}

func TestAllocateSeatsIsIdempotent(t *testing.T) {
	eng, allocs, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
	})

	first, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Allocated != 2 {
		t.Fatalf("first run = %+v, want 2 allocated", first)
	}
	before, _ := allocs.ListAll(context.Background())

	second, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Allocated != 0 || second.Failed != 0 {
		t.Fatalf("second run = %+v, want no work", second)
	}
	after, _ := allocs.ListAll(context.Background())
	if len(before) != len(after) {
		t.Fatalf("records changed across runs: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestAllocateSeatsResumesAfterPartialRun(t *testing.T) {
	attendees := []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
		student(3, "EN003"),
	}

	// Baseline: one uninterrupted run over a fresh store.
	engFull, allocsFull, _ := newTestEngine(testVenue(), attendees)
	if _, err := engFull.AllocateSeats(context.Background()); err != nil {
		t.Fatalf("baseline run: %v", err)
	}
	baseline, _ := allocsFull.ListAll(context.Background())

	// Interrupted run: only the first attendee's record landed before
	// the abort. The follow-up run must fill in exactly the rest.
	allocs := &MemoryAllocations{}
	if err := allocs.Create(context.Background(), &model.SeatAllocation{
		Enclosure: "A", Row: "A", SeatNumber: 1, AttendeeID: 1,
	}); err != nil {
		t.Fatalf("seed partial record: %v", err)
	}
	atts := &MemoryAttendees{Attendees: attendees, Allocations: allocs}
	eng := NewEngine(testVenue(), atts, allocs)

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}
	if res.Allocated != 2 || res.Failed != 0 {
		t.Fatalf("resume result = %+v, want 2 allocated, 0 failed", res)
	}

	got, _ := allocs.ListAll(context.Background())
	if len(got) != len(baseline) {
		t.Fatalf("resumed records = %d, baseline = %d", len(got), len(baseline))
	}
	for i := range baseline {
		b, g := baseline[i], got[i]
		if b.Enclosure != g.Enclosure || b.Row != g.Row ||
			b.SeatNumber != g.SeatNumber || b.AttendeeID != g.AttendeeID {
			t.Fatalf("record %d diverged: baseline %+v, resumed %+v", i, b, g)
		}
	}
}

func TestAllocateSeatsVenueNotConfigured(t *testing.T) {
	eng, _, _ := newTestEngine(&MemoryVenue{}, []model.Attendee{student(1, "EN001")})

	if _, err := eng.AllocateSeats(context.Background()); !errors.Is(err, ErrVenueNotConfigured) {
		t.Fatalf("err = %v, want ErrVenueNotConfigured", err)
	}
}

func TestAllocateSeatsForEnclosureIsScoped(t *testing.T) {
	faculty := model.Attendee{
		ID: 3, EnrollmentID: "FA001", Category: model.CategoryFaculty,
		Eligible: true, Registered: true,
	}
	eng, allocs, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
		faculty,
	})

	res, err := eng.AllocateSeatsForEnclosure(context.Background(), "B")
	if err != nil {
		t.Fatalf("AllocateSeatsForEnclosure: %v", err)
	}
	if res.Allocated != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want only the faculty attendee seated", res)
	}
	if n, _ := allocs.CountByEnclosure(context.Background(), "A"); n != 0 {
		t.Fatalf("enclosure A gained %d records from a scoped B run", n)
	}
	if n, _ := allocs.CountByEnclosure(context.Background(), "B"); n != 1 {
		t.Fatalf("enclosure B records = %d, want 1", n)
	}
}

func TestAllocateSeatsForEnclosureUsesMixedFallback(t *testing.T) {
	venue := &MemoryVenue{Enclosures: []model.Enclosure{
		{
			Letter: "A", Category: model.CategoryStudents, DisplayOrder: 1, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 2}},
		},
		{
			Letter: "M", Category: model.CategoryMixed, DisplayOrder: 2, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 2}},
		},
	}}
	guest := model.Attendee{
		ID: 1, EnrollmentID: "GU001", Category: model.CategoryGuests,
		Eligible: true, Registered: true,
	}
	eng, allocs, _ := newTestEngine(venue, []model.Attendee{guest, student(2, "EN001")})

	// GUESTS has no enclosure of its own, so the guest resolves to the
	// MIXED enclosure; a scoped run on it must seat the guest exactly
	// like a full run would.
	res, err := eng.AllocateSeatsForEnclosure(context.Background(), "M")
	if err != nil {
		t.Fatalf("AllocateSeatsForEnclosure: %v", err)
	}
	if res.Allocated != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v, want the guest seated in M", res)
	}
	records, _ := allocs.ListByEnclosure(context.Background(), "M")
	if len(records) != 1 || records[0].AttendeeID != 1 {
		t.Fatalf("M records = %+v, want single record for the guest", records)
	}
	// The student resolves to A and must be untouched by the scoped run.
	if n, _ := allocs.CountByEnclosure(context.Background(), "A"); n != 0 {
		t.Fatalf("enclosure A gained %d records from a scoped M run", n)
	}
}

func TestAllocateSeatsForEnclosureUnknownLetter(t *testing.T) {
	eng, _, _ := newTestEngine(testVenue(), nil)

	if _, err := eng.AllocateSeatsForEnclosure(context.Background(), "Z"); !errors.Is(err, repository.ErrEnclosureNotFound) {
		t.Fatalf("err = %v, want ErrEnclosureNotFound", err)
	}
}

// conflictStore wraps MemoryAllocations and rejects the first N Create
// calls with ErrSeatTaken, simulating a concurrent run grabbing seats.
type conflictStore struct {
	*MemoryAllocations
	rejections int
}

func (s *conflictStore) Create(ctx context.Context, a *model.SeatAllocation) error {
	if s.rejections > 0 {
		s.rejections--
		return repository.ErrSeatTaken
	}
	return s.MemoryAllocations.Create(ctx, a)
}

func TestSeatConflictRetriesOnceThenFails(t *testing.T) {
	attendees := []model.Attendee{student(1, "EN001"), student(2, "EN002")}

	// One rejection: the engine retries with the next seat and succeeds.
	allocs := &MemoryAllocations{}
	store := &conflictStore{MemoryAllocations: allocs, rejections: 1}
	atts := &MemoryAttendees{Attendees: attendees[:1], Allocations: allocs}
	eng := NewEngine(testVenue(), atts, store)

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 1 || res.Failed != 0 {
		t.Fatalf("result after one conflict = %+v, want recovery", res)
	}

	// Two consecutive rejections for the same attendee: recorded as failed.
	allocs = &MemoryAllocations{}
	store = &conflictStore{MemoryAllocations: allocs, rejections: 2}
	atts = &MemoryAttendees{Attendees: attendees[:1], Allocations: allocs}
	eng = NewEngine(testVenue(), atts, store)

	res, err = eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 0 || res.Failed != 1 {
		t.Fatalf("result after two conflicts = %+v, want failure", res)
	}
	if res.Errors[0].Reason != ReasonSeatConflict {
		t.Fatalf("reason = %q, want %q", res.Errors[0].Reason, ReasonSeatConflict)
	}
}

// duplicateStore rejects every Create with ErrAttendeeAllocated.
type duplicateStore struct {
	*MemoryAllocations
}

func (s *duplicateStore) Create(ctx context.Context, a *model.SeatAllocation) error {
	return repository.ErrAttendeeAllocated
}

func TestDuplicateAttendeeIsNotRetried(t *testing.T) {
	allocs := &MemoryAllocations{}
	atts := &MemoryAttendees{Attendees: []model.Attendee{student(1, "EN001")}, Allocations: allocs}
	eng := NewEngine(testVenue(), atts, &duplicateStore{MemoryAllocations: allocs})

	res, err := eng.AllocateSeats(context.Background())
	if err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}
	if res.Allocated != 0 || res.Failed != 1 {
		t.Fatalf("result = %+v, want single failure", res)
	}
	if res.Errors[0].Reason != ReasonAlreadyAllocated {
		t.Fatalf("reason = %q, want %q", res.Errors[0].Reason, ReasonAlreadyAllocated)
	}
}

func TestClearAllocations(t *testing.T) {
	eng, allocs, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
	})
	if _, err := eng.AllocateSeats(context.Background()); err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}

	deleted, err := eng.ClearEnclosureAllocations(context.Background(), "B")
	if err != nil {
		t.Fatalf("ClearEnclosureAllocations: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted from empty enclosure B = %d, want 0", deleted)
	}

	deleted, err = eng.ClearAllAllocations(context.Background())
	if err != nil {
		t.Fatalf("ClearAllAllocations: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	records, _ := allocs.ListAll(context.Background())
	if len(records) != 0 {
		t.Fatalf("records after clear = %d, want 0", len(records))
	}

	stats, err := eng.GetAllocationStats(context.Background())
	if err != nil {
		t.Fatalf("GetAllocationStats: %v", err)
	}
	if stats.TotalAllocated != 0 {
		t.Fatalf("TotalAllocated after clear = %d, want 0", stats.TotalAllocated)
	}
}

func TestGetAttendeeAllocation(t *testing.T) {
	eng, _, _ := newTestEngine(testVenue(), []model.Attendee{
		student(1, "EN001"),
		student(2, "EN002"),
	})
	if _, err := eng.AllocateSeats(context.Background()); err != nil {
		t.Fatalf("AllocateSeats: %v", err)
	}

	got, err := eng.GetAttendeeAllocation(context.Background(), "EN001")
	if err != nil {
		t.Fatalf("GetAttendeeAllocation: %v", err)
	}
	if got.Enclosure != "A" || got.Row != "A" || got.SeatNumber != 1 {
		t.Fatalf("allocation = %+v, want A/A/1", got)
	}
	if got.AllocatedAt == "" {
		t.Fatal("AllocatedAt is empty")
	}

	if _, err := eng.GetAttendeeAllocation(context.Background(), "NOPE"); !errors.Is(err, repository.ErrAttendeeNotFound) {
		t.Fatalf("unknown enrollment err = %v, want ErrAttendeeNotFound", err)
	}
}

func TestGetAttendeeAllocationWithoutSeat(t *testing.T) {
	eng, _, _ := newTestEngine(testVenue(), []model.Attendee{student(1, "EN001")})

	if _, err := eng.GetAttendeeAllocation(context.Background(), "EN001"); !errors.Is(err, repository.ErrAllocationNotFound) {
		t.Fatalf("err = %v, want ErrAllocationNotFound", err)
	}
}
