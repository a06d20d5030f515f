package allocation

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
)

// Failure reasons recorded per attendee. Capacity exhaustion and an
// unresolvable target never abort a run; they are reported in the run
// summary and the engine moves on to the next attendee.
const (
	ReasonNoSeat           = "no available seat"
	ReasonNoEnclosure      = "no matching enclosure"
	ReasonSeatConflict     = "seat conflict"
	ReasonAlreadyAllocated = "attendee already has a seat"
)

// ErrVenueNotConfigured is returned when an allocation run starts
// against a venue with no active enclosures. Missing venue data is an
// infrastructure failure, not a per-attendee condition.
var ErrVenueNotConfigured = errors.New("venue not configured")

// RunError records one attendee the run could not seat and why.
type RunError struct {
	EnrollmentID string `json:"enrollment_id"`
	Reason       string `json:"reason"`
}

// RunResult summarizes an allocation run.
type RunResult struct {
	Allocated int        `json:"allocated"`
	Failed    int        `json:"failed"`
	Errors    []RunError `json:"errors"`
}

// AttendeeAllocation is the point-lookup result for one attendee.
type AttendeeAllocation struct {
	EnrollmentID string `json:"enrollment_id"`
	FullName     string `json:"full_name"`
	Enclosure    string `json:"enclosure"`
	Row          string `json:"row"`
	SeatNumber   uint32 `json:"seat_number"`
	AllocatedAt  string `json:"allocated_at"`
}

// Engine orchestrates allocation runs. It pulls eligible attendees in
// stable order, resolves each attendee's target enclosure, draws the
// next free seat from that enclosure's tracker and writes one
// allocation record per attendee. Runs are greedy and single pass:
// once a seat is assigned it is never reassigned within the run.
type Engine struct {
	venue       VenueStore
	attendees   AttendeeStore
	allocations AllocationStore
}

// NewEngine constructs an Engine and panics if any dependency is nil.
func NewEngine(venue VenueStore, attendees AttendeeStore, allocations AllocationStore) *Engine {
	if venue == nil || attendees == nil || allocations == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{venue: venue, attendees: attendees, allocations: allocations}
}

// resolver maps an attendee to a target enclosure letter. The mapping
// is built once per run from the venue model: an explicit enclosure
// hint wins, otherwise the attendee's category is looked up, with
// MIXED enclosures as the fallback for categories that have no
// enclosure of their own.
type resolver struct {
	letters    map[string]struct{}
	byCategory map[model.Category]string
	mixed      string
}

func newResolver(enclosures []model.Enclosure) *resolver {
	r := &resolver{
		letters:    make(map[string]struct{}, len(enclosures)),
		byCategory: make(map[model.Category]string, len(enclosures)),
	}
	// Enclosures arrive in venue order; keep the first match per
	// category so resolution is deterministic.
	ordered := make([]model.Enclosure, len(enclosures))
	copy(ordered, enclosures)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].Letter < ordered[j].Letter
	})
	for _, e := range ordered {
		r.letters[e.Letter] = struct{}{}
		if e.Category == model.CategoryMixed {
			if r.mixed == "" {
				r.mixed = e.Letter
			}
			continue
		}
		if _, ok := r.byCategory[e.Category]; !ok {
			r.byCategory[e.Category] = e.Letter
		}
	}
	return r
}

// target resolves the enclosure letter for an attendee. The boolean is
// false when neither the hint nor the category maps to a configured
// enclosure.
func (r *resolver) target(a model.Attendee) (string, bool) {
	if a.AssignedEnclosure != "" {
		if _, ok := r.letters[a.AssignedEnclosure]; ok {
			return a.AssignedEnclosure, true
		}
		return "", false
	}
	if letter, ok := r.byCategory[a.Category]; ok {
		return letter, true
	}
	if r.mixed != "" {
		return r.mixed, true
	}
	return "", false
}

// AllocateSeats runs the eligibility filter across the entire venue
// and seats every attendee it can. Venue capacity and existing
// allocations are loaded once up front; decisions happen in memory and
// each assignment is a single store write. An exhausted enclosure or
// an unresolvable target records a failure and the run continues; only
// storage errors abort the run, leaving already-written allocations in
// place.
func (e *Engine) AllocateSeats(ctx context.Context) (*RunResult, error) {
	enclosures, err := e.venue.ListEnclosures(ctx)
	if err != nil {
		return nil, err
	}
	if len(enclosures) == 0 {
		return nil, ErrVenueNotConfigured
	}
	existing, err := e.allocations.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	trackers := make(map[string]*Tracker, len(enclosures))
	for _, enc := range enclosures {
		trackers[enc.Letter] = NewTracker(enc, existing)
	}
	attendees, err := e.attendees.ListEligibleUnallocated(ctx)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, attendees, trackers, newResolver(enclosures))
}

// AllocateSeatsForEnclosure is the scoped variant of AllocateSeats:
// only attendees whose target resolves to the given enclosure are
// considered and seats are drawn from that enclosure alone. Resolution
// uses the same venue-wide lookup table as a full run, so an attendee
// a full run would seat in this enclosure (including via the MIXED
// fallback) is seated by the scoped run too.
func (e *Engine) AllocateSeatsForEnclosure(ctx context.Context, letter string) (*RunResult, error) {
	enclosures, err := e.venue.ListEnclosures(ctx)
	if err != nil {
		return nil, err
	}
	var scoped *model.Enclosure
	for i := range enclosures {
		if enclosures[i].Letter == letter {
			scoped = &enclosures[i]
			break
		}
	}
	if scoped == nil {
		return nil, repository.ErrEnclosureNotFound
	}
	existing, err := e.allocations.ListByEnclosure(ctx, letter)
	if err != nil {
		return nil, err
	}
	trackers := map[string]*Tracker{letter: NewTracker(*scoped, existing)}
	res := newResolver(enclosures)
	all, err := e.attendees.ListEligibleUnallocated(ctx)
	if err != nil {
		return nil, err
	}
	var attendees []model.Attendee
	for _, a := range all {
		if target, ok := res.target(a); ok && target == letter {
			attendees = append(attendees, a)
		}
	}
	return e.run(ctx, attendees, trackers, res)
}

// run is the shared greedy loop. Trackers consume seats monotonically;
// a store-level seat conflict (another run grabbed the seat first)
// causes one retry with the next free seat before the attendee is
// recorded as failed.
func (e *Engine) run(ctx context.Context, attendees []model.Attendee, trackers map[string]*Tracker, res *resolver) (*RunResult, error) {
	result := &RunResult{Errors: []RunError{}}
	for _, a := range attendees {
		letter, ok := res.target(a)
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, RunError{EnrollmentID: a.EnrollmentID, Reason: ReasonNoEnclosure})
			continue
		}
		tracker, ok := trackers[letter]
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, RunError{EnrollmentID: a.EnrollmentID, Reason: ReasonNoEnclosure})
			continue
		}
		if err := e.seatAttendee(ctx, a, letter, tracker, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// seatAttendee assigns one attendee. It returns a non-nil error only
// for infrastructure failures; every allocation-level condition is
// recorded on the result instead.
func (e *Engine) seatAttendee(ctx context.Context, a model.Attendee, letter string, tracker *Tracker, result *RunResult) error {
	conflicts := 0
	for {
		seat, ok := tracker.Next()
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, RunError{EnrollmentID: a.EnrollmentID, Reason: ReasonNoSeat})
			return nil
		}
		rec := &model.SeatAllocation{
			Enclosure:  letter,
			Row:        seat.Row,
			SeatNumber: seat.Seat,
			AttendeeID: a.ID,
		}
		err := e.allocations.Create(ctx, rec)
		if err == nil {
			result.Allocated++
			return nil
		}
		if errors.Is(err, repository.ErrAttendeeAllocated) {
			// A concurrent run already seated this attendee; a second
			// seat would violate the attendee uniqueness invariant.
			result.Failed++
			result.Errors = append(result.Errors, RunError{EnrollmentID: a.EnrollmentID, Reason: ReasonAlreadyAllocated})
			return nil
		}
		if errors.Is(err, repository.ErrSeatTaken) {
			conflicts++
			if conflicts > 1 {
				result.Failed++
				result.Errors = append(result.Errors, RunError{EnrollmentID: a.EnrollmentID, Reason: ReasonSeatConflict})
				return nil
			}
			continue // seat grabbed by a concurrent run, try the next one
		}
		return err
	}
}

// ClearAllAllocations deletes every allocation record and returns the
// count removed. The deletion is atomic: either all records go or none.
func (e *Engine) ClearAllAllocations(ctx context.Context) (int64, error) {
	return e.allocations.DeleteAll(ctx)
}

// ClearEnclosureAllocations deletes the allocations of one enclosure
// and returns the count removed.
func (e *Engine) ClearEnclosureAllocations(ctx context.Context, letter string) (int64, error) {
	return e.allocations.DeleteByEnclosure(ctx, letter)
}

// GetAttendeeAllocation returns the seat held by the attendee with the
// given enrollment id. It returns repository.ErrAttendeeNotFound when
// the enrollment id is unknown and repository.ErrAllocationNotFound
// when the attendee holds no seat.
func (e *Engine) GetAttendeeAllocation(ctx context.Context, enrollmentID string) (*AttendeeAllocation, error) {
	attendee, err := e.attendees.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	alloc, err := e.allocations.FindByAttendee(ctx, attendee.ID)
	if err != nil {
		return nil, err
	}
	return &AttendeeAllocation{
		EnrollmentID: attendee.EnrollmentID,
		FullName:     attendee.FullName,
		Enclosure:    alloc.Enclosure,
		Row:          alloc.Row,
		SeatNumber:   alloc.SeatNumber,
		AllocatedAt:  alloc.AllocatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetAllocationStats computes occupancy statistics for the venue.
func (e *Engine) GetAllocationStats(ctx context.Context) (*VenueStats, error) {
	agg := NewAggregator(e.venue, e.attendees, e.allocations)
	return agg.ComputeStats(ctx)
}
