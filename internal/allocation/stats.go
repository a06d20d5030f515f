package allocation

import (
	"context"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

// EnclosureStats describes occupancy of a single enclosure.
type EnclosureStats struct {
	Letter      string         `json:"letter"`
	Name        string         `json:"name,omitempty"`
	Category    model.Category `json:"category"`
	TotalSeats  int64          `json:"total_seats"`
	Allocated   int64          `json:"allocated"`
	Available   int64          `json:"available"`
	Utilization float64        `json:"utilization"`
}

// VenueStats aggregates occupancy across the venue plus attendee
// totals. TotalUnallocated counts eligible, registered attendees that
// hold no seat yet.
type VenueStats struct {
	TotalEligible    int64            `json:"total_eligible"`
	TotalAllocated   int64            `json:"total_allocated"`
	TotalUnallocated int64            `json:"total_unallocated"`
	TotalSeats       int64            `json:"total_seats"`
	AvailableSeats   int64            `json:"available_seats"`
	Enclosures       []EnclosureStats `json:"enclosures"`
}

// Aggregator computes allocation statistics from the venue model and
// the allocation store. It is a pure reader and never mutates
// allocation state.
type Aggregator struct {
	venue       VenueStore
	attendees   AttendeeStore
	allocations AllocationStore
}

// NewAggregator constructs an Aggregator and panics if any dependency is nil.
func NewAggregator(venue VenueStore, attendees AttendeeStore, allocations AllocationStore) *Aggregator {
	if venue == nil || attendees == nil || allocations == nil {
		panic("nil store passed to NewAggregator")
	}
	return &Aggregator{venue: venue, attendees: attendees, allocations: allocations}
}

// ComputeStats returns per-enclosure occupancy (total seats from row
// ranges minus reserved, allocated count, available difference,
// utilization rate with 0 for an empty enclosure) and venue-wide
// totals.
func (g *Aggregator) ComputeStats(ctx context.Context) (*VenueStats, error) {
	enclosures, err := g.venue.ListEnclosures(ctx)
	if err != nil {
		return nil, err
	}
	stats := &VenueStats{Enclosures: make([]EnclosureStats, 0, len(enclosures))}
	for _, enc := range enclosures {
		allocated, err := g.allocations.CountByEnclosure(ctx, enc.Letter)
		if err != nil {
			return nil, err
		}
		total := int64(enc.TotalSeats())
		available := total - allocated
		if available < 0 {
			available = 0
		}
		es := EnclosureStats{
			Letter:     enc.Letter,
			Name:       enc.Name,
			Category:   enc.Category,
			TotalSeats: total,
			Allocated:  allocated,
			Available:  available,
		}
		if total > 0 {
			es.Utilization = float64(allocated) / float64(total)
		}
		stats.Enclosures = append(stats.Enclosures, es)
		stats.TotalSeats += total
		stats.TotalAllocated += allocated
		stats.AvailableSeats += available
	}
	eligible, err := g.attendees.CountEligibleRegistered(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalEligible = eligible
	stats.TotalUnallocated = eligible - stats.TotalAllocated
	if stats.TotalUnallocated < 0 {
		stats.TotalUnallocated = 0
	}
	return stats, nil
}
