package model

import "time"

// Category classifies which group of attendees an enclosure serves.
// Attendees are only placed into enclosures whose category matches
// their own (MIXED enclosures accept any category).
type Category string

// Enumeration of enclosure categories.  These values are stored
// verbatim in the `enclosures.category` column.
const (
    CategoryStudents Category = "STUDENTS"
    CategoryFaculty  Category = "FACULTY"
    CategoryStaff    Category = "STAFF"
    CategoryGuests   Category = "GUESTS"
    CategoryVIP      Category = "VIP"
    CategoryMixed    Category = "MIXED"
)

// ParseCategory normalizes a raw string into a Category.  The second
// return value reports whether the input named a known category.
func ParseCategory(raw string) (Category, bool) {
    switch Category(raw) {
    case CategoryStudents, CategoryFaculty, CategoryStaff,
        CategoryGuests, CategoryVIP, CategoryMixed:
        return Category(raw), true
    }
    return "", false
}

// Direction records which side attendees enter an enclosure from.
// It is venue metadata only and does not influence allocation order.
type Direction string

// Enumeration of entry directions stored in `enclosures.entry_direction`.
const (
    DirectionNorth Direction = "NORTH"
    DirectionSouth Direction = "SOUTH"
    DirectionEast  Direction = "EAST"
    DirectionWest  Direction = "WEST"
)

// Enclosure represents a top-level seating block of the convocation
// venue.  Each enclosure is identified by a single letter, serves one
// attendee category and contains an ordered list of rows.  Enclosures
// are seeded once as venue configuration and are read-only during
// allocation runs.
//
// Fields:
//  Letter         – unique letter identifying the enclosure (e.g. "A").
//  Name           – optional display name of the block.
//  Category       – attendee category this enclosure serves.
//  EntryDirection – side from which attendees enter.
//  DisplayOrder   – position of the enclosure in venue order.
//  IsActive       – whether the enclosure participates in allocation.
//  Rows           – ordered rows of the enclosure (allocation priority).
//  CreatedAt      – timestamp when the enclosure was seeded.
//  UpdatedAt      – timestamp of last update.
type Enclosure struct {
    Letter         string    // enclosures.letter (primary key)
    Name           string    // enclosures.name
    Category       Category  // enclosures.category
    EntryDirection Direction // enclosures.entry_direction
    DisplayOrder   uint32    // enclosures.display_order
    IsActive       bool      // enclosures.is_active
    Rows           []Row     // enclosure_rows, ordered by display_order
    CreatedAt      time.Time // enclosures.created_at
    UpdatedAt      time.Time // enclosures.updated_at
}

// Row is a linear run of seats inside an enclosure.  Seat numbers form
// the contiguous range [StartSeat, EndSeat]; numbers listed in Reserved
// are permanently excluded from allocation (VIP blocks and similar).
//
// Fields:
//  ID           – primary key identifier.
//  Enclosure    – letter of the owning enclosure.
//  Letter       – row letter, unique within its enclosure.
//  StartSeat    – first seat number of the range (inclusive).
//  EndSeat      – last seat number of the range (inclusive).
//  Reserved     – seat numbers excluded from allocation; every value
//                 must lie within [StartSeat, EndSeat].
//  DisplayOrder – position of the row inside the enclosure.
type Row struct {
    ID           uint64   // enclosure_rows.id
    Enclosure    string   // enclosure_rows.enclosure_letter
    Letter       string   // enclosure_rows.row_letter
    StartSeat    uint32   // enclosure_rows.start_seat
    EndSeat      uint32   // enclosure_rows.end_seat
    Reserved     []uint32 // enclosure_rows.reserved (comma separated in DB)
    DisplayOrder uint32   // enclosure_rows.display_order
}

// SeatCount returns the number of allocatable seats in the row: the
// size of the range minus reserved seats that fall inside it.
func (r Row) SeatCount() int {
    if r.EndSeat < r.StartSeat {
        return 0
    }
    total := int(r.EndSeat-r.StartSeat) + 1
    for _, n := range r.Reserved {
        if n >= r.StartSeat && n <= r.EndSeat {
            total--
        }
    }
    if total < 0 {
        return 0
    }
    return total
}

// ReservedSet returns the reserved seat numbers as a set for O(1)
// membership checks during capacity enumeration.
func (r Row) ReservedSet() map[uint32]struct{} {
    set := make(map[uint32]struct{}, len(r.Reserved))
    for _, n := range r.Reserved {
        set[n] = struct{}{}
    }
    return set
}

// TotalSeats sums the allocatable seats across all rows of the enclosure.
func (e Enclosure) TotalSeats() int {
    total := 0
    for _, row := range e.Rows {
        total += row.SeatCount()
    }
    return total
}
