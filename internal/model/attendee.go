package model

import "time"

// Attendee represents a person registered for the convocation as
// stored in the `attendees` table.  The eligibility and registration
// flags together decide whether the allocation engine will ever seat
// this attendee: both must be true.  AssignedEnclosure carries an
// optional operator hint naming the enclosure letter the attendee
// should be placed in; when empty, the attendee's category is mapped
// to an enclosure instead.
//
// Fields:
//  ID                – primary key identifier.
//  EnrollmentID      – unique enrollment number (stable ordering key
//                      for allocation runs).
//  FullName          – attendee's display name.
//  Category          – attendee category (STUDENTS, FACULTY, ...).
//  AssignedEnclosure – optional enclosure letter hint ("" when unset).
//  Eligible          – convocation_eligible flag.
//  Registered        – convocation_registered flag.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type Attendee struct {
    ID                uint64    // attendees.id
    EnrollmentID      string    // attendees.enrollment_id (unique)
    FullName          string    // attendees.full_name
    Category          Category  // attendees.category
    AssignedEnclosure string    // attendees.assigned_enclosure (empty when unset)
    Eligible          bool      // attendees.convocation_eligible
    Registered        bool      // attendees.convocation_registered
    CreatedAt         time.Time // attendees.created_at
    UpdatedAt         time.Time // attendees.updated_at
}
