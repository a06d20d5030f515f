package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

// AttendeeRepo provides access to attendee records and implements the
// eligibility filter: the ordered stream of attendees the allocation
// engine may seat. Eligibility queries are pure reads; ordering by
// enrollment_id keeps repeated runs over unchanged data deterministic.
type AttendeeRepo struct {
	db *sql.DB
}

// NewAttendeeRepo constructs an AttendeeRepo with the given DB handle.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo {
	return &AttendeeRepo{db: db}
}

const attendeeColumns = `id, enrollment_id, full_name, category, assigned_enclosure,
	convocation_eligible, convocation_registered, created_at, updated_at`

func scanAttendee(row interface {
	Scan(dest ...interface{}) error
}) (model.Attendee, error) {
	var a model.Attendee
	var assigned sql.NullString
	err := row.Scan(
		&a.ID, &a.EnrollmentID, &a.FullName, &a.Category, &assigned,
		&a.Eligible, &a.Registered, &a.CreatedAt, &a.UpdatedAt,
	)
	if assigned.Valid {
		a.AssignedEnclosure = assigned.String
	}
	return a, err
}

// ListEligibleUnallocated returns every attendee that is eligible,
// registered and not yet present in seat_allocations, ordered by
// enrollment id. This is the eligibility filter; scoped runs narrow
// the stream in memory so both run variants resolve targets the same
// way.
func (r *AttendeeRepo) ListEligibleUnallocated(ctx context.Context) ([]model.Attendee, error) {
	const q = `SELECT ` + attendeeColumns + `
	           FROM attendees a
	           WHERE a.convocation_eligible = 1
	             AND a.convocation_registered = 1
	             AND NOT EXISTS (SELECT 1 FROM seat_allocations sa WHERE sa.attendee_id = a.id)
	           ORDER BY a.enrollment_id`
	return r.listAttendees(ctx, q)
}

func (r *AttendeeRepo) listAttendees(ctx context.Context, q string, args ...interface{}) ([]model.Attendee, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountEligibleRegistered returns the number of attendees with both
// convocation flags set, allocated or not. Used by the statistics
// aggregator for the venue-wide summary.
func (r *AttendeeRepo) CountEligibleRegistered(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM attendees
	           WHERE convocation_eligible = 1 AND convocation_registered = 1`
	var n int64
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// GetByEnrollmentID fetches one attendee by enrollment id. Returns
// ErrAttendeeNotFound when no such attendee exists.
func (r *AttendeeRepo) GetByEnrollmentID(ctx context.Context, enrollmentID string) (*model.Attendee, error) {
	const q = `SELECT ` + attendeeColumns + ` FROM attendees a WHERE a.enrollment_id = ?`
	a, err := scanAttendee(r.db.QueryRowContext(ctx, q, enrollmentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendeeNotFound
		}
		return nil, err
	}
	return &a, nil
}

// List returns attendees, optionally filtered to eligible+registered
// only, ordered by enrollment id.
func (r *AttendeeRepo) List(ctx context.Context, eligibleOnly bool) ([]model.Attendee, error) {
	q := `SELECT ` + attendeeColumns + ` FROM attendees a`
	if eligibleOnly {
		q += ` WHERE a.convocation_eligible = 1 AND a.convocation_registered = 1`
	}
	q += ` ORDER BY a.enrollment_id`
	return r.listAttendees(ctx, q)
}

// UpsertBulk inserts attendees in a single statement, updating the
// mutable fields on duplicate enrollment id. Passing an empty slice
// has no effect and returns nil.
func (r *AttendeeRepo) UpsertBulk(ctx context.Context, attendees []model.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	query := `INSERT INTO attendees
	          (enrollment_id, full_name, category, assigned_enclosure, convocation_eligible, convocation_registered)
	          VALUES `
	args := make([]interface{}, 0, len(attendees)*6)
	for i, a := range attendees {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		var assigned interface{}
		if s := strings.TrimSpace(a.AssignedEnclosure); s != "" {
			assigned = s
		}
		args = append(args, a.EnrollmentID, a.FullName, string(a.Category), assigned, a.Eligible, a.Registered)
	}
	query += ` ON DUPLICATE KEY UPDATE
	           full_name = VALUES(full_name),
	           category = VALUES(category),
	           assigned_enclosure = VALUES(assigned_enclosure),
	           convocation_eligible = VALUES(convocation_eligible),
	           convocation_registered = VALUES(convocation_registered),
	           updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
