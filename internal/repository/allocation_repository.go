package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

// AllocationRepo is the allocation store: persistence for one-seat-per-
// attendee records written by the engine. The table carries two unique
// keys, uq_seat on (enclosure_letter, row_letter, seat_number) and
// uq_attendee on attendee_id. Create maps violations of those keys to
// ErrSeatTaken and ErrAttendeeAllocated so the engine can treat them
// as per-attendee conditions instead of fatal errors.
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo constructs an AllocationRepo with the given DB handle.
func NewAllocationRepo(db *sql.DB) *AllocationRepo {
	return &AllocationRepo{db: db}
}

// Create inserts a single allocation. On success the record's ID and
// AllocatedAt are populated. MySQL duplicate-key errors (1062) are
// translated by key name: uq_seat -> ErrSeatTaken, uq_attendee ->
// ErrAttendeeAllocated. Any other error is an infrastructure failure.
func (r *AllocationRepo) Create(ctx context.Context, a *model.SeatAllocation) error {
	const q = `INSERT INTO seat_allocations (enclosure_letter, row_letter, seat_number, attendee_id)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, a.Enclosure, a.Row, a.SeatNumber, a.AttendeeID)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "uq_attendee") {
				return ErrAttendeeAllocated
			}
			return ErrSeatTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	const sel = `SELECT allocated_at FROM seat_allocations WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, sel, a.ID).Scan(&a.AllocatedAt); err != nil {
		return err
	}
	return nil
}

// ListAll returns every allocation ordered by enclosure, row and seat.
func (r *AllocationRepo) ListAll(ctx context.Context) ([]model.SeatAllocation, error) {
	const q = `SELECT id, enclosure_letter, row_letter, seat_number, attendee_id, allocated_at
	           FROM seat_allocations
	           ORDER BY enclosure_letter, row_letter, seat_number`
	return r.list(ctx, q)
}

// ListByEnclosure returns all allocations within one enclosure ordered
// by row then seat number.
func (r *AllocationRepo) ListByEnclosure(ctx context.Context, letter string) ([]model.SeatAllocation, error) {
	const q = `SELECT id, enclosure_letter, row_letter, seat_number, attendee_id, allocated_at
	           FROM seat_allocations
	           WHERE enclosure_letter = ?
	           ORDER BY row_letter, seat_number`
	return r.list(ctx, q, letter)
}

func (r *AllocationRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.SeatAllocation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.SeatAllocation
	for rows.Next() {
		var a model.SeatAllocation
		if err := rows.Scan(&a.ID, &a.Enclosure, &a.Row, &a.SeatNumber, &a.AttendeeID, &a.AllocatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteAll removes every allocation and returns the number of rows
// deleted. Count and delete run in one transaction so the returned
// count is atomic with the deletion.
func (r *AllocationRepo) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM seat_allocations`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return n, nil
}

// DeleteByEnclosure removes allocations of one enclosure and returns
// the number of rows deleted.
func (r *AllocationRepo) DeleteByEnclosure(ctx context.Context, letter string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_allocations WHERE enclosure_letter = ?`, letter)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindByAttendee returns the allocation held by one attendee, or
// ErrAllocationNotFound when the attendee has no seat.
func (r *AllocationRepo) FindByAttendee(ctx context.Context, attendeeID uint64) (*model.SeatAllocation, error) {
	const q = `SELECT id, enclosure_letter, row_letter, seat_number, attendee_id, allocated_at
	           FROM seat_allocations WHERE attendee_id = ?`
	var a model.SeatAllocation
	err := r.db.QueryRowContext(ctx, q, attendeeID).
		Scan(&a.ID, &a.Enclosure, &a.Row, &a.SeatNumber, &a.AttendeeID, &a.AllocatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CountByEnclosure returns how many seats are allocated in one enclosure.
func (r *AllocationRepo) CountByEnclosure(ctx context.Context, letter string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seat_allocations WHERE enclosure_letter = ?`, letter).Scan(&n)
	return n, err
}
