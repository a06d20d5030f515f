package repository // repository defines data access for the venue model

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

// EnclosureRepo provides read and seed access to the venue model:
// enclosures and their rows. During allocation runs the venue is
// read-only; seeding happens once, out of band, through Replace.
type EnclosureRepo struct {
	db *sql.DB
}

// NewEnclosureRepo constructs an EnclosureRepo with the given DB handle.
func NewEnclosureRepo(db *sql.DB) *EnclosureRepo {
	return &EnclosureRepo{db: db}
}

// ListEnclosures returns all active enclosures with their rows attached,
// ordered by display_order then letter. Row order within an enclosure is
// the configured display_order — this is the allocation priority.
func (r *EnclosureRepo) ListEnclosures(ctx context.Context) ([]model.Enclosure, error) {
	const q = `SELECT letter, name, category, entry_direction, display_order, is_active, created_at, updated_at
	           FROM enclosures
	           WHERE is_active = 1
	           ORDER BY display_order, letter`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Enclosure
	index := make(map[string]int)
	for rows.Next() {
		var e model.Enclosure
		if err := rows.Scan(
			&e.Letter, &e.Name, &e.Category, &e.EntryDirection,
			&e.DisplayOrder, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		index[e.Letter] = len(result)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	const rowQ = `SELECT id, enclosure_letter, row_letter, start_seat, end_seat, reserved, display_order
	              FROM enclosure_rows
	              ORDER BY enclosure_letter, display_order, row_letter`
	rrows, err := r.db.QueryContext(ctx, rowQ)
	if err != nil {
		return nil, err
	}
	defer rrows.Close()
	for rrows.Next() {
		var row model.Row
		var reserved string
		if err := rrows.Scan(
			&row.ID, &row.Enclosure, &row.Letter,
			&row.StartSeat, &row.EndSeat, &reserved, &row.DisplayOrder,
		); err != nil {
			return nil, err
		}
		row.Reserved = parseReserved(reserved)
		if idx, ok := index[row.Enclosure]; ok {
			result[idx].Rows = append(result[idx].Rows, row)
		}
	}
	if err := rrows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByLetter returns one enclosure with its rows. It returns
// ErrEnclosureNotFound when the letter names no active enclosure.
func (r *EnclosureRepo) GetByLetter(ctx context.Context, letter string) (*model.Enclosure, error) {
	const q = `SELECT letter, name, category, entry_direction, display_order, is_active, created_at, updated_at
	           FROM enclosures WHERE letter = ? AND is_active = 1`
	var e model.Enclosure
	err := r.db.QueryRowContext(ctx, q, letter).Scan(
		&e.Letter, &e.Name, &e.Category, &e.EntryDirection,
		&e.DisplayOrder, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEnclosureNotFound
		}
		return nil, err
	}
	const rowQ = `SELECT id, enclosure_letter, row_letter, start_seat, end_seat, reserved, display_order
	              FROM enclosure_rows
	              WHERE enclosure_letter = ?
	              ORDER BY display_order, row_letter`
	rows, err := r.db.QueryContext(ctx, rowQ, letter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var row model.Row
		var reserved string
		if err := rows.Scan(
			&row.ID, &row.Enclosure, &row.Letter,
			&row.StartSeat, &row.EndSeat, &reserved, &row.DisplayOrder,
		); err != nil {
			return nil, err
		}
		row.Reserved = parseReserved(reserved)
		e.Rows = append(e.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Replace wipes the venue configuration and inserts the given
// enclosures and rows inside a single transaction. Row definitions are
// validated first: an inverted range or a reserved seat outside its
// row's range yields ErrInvalidRow and nothing is written. Replace
// must not be called while an allocation run is in progress.
func (r *EnclosureRepo) Replace(ctx context.Context, enclosures []model.Enclosure) error {
	for _, e := range enclosures {
		for _, row := range e.Rows {
			if row.EndSeat < row.StartSeat {
				return ErrInvalidRow
			}
			for _, n := range row.Reserved {
				if n < row.StartSeat || n > row.EndSeat {
					return ErrInvalidRow
				}
			}
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM enclosure_rows`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM enclosures`); err != nil {
		return err
	}
	for _, e := range enclosures {
		const encQ = `INSERT INTO enclosures (letter, name, category, entry_direction, display_order, is_active)
		              VALUES (?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, encQ,
			e.Letter, e.Name, string(e.Category), string(e.EntryDirection), e.DisplayOrder, e.IsActive,
		); err != nil {
			return err
		}
		if len(e.Rows) == 0 {
			continue
		}
		query := `INSERT INTO enclosure_rows (enclosure_letter, row_letter, start_seat, end_seat, reserved, display_order) VALUES `
		args := make([]interface{}, 0, len(e.Rows)*6)
		for i, row := range e.Rows {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, e.Letter, row.Letter, row.StartSeat, row.EndSeat, formatReserved(row.Reserved), row.DisplayOrder)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// parseReserved converts the comma separated `reserved` column into a
// sorted slice of seat numbers. Blank and malformed entries are
// ignored so a hand-edited column cannot poison a run.
func parseReserved(raw string) []uint32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// formatReserved renders reserved seat numbers back into the comma
// separated storage form.
func formatReserved(reserved []uint32) string {
	if len(reserved) == 0 {
		return ""
	}
	parts := make([]string, len(reserved))
	for i, n := range reserved {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, ",")
}
