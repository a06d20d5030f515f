package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
)

// VenueHandler serves the venue configuration endpoints: seeding the
// enclosure layout and reading it back. Seeding replaces the whole
// layout in one transaction and must not run concurrently with an
// allocation run.
type VenueHandler struct {
	Enclosures *repository.EnclosureRepo
}

// NewVenueHandler constructs a VenueHandler with the given repository.
func NewVenueHandler(enclosures *repository.EnclosureRepo) *VenueHandler {
	return &VenueHandler{Enclosures: enclosures}
}

// ----- DTOs -----

type rowReq struct {
	Letter       string   `json:"letter"`
	StartSeat    uint32   `json:"start_seat"`
	EndSeat      uint32   `json:"end_seat"`
	Reserved     []uint32 `json:"reserved"`
	DisplayOrder uint32   `json:"display_order"`
}

type enclosureReq struct {
	Letter         string   `json:"letter"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	EntryDirection string   `json:"entry_direction"`
	DisplayOrder   uint32   `json:"display_order"`
	IsActive       *bool    `json:"is_active"`
	Rows           []rowReq `json:"rows"`
}

type seedReq struct {
	Enclosures []enclosureReq `json:"enclosures"`
}

type rowResp struct {
	Letter       string   `json:"letter"`
	StartSeat    uint32   `json:"start_seat"`
	EndSeat      uint32   `json:"end_seat"`
	Reserved     []uint32 `json:"reserved,omitempty"`
	SeatCount    int      `json:"seat_count"`
	DisplayOrder uint32   `json:"display_order"`
}

type enclosureResp struct {
	Letter         string    `json:"letter"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	EntryDirection string    `json:"entry_direction"`
	DisplayOrder   uint32    `json:"display_order"`
	TotalSeats     int       `json:"total_seats"`
	Rows           []rowResp `json:"rows"`
}

func toEnclosureResp(e model.Enclosure) enclosureResp {
	out := enclosureResp{
		Letter:         e.Letter,
		Name:           e.Name,
		Category:       string(e.Category),
		EntryDirection: string(e.EntryDirection),
		DisplayOrder:   e.DisplayOrder,
		TotalSeats:     e.TotalSeats(),
		Rows:           make([]rowResp, 0, len(e.Rows)),
	}
	for _, row := range e.Rows {
		out.Rows = append(out.Rows, rowResp{
			Letter:       row.Letter,
			StartSeat:    row.StartSeat,
			EndSeat:      row.EndSeat,
			Reserved:     row.Reserved,
			SeatCount:    row.SeatCount(),
			DisplayOrder: row.DisplayOrder,
		})
	}
	return out
}

// Seed handles PUT /v1/venue. The request body is the full venue
// layout; whatever was configured before is replaced. Validation
// rejects unknown categories, duplicate letters and malformed rows
// before anything touches the database.
func (h *VenueHandler) Seed(c echo.Context) error {
	var req seedReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid body", nil)
	}
	if len(req.Enclosures) == 0 {
		return respond(c, http.StatusBadRequest, "at least one enclosure required", nil)
	}

	seen := make(map[string]struct{}, len(req.Enclosures))
	enclosures := make([]model.Enclosure, 0, len(req.Enclosures))
	for i, er := range req.Enclosures {
		letter := strings.ToUpper(strings.TrimSpace(er.Letter))
		if letter == "" {
			return respond(c, http.StatusBadRequest, "enclosure letter required", nil)
		}
		if _, dup := seen[letter]; dup {
			return respond(c, http.StatusBadRequest, "duplicate enclosure letter: "+letter, nil)
		}
		seen[letter] = struct{}{}

		category, ok := model.ParseCategory(strings.ToUpper(strings.TrimSpace(er.Category)))
		if !ok {
			return respond(c, http.StatusBadRequest, "unknown category: "+er.Category, nil)
		}
		active := true
		if er.IsActive != nil {
			active = *er.IsActive
		}
		e := model.Enclosure{
			Letter:         letter,
			Name:           strings.TrimSpace(er.Name),
			Category:       category,
			EntryDirection: model.Direction(strings.ToUpper(strings.TrimSpace(er.EntryDirection))),
			DisplayOrder:   er.DisplayOrder,
			IsActive:       active,
		}
		if e.DisplayOrder == 0 {
			e.DisplayOrder = uint32(i + 1)
		}
		rowSeen := make(map[string]struct{}, len(er.Rows))
		for j, rr := range er.Rows {
			rowLetter := strings.ToUpper(strings.TrimSpace(rr.Letter))
			if rowLetter == "" {
				return respond(c, http.StatusBadRequest, "row letter required in enclosure "+letter, nil)
			}
			if _, dup := rowSeen[rowLetter]; dup {
				return respond(c, http.StatusBadRequest, "duplicate row "+rowLetter+" in enclosure "+letter, nil)
			}
			rowSeen[rowLetter] = struct{}{}
			order := rr.DisplayOrder
			if order == 0 {
				order = uint32(j + 1)
			}
			e.Rows = append(e.Rows, model.Row{
				Enclosure:    letter,
				Letter:       rowLetter,
				StartSeat:    rr.StartSeat,
				EndSeat:      rr.EndSeat,
				Reserved:     rr.Reserved,
				DisplayOrder: order,
			})
		}
		enclosures = append(enclosures, e)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Enclosures.Replace(ctx, enclosures); err != nil {
		if errors.Is(err, repository.ErrInvalidRow) {
			return respond(c, http.StatusBadRequest, "invalid row definition", nil)
		}
		log.Printf("venue: seed failed: %v", err)
		return respond(c, http.StatusInternalServerError, "SEED_FAILED", nil)
	}
	return respond(c, http.StatusOK, "venue configured", echo.Map{"enclosures": len(enclosures)})
}

// GetVenue handles GET /v1/venue and returns the active layout with
// per-row and per-enclosure seat counts.
func (h *VenueHandler) GetVenue(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	enclosures, err := h.Enclosures.ListEnclosures(ctx)
	if err != nil {
		log.Printf("venue: list failed: %v", err)
		return respond(c, http.StatusInternalServerError, "VENUE_FETCH_FAILED", nil)
	}
	out := make([]enclosureResp, 0, len(enclosures))
	total := 0
	for _, e := range enclosures {
		resp := toEnclosureResp(e)
		total += resp.TotalSeats
		out = append(out, resp)
	}
	return respond(c, http.StatusOK, "venue layout", echo.Map{"enclosures": out, "total_seats": total})
}

// GetEnclosure handles GET /v1/venue/:letter for a single enclosure.
func (h *VenueHandler) GetEnclosure(c echo.Context) error {
	letter, ok := enclosureLetter(c)
	if !ok {
		return respond(c, http.StatusBadRequest, "INVALID_ENCLOSURE_LETTER", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Enclosures.GetByLetter(ctx, letter)
	if err != nil {
		if errors.Is(err, repository.ErrEnclosureNotFound) {
			return respond(c, http.StatusNotFound, "ENCLOSURE_NOT_FOUND", nil)
		}
		log.Printf("venue: get %s failed: %v", letter, err)
		return respond(c, http.StatusInternalServerError, "VENUE_FETCH_FAILED", nil)
	}
	return respond(c, http.StatusOK, "enclosure", toEnclosureResp(*e))
}
