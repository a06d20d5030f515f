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

// AttendeeHandler serves attendee roster endpoints: bulk import from
// the registration system and lookups for the help desk.
type AttendeeHandler struct {
	Attendees *repository.AttendeeRepo
}

// NewAttendeeHandler constructs an AttendeeHandler with the given repository.
func NewAttendeeHandler(attendees *repository.AttendeeRepo) *AttendeeHandler {
	return &AttendeeHandler{Attendees: attendees}
}

// ----- DTOs -----

type attendeeReq struct {
	EnrollmentID      string `json:"enrollment_id"`
	FullName          string `json:"full_name"`
	Category          string `json:"category"`
	AssignedEnclosure string `json:"assigned_enclosure"`
	Eligible          bool   `json:"convocation_eligible"`
	Registered        bool   `json:"convocation_registered"`
}

type importReq struct {
	Attendees []attendeeReq `json:"attendees"`
}

type attendeeResp struct {
	ID                uint64 `json:"id"`
	EnrollmentID      string `json:"enrollment_id"`
	FullName          string `json:"full_name"`
	Category          string `json:"category"`
	AssignedEnclosure string `json:"assigned_enclosure,omitempty"`
	Eligible          bool   `json:"convocation_eligible"`
	Registered        bool   `json:"convocation_registered"`
}

func toAttendeeResp(a model.Attendee) attendeeResp {
	return attendeeResp{
		ID:                a.ID,
		EnrollmentID:      a.EnrollmentID,
		FullName:          a.FullName,
		Category:          string(a.Category),
		AssignedEnclosure: a.AssignedEnclosure,
		Eligible:          a.Eligible,
		Registered:        a.Registered,
	}
}

// Import handles POST /v1/attendees. Records are upserted by
// enrollment id so re-importing a corrected roster is safe; rows that
// already exist get their mutable fields refreshed.
func (h *AttendeeHandler) Import(c echo.Context) error {
	var req importReq
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "invalid body", nil)
	}
	if len(req.Attendees) == 0 {
		return respond(c, http.StatusBadRequest, "at least one attendee required", nil)
	}

	seen := make(map[string]struct{}, len(req.Attendees))
	attendees := make([]model.Attendee, 0, len(req.Attendees))
	for _, ar := range req.Attendees {
		enrollmentID := strings.TrimSpace(ar.EnrollmentID)
		if enrollmentID == "" {
			return respond(c, http.StatusBadRequest, "enrollment_id required", nil)
		}
		if _, dup := seen[enrollmentID]; dup {
			return respond(c, http.StatusBadRequest, "duplicate enrollment_id: "+enrollmentID, nil)
		}
		seen[enrollmentID] = struct{}{}

		category, ok := model.ParseCategory(strings.ToUpper(strings.TrimSpace(ar.Category)))
		if !ok {
			return respond(c, http.StatusBadRequest, "unknown category: "+ar.Category, nil)
		}
		attendees = append(attendees, model.Attendee{
			EnrollmentID:      enrollmentID,
			FullName:          strings.TrimSpace(ar.FullName),
			Category:          category,
			AssignedEnclosure: strings.ToUpper(strings.TrimSpace(ar.AssignedEnclosure)),
			Eligible:          ar.Eligible,
			Registered:        ar.Registered,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.Attendees.UpsertBulk(ctx, attendees); err != nil {
		log.Printf("attendee: import failed: %v", err)
		return respond(c, http.StatusInternalServerError, "IMPORT_FAILED", nil)
	}
	return respond(c, http.StatusOK, "attendees imported", echo.Map{"imported": len(attendees)})
}

// Get handles GET /v1/attendees/:enrollmentId.
func (h *AttendeeHandler) Get(c echo.Context) error {
	enrollmentID := strings.TrimSpace(c.Param("enrollmentId"))
	if enrollmentID == "" {
		return respond(c, http.StatusBadRequest, "INVALID_ENROLLMENT_ID", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Attendees.GetByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return respond(c, http.StatusNotFound, "ATTENDEE_NOT_FOUND", nil)
		}
		log.Printf("attendee: get %s failed: %v", enrollmentID, err)
		return respond(c, http.StatusInternalServerError, "LOOKUP_FAILED", nil)
	}
	return respond(c, http.StatusOK, "attendee", toAttendeeResp(*a))
}

// List handles GET /v1/attendees. With ?eligible=true only attendees
// that pass the eligibility filter are returned.
func (h *AttendeeHandler) List(c echo.Context) error {
	eligibleOnly := strings.EqualFold(c.QueryParam("eligible"), "true")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	attendees, err := h.Attendees.List(ctx, eligibleOnly)
	if err != nil {
		log.Printf("attendee: list failed: %v", err)
		return respond(c, http.StatusInternalServerError, "LIST_FAILED", nil)
	}
	out := make([]attendeeResp, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, toAttendeeResp(a))
	}
	return respond(c, http.StatusOK, "attendees", echo.Map{"count": len(out), "attendees": out})
}
