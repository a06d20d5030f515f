package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/convocation-seat-allocation/internal/allocation"
	"github.com/iliyamo/convocation-seat-allocation/internal/config"
	"github.com/iliyamo/convocation-seat-allocation/internal/queue"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
	queue_publisher "github.com/iliyamo/convocation-seat-allocation/internal/service"
)

// AllocationHandler exposes the allocation engine over HTTP. Runs and
// clears are ADMIN operations; lookups and stats are open to any
// authenticated operator. Engine failures surface as HTTP 500 with an
// error code string in the envelope message; per-attendee failures are
// data, not errors.
type AllocationHandler struct {
	Cfg         config.Config
	Engine      *allocation.Engine
	Allocations allocation.AllocationStore
}

// NewAllocationHandler constructs an AllocationHandler and panics if a
// dependency is nil.
func NewAllocationHandler(cfg config.Config, engine *allocation.Engine, allocations allocation.AllocationStore) *AllocationHandler {
	if engine == nil || allocations == nil {
		panic("nil dependency passed to NewAllocationHandler")
	}
	return &AllocationHandler{Cfg: cfg, Engine: engine, Allocations: allocations}
}

// runTimeout bounds one allocation run. The engine has no mid-run
// checkpoint; an interrupted run stays resumable because the next run
// skips already-allocated attendees and already-taken seats.
func (h *AllocationHandler) runTimeout() time.Duration {
	if h.Cfg.RunTimeoutSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(h.Cfg.RunTimeoutSec) * time.Second
}

// enclosureLetter extracts and normalizes the :letter path parameter.
func enclosureLetter(c echo.Context) (string, bool) {
	letter := strings.ToUpper(strings.TrimSpace(c.Param("letter")))
	if letter == "" || len(letter) > 2 {
		return "", false
	}
	for i := 0; i < len(letter); i++ {
		if letter[i] < 'A' || letter[i] > 'Z' {
			return "", false
		}
	}
	return letter, true
}

// triggeredBy renders the acting operator's account id for event
// payloads; "unknown" when the context carries no account.
func triggeredBy(c echo.Context) string {
	if id, err := getAccountID(c); err == nil {
		return strconv.FormatUint(id, 10)
	}
	return "unknown"
}

// publishRunEvent reports a finished run to the broker. Failures are
// logged and ignored; the run result already persisted.
func publishRunEvent(scope string, result *allocation.RunResult, actor string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = queue_publisher.PublishAllocationCompleted(ctx, queue.AllocationCompletedEvent{
		Scope:       scope,
		Allocated:   result.Allocated,
		Failed:      result.Failed,
		TriggeredBy: actor,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// AllocateSeats handles POST /v1/allocations/allocate-seats. It runs
// the full-venue allocation and returns the run summary: allocated and
// failed counts plus the bounded per-attendee error list.
func (h *AllocationHandler) AllocateSeats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.runTimeout())
	defer cancel()

	result, err := h.Engine.AllocateSeats(ctx)
	if err != nil {
		if errors.Is(err, allocation.ErrVenueNotConfigured) {
			return respond(c, http.StatusInternalServerError, "VENUE_NOT_CONFIGURED", nil)
		}
		log.Printf("allocation: full run failed: %v", err)
		return respond(c, http.StatusInternalServerError, "ALLOCATION_FAILED", nil)
	}
	go publishRunEvent("FULL", result, triggeredBy(c))
	return respond(c, http.StatusOK, "allocation completed", result)
}

// AllocateEnclosure handles POST /v1/allocations/allocate-enclosure/:letter.
// Seats are drawn only from the named enclosure; attendees targeting
// other enclosures are untouched.
func (h *AllocationHandler) AllocateEnclosure(c echo.Context) error {
	letter, ok := enclosureLetter(c)
	if !ok {
		return respond(c, http.StatusBadRequest, "INVALID_ENCLOSURE_LETTER", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.runTimeout())
	defer cancel()

	result, err := h.Engine.AllocateSeatsForEnclosure(ctx, letter)
	if err != nil {
		if errors.Is(err, repository.ErrEnclosureNotFound) {
			return respond(c, http.StatusNotFound, "ENCLOSURE_NOT_FOUND", nil)
		}
		log.Printf("allocation: enclosure %s run failed: %v", letter, err)
		return respond(c, http.StatusInternalServerError, "ALLOCATION_FAILED", nil)
	}
	go publishRunEvent(letter, result, triggeredBy(c))
	return respond(c, http.StatusOK, "allocation completed", result)
}

// ClearAll handles DELETE /v1/allocations/clear. Irreversible; returns
// the number of allocation records removed.
func (h *AllocationHandler) ClearAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.runTimeout())
	defer cancel()

	deleted, err := h.Engine.ClearAllAllocations(ctx)
	if err != nil {
		log.Printf("allocation: clear all failed: %v", err)
		return respond(c, http.StatusInternalServerError, "CLEAR_FAILED", nil)
	}
	actor := triggeredBy(c)
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishAllocationsCleared(pubCtx, queue.AllocationsClearedEvent{
			Scope:       "FULL",
			Deleted:     deleted,
			TriggeredBy: actor,
			ClearedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}()
	return respond(c, http.StatusOK, "allocations cleared", echo.Map{"deleted": deleted})
}

// ClearEnclosure handles DELETE /v1/allocations/clear-enclosure/:letter.
func (h *AllocationHandler) ClearEnclosure(c echo.Context) error {
	letter, ok := enclosureLetter(c)
	if !ok {
		return respond(c, http.StatusBadRequest, "INVALID_ENCLOSURE_LETTER", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.runTimeout())
	defer cancel()

	deleted, err := h.Engine.ClearEnclosureAllocations(ctx, letter)
	if err != nil {
		log.Printf("allocation: clear enclosure %s failed: %v", letter, err)
		return respond(c, http.StatusInternalServerError, "CLEAR_FAILED", nil)
	}
	actor := triggeredBy(c)
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishAllocationsCleared(pubCtx, queue.AllocationsClearedEvent{
			Scope:       letter,
			Deleted:     deleted,
			TriggeredBy: actor,
			ClearedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}()
	return respond(c, http.StatusOK, "allocations cleared", echo.Map{"deleted": deleted})
}

// GetAllocation handles GET /v1/allocations/:enrollmentId. A missing
// attendee or an attendee without a seat both answer 404 — "not found"
// is an expected state, not an error.
func (h *AllocationHandler) GetAllocation(c echo.Context) error {
	enrollmentID := strings.TrimSpace(c.Param("enrollmentId"))
	if enrollmentID == "" {
		return respond(c, http.StatusBadRequest, "INVALID_ENROLLMENT_ID", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	alloc, err := h.Engine.GetAttendeeAllocation(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return respond(c, http.StatusNotFound, "ATTENDEE_NOT_FOUND", nil)
		}
		if errors.Is(err, repository.ErrAllocationNotFound) {
			return respond(c, http.StatusNotFound, "ALLOCATION_NOT_FOUND", nil)
		}
		log.Printf("allocation: lookup %s failed: %v", enrollmentID, err)
		return respond(c, http.StatusInternalServerError, "LOOKUP_FAILED", nil)
	}
	return respond(c, http.StatusOK, "allocation found", alloc)
}

// Stats handles GET /v1/allocations/stats: per-enclosure occupancy and
// venue-wide totals.
func (h *AllocationHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Engine.GetAllocationStats(ctx)
	if err != nil {
		log.Printf("allocation: stats failed: %v", err)
		return respond(c, http.StatusInternalServerError, "STATS_FAILED", nil)
	}
	return respond(c, http.StatusOK, "allocation stats", stats)
}

// ListEnclosure handles GET /v1/allocations/enclosure/:letter and
// returns the enclosure's allocation records in row/seat order.
func (h *AllocationHandler) ListEnclosure(c echo.Context) error {
	letter, ok := enclosureLetter(c)
	if !ok {
		return respond(c, http.StatusBadRequest, "INVALID_ENCLOSURE_LETTER", nil)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	allocations, err := h.Allocations.ListByEnclosure(ctx, letter)
	if err != nil {
		log.Printf("allocation: list enclosure %s failed: %v", letter, err)
		return respond(c, http.StatusInternalServerError, "LIST_FAILED", nil)
	}
	type seatResp struct {
		Row        string `json:"row"`
		SeatNumber uint32 `json:"seat_number"`
		AttendeeID uint64 `json:"attendee_id"`
	}
	out := make([]seatResp, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, seatResp{Row: a.Row, SeatNumber: a.SeatNumber, AttendeeID: a.AttendeeID})
	}
	return respond(c, http.StatusOK, "enclosure allocations", echo.Map{"enclosure": letter, "seats": out})
}
