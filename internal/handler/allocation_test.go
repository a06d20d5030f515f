package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/convocation-seat-allocation/internal/allocation"
	"github.com/iliyamo/convocation-seat-allocation/internal/config"
	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

func newTestAllocationHandler() (*AllocationHandler, *allocation.MemoryAllocations) {
	venue := &allocation.MemoryVenue{Enclosures: []model.Enclosure{
		{
			Letter: "A", Category: model.CategoryStudents, DisplayOrder: 1, IsActive: true,
			Rows: []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 3}},
		},
	}}
	allocs := &allocation.MemoryAllocations{}
	atts := &allocation.MemoryAttendees{
		Attendees: []model.Attendee{
			{ID: 1, EnrollmentID: "EN001", FullName: "First Attendee",
				Category: model.CategoryStudents, Eligible: true, Registered: true},
			{ID: 2, EnrollmentID: "EN002", FullName: "Second Attendee",
				Category: model.CategoryStudents, Eligible: true, Registered: true},
		},
		Allocations: allocs,
	}
	engine := allocation.NewEngine(venue, atts, allocs)
	return NewAllocationHandler(config.Config{RunTimeoutSec: 5}, engine, allocs), allocs
}

func doRequest(t *testing.T, method, path string, body string, handle func(echo.Context) error, params ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if err := handle(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not the standard envelope: %v", err)
		}
	}
	return rec, env
}

func TestAllocateSeatsEndpoint(t *testing.T) {
	h, allocs := newTestAllocationHandler()

	rec, env := doRequest(t, http.MethodPost, "/v1/allocations/allocate-seats", "", h.AllocateSeats)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Fatalf("envelope = %+v, want success", env)
	}
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want run result object", env.Data)
	}
	if data["allocated"] != float64(2) || data["failed"] != float64(0) {
		t.Fatalf("run result = %v, want 2 allocated, 0 failed", data)
	}
	if n, _ := allocs.CountByEnclosure(context.Background(), "A"); n != 2 {
		t.Fatalf("stored records = %d, want 2", n)
	}
}

func TestAllocateEnclosureRejectsBadLetter(t *testing.T) {
	h, _ := newTestAllocationHandler()

	rec, env := doRequest(t, http.MethodPost, "/v1/allocations/allocate-enclosure/99", "",
		h.AllocateEnclosure, "letter", "99")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Fatalf("envelope = %+v, want failure", env)
	}
}

func TestAllocateEnclosureUnknownLetter(t *testing.T) {
	h, _ := newTestAllocationHandler()

	rec, _ := doRequest(t, http.MethodPost, "/v1/allocations/allocate-enclosure/Z", "",
		h.AllocateEnclosure, "letter", "Z")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetAllocationNotFound(t *testing.T) {
	h, _ := newTestAllocationHandler()

	// Unknown enrollment id.
	rec, env := doRequest(t, http.MethodGet, "/v1/allocations/NOPE", "",
		h.GetAllocation, "enrollmentId", "NOPE")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Message != "ATTENDEE_NOT_FOUND" {
		t.Fatalf("message = %q, want ATTENDEE_NOT_FOUND", env.Message)
	}

	// Known attendee without a seat.
	rec, env = doRequest(t, http.MethodGet, "/v1/allocations/EN001", "",
		h.GetAllocation, "enrollmentId", "EN001")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Message != "ALLOCATION_NOT_FOUND" {
		t.Fatalf("message = %q, want ALLOCATION_NOT_FOUND", env.Message)
	}
}

func TestGetAllocationAfterRun(t *testing.T) {
	h, _ := newTestAllocationHandler()
	if rec, _ := doRequest(t, http.MethodPost, "/v1/allocations/allocate-seats", "", h.AllocateSeats); rec.Code != http.StatusOK {
		t.Fatalf("allocate status = %d, want 200", rec.Code)
	}

	rec, env := doRequest(t, http.MethodGet, "/v1/allocations/EN001", "",
		h.GetAllocation, "enrollmentId", "EN001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]interface{})
	if data["enclosure"] != "A" || data["seat_number"] != float64(1) {
		t.Fatalf("allocation = %v, want enclosure A seat 1", data)
	}
}

func TestStatsEndpoint(t *testing.T) {
	h, _ := newTestAllocationHandler()
	if rec, _ := doRequest(t, http.MethodPost, "/v1/allocations/allocate-seats", "", h.AllocateSeats); rec.Code != http.StatusOK {
		t.Fatalf("allocate status = %d, want 200", rec.Code)
	}

	rec, env := doRequest(t, http.MethodGet, "/v1/allocations/stats", "", h.Stats)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]interface{})
	if data["total_allocated"] != float64(2) {
		t.Fatalf("stats = %v, want total_allocated 2", data)
	}
}

func TestClearAllEndpoint(t *testing.T) {
	h, allocs := newTestAllocationHandler()
	if rec, _ := doRequest(t, http.MethodPost, "/v1/allocations/allocate-seats", "", h.AllocateSeats); rec.Code != http.StatusOK {
		t.Fatalf("allocate status = %d, want 200", rec.Code)
	}

	rec, env := doRequest(t, http.MethodDelete, "/v1/allocations/clear", "", h.ClearAll)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]interface{})
	if data["deleted"] != float64(2) {
		t.Fatalf("deleted = %v, want 2", data["deleted"])
	}
	if n, _ := allocs.CountByEnclosure(context.Background(), "A"); n != 0 {
		t.Fatalf("records after clear = %d, want 0", n)
	}
}
