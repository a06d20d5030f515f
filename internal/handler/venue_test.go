package handler

import (
	"net/http"
	"testing"

	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
)

// Seed validation happens before the repository is touched, so these
// tests run against a repo with no database handle.

func TestSeedRejectsEmptyBody(t *testing.T) {
	h := NewVenueHandler(repository.NewEnclosureRepo(nil))

	rec, env := doRequest(t, http.MethodPut, "/v1/venue", `{"enclosures":[]}`, h.Seed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Fatalf("envelope = %+v, want failure", env)
	}
}

func TestSeedRejectsUnknownCategory(t *testing.T) {
	h := NewVenueHandler(repository.NewEnclosureRepo(nil))

	body := `{"enclosures":[{"letter":"A","category":"ALIENS","rows":[{"letter":"A","start_seat":1,"end_seat":10}]}]}`
	rec, env := doRequest(t, http.MethodPut, "/v1/venue", body, h.Seed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Message != "unknown category: ALIENS" {
		t.Fatalf("message = %q, want unknown category", env.Message)
	}
}

func TestSeedRejectsDuplicateLetters(t *testing.T) {
	h := NewVenueHandler(repository.NewEnclosureRepo(nil))

	body := `{"enclosures":[
		{"letter":"A","category":"STUDENTS"},
		{"letter":"a","category":"FACULTY"}
	]}`
	rec, _ := doRequest(t, http.MethodPut, "/v1/venue", body, h.Seed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for duplicate letter", rec.Code)
	}
}

func TestSeedRejectsInvalidRowRange(t *testing.T) {
	h := NewVenueHandler(repository.NewEnclosureRepo(nil))

	body := `{"enclosures":[{"letter":"A","category":"STUDENTS","rows":[{"letter":"A","start_seat":10,"end_seat":5}]}]}`
	rec, env := doRequest(t, http.MethodPut, "/v1/venue", body, h.Seed)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Message != "invalid row definition" {
		t.Fatalf("message = %q, want invalid row definition", env.Message)
	}
}

func TestImportRejectsBadAttendees(t *testing.T) {
	h := NewAttendeeHandler(repository.NewAttendeeRepo(nil))

	cases := []struct {
		name string
		body string
	}{
		{"empty roster", `{"attendees":[]}`},
		{"missing enrollment id", `{"attendees":[{"full_name":"X","category":"STUDENTS"}]}`},
		{"duplicate enrollment id", `{"attendees":[
			{"enrollment_id":"EN001","category":"STUDENTS"},
			{"enrollment_id":"EN001","category":"STUDENTS"}
		]}`},
		{"unknown category", `{"attendees":[{"enrollment_id":"EN001","category":"ROBOTS"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := doRequest(t, http.MethodPost, "/v1/attendees", tc.body, h.Import)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Success {
				t.Fatalf("envelope = %+v, want failure", env)
			}
		})
	}
}
