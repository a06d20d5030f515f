package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/convocation-seat-allocation/internal/model"
)

func TestParseReserved(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []uint32
	}{
		{"empty", "", nil},
		{"single", "5", []uint32{5}},
		{"sorted output", "9,3,7", []uint32{3, 7, 9}},
		{"whitespace and blanks", " 1 , ,2 ", []uint32{1, 2}},
		{"malformed entries dropped", "4,x,-1,6", []uint32{4, 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseReserved(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("parseReserved(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("parseReserved(%q) = %v, want %v", tc.in, got, tc.want)
				}
			}
		})
	}
}

func TestFormatReserved(t *testing.T) {
	if got := formatReserved(nil); got != "" {
		t.Fatalf("formatReserved(nil) = %q, want empty", got)
	}
	if got := formatReserved([]uint32{3, 7, 9}); got != "3,7,9" {
		t.Fatalf("formatReserved = %q, want 3,7,9", got)
	}
}

func TestReplaceRejectsInvalidRows(t *testing.T) {
	// Validation runs before any statement is issued, so a nil DB handle
	// is safe here.
	repo := NewEnclosureRepo(nil)

	inverted := []model.Enclosure{{
		Letter: "A",
		Rows:   []model.Row{{Letter: "A", StartSeat: 10, EndSeat: 5}},
	}}
	if err := repo.Replace(context.Background(), inverted); !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("inverted range err = %v, want ErrInvalidRow", err)
	}

	outOfRange := []model.Enclosure{{
		Letter: "A",
		Rows:   []model.Row{{Letter: "A", StartSeat: 1, EndSeat: 10, Reserved: []uint32{11}}},
	}}
	if err := repo.Replace(context.Background(), outOfRange); !errors.Is(err, ErrInvalidRow) {
		t.Fatalf("out-of-range reserved err = %v, want ErrInvalidRow", err)
	}
}
