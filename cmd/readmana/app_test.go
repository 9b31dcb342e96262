package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/readmana/internal/apperr"
)

func TestParseIndices(t *testing.T) {
	got, err := parseIndices([]string{"3", "1", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{2, 0, 2}, got); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range [][]string{nil, {"0"}, {"x"}, {"2", "-1"}} {
		if _, err := parseIndices(bad); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("parseIndices(%q): err = %v, want ErrValidation", bad, err)
		}
	}
}

func TestParsePage(t *testing.T) {
	if n, err := parsePage("0"); err != nil || n != 0 {
		t.Errorf("parsePage(0) = %d, %v", n, err)
	}
	if _, err := parsePage("-4"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("negative page: err = %v", err)
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		key, raw string
		want     any
	}{
		{"pageTotal", "320", 320},
		{"year", "1999", 1999},
		{"isbn", "0451524934", "0451524934"},
		{"title", "null", nil},
		{"edition", "2nd", "2nd"},
	}
	for _, tc := range cases {
		if got := parseValue(tc.key, tc.raw); got != tc.want {
			t.Errorf("parseValue(%q, %q) = %#v, want %#v", tc.key, tc.raw, got, tc.want)
		}
	}
}

func TestSetCommandListsOptionalKeys(t *testing.T) {
	usage := setCommand().Usage
	for _, key := range []string{"isbn", "titleShort", "year"} {
		if !strings.Contains(usage, key) {
			t.Errorf("usage %q does not name %s", usage, key)
		}
	}
}
