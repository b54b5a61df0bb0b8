package ooxmlnumfmt

import "testing"

func TestResolve(t *testing.T) {
	custom := map[int]string{164: "yyyy-mm-dd"}

	if got := Resolve(164, custom); got != "yyyy-mm-dd" {
		t.Fatalf("custom override: got %q", got)
	}
	if got := Resolve(2, nil); got != "0.00" {
		t.Fatalf("builtin 2: got %q", got)
	}
	if got := Resolve(49, nil); got != "@" {
		t.Fatalf("builtin 49: got %q", got)
	}
	// ID 29 is absent from the canonical table; unknown IDs degrade to
	// General instead of guessing a locale-dependent string.
	if got := Resolve(29, nil); got != "General" {
		t.Fatalf("unknown builtin 29: got %q", got)
	}
	if got := Resolve(200, nil); got != "General" {
		t.Fatalf("unknown custom id without override: got %q", got)
	}
}

func TestStripEscapes(t *testing.T) {
	if got := StripEscapes(`mm\-dd\-yyyy`); got != "mm-dd-yyyy" {
		t.Fatalf("StripEscapes: got %q", got)
	}
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		fmtStr string
		want   bool
	}{
		{"General", false},
		{"", false},
		{"0.00", false},
		{"#,##0", false},
		{"0.00E+00", false},
		{"m/d/yy", true},
		{"mm/dd/yyyy", true},
		{"d-mmm-yy", true},
		{"yyyy", true},
		// Minutes between hour and second tokens are not a month.
		{"hh:mm:ss", false},
		{"mmm yyyy", true},
		{`"total: "0.00`, false},
	}
	for _, tt := range tests {
		if got := IsDateFormat(tt.fmtStr); got != tt.want {
			t.Fatalf("IsDateFormat(%q) = %v, want %v", tt.fmtStr, got, tt.want)
		}
	}
}

func TestIsDateFormatID(t *testing.T) {
	for _, id := range []int{14, 17, 22, 27, 36, 45, 47, 50, 58} {
		if !IsDateFormatID(id, "") {
			t.Fatalf("id %d should be a date format", id)
		}
	}
	for _, id := range []int{0, 1, 9, 13, 37, 44, 48, 49} {
		if IsDateFormatID(id, "") {
			t.Fatalf("id %d should not be a date format", id)
		}
	}
	if !IsDateFormatID(164, "yyyy-mm-dd") {
		t.Fatalf("custom date format should be detected")
	}
	if IsDateFormatID(164, "0.00") {
		t.Fatalf("custom numeric format misdetected as date")
	}
}
