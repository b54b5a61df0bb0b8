package cellref

import "testing"

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		in       string
		row, col int
		ok       bool
	}{
		{"A1", 0, 0, true},
		{"B2", 1, 1, true},
		{"Z1", 0, 25, true},
		{"AA1", 0, 26, true},
		{"ZZ1", 0, 701, true},
		{"AAA1", 0, 702, true},
		{"$C$7", 6, 2, true},
		{"$D9", 8, 3, true},
		{"A0", 0, 0, false},
		{"12", 0, 0, false},
		{"ABCD1", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		row, col, ok := ParseCellRef(tt.in)
		if ok != tt.ok {
			t.Fatalf("ParseCellRef(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if ok && (row != tt.row || col != tt.col) {
			t.Fatalf("ParseCellRef(%q) = (%d, %d), want (%d, %d)", tt.in, row, col, tt.row, tt.col)
		}
	}
}

func TestColLettersRoundTrip(t *testing.T) {
	// Boundary columns from the base-26-without-zero encoding.
	cases := map[int]string{0: "A", 25: "Z", 26: "AA", 701: "ZZ", 702: "AAA"}
	for col, want := range cases {
		if got := ColToLetters(col); got != want {
			t.Fatalf("ColToLetters(%d) = %q, want %q", col, got, want)
		}
	}
	for col := 0; col < 1000; col++ {
		ref := FormatCellRef(col, col)
		row, parsedCol, ok := ParseCellRef(ref)
		if !ok || row != col || parsedCol != col {
			t.Fatalf("round trip failed for (%d, %d): %q -> (%d, %d, %v)", col, col, ref, row, parsedCol, ok)
		}
	}
}

func TestParseRange(t *testing.T) {
	r1, c1, r2, c2, ok := ParseRange("A1:C10")
	if !ok || r1 != 0 || c1 != 0 || r2 != 9 || c2 != 2 {
		t.Fatalf("ParseRange(A1:C10) = (%d,%d,%d,%d,%v)", r1, c1, r2, c2, ok)
	}
	if r1 > r2 || c1 > c2 {
		t.Fatalf("range bounds not ordered")
	}

	// A single cell parses as a 1x1 range.
	r1, c1, r2, c2, ok = ParseRange("B3")
	if !ok || r1 != 2 || c1 != 1 || r2 != 2 || c2 != 1 {
		t.Fatalf("ParseRange(B3) = (%d,%d,%d,%d,%v)", r1, c1, r2, c2, ok)
	}

	if _, _, _, _, ok := ParseRange("A1:"); ok {
		t.Fatalf("ParseRange(A1:) should fail")
	}
}

func TestShiftFormulaByDelta(t *testing.T) {
	tests := []struct {
		formula    string
		dRow, dCol int
		want       string
	}{
		{"A1*2", 1, 0, "A2*2"},
		{"A1+B1", 0, 1, "B1+C1"},
		{"SUM(A1:B2)", 2, 2, "SUM(C3:D4)"},
		// Absolute markers pin their axis.
		{"$A$1+B1", 1, 1, "$A$1+C2"},
		{"$A1+A$1", 1, 1, "$A2+B$1"},
		// Sheet qualifiers survive.
		{"Sheet2!A1", 1, 0, "Sheet2!A2"},
		{"'My Sheet'!A1", 1, 0, "'My Sheet'!A2"},
	}
	for _, tt := range tests {
		if got := ShiftFormulaByDelta(tt.formula, tt.dRow, tt.dCol); got != tt.want {
			t.Fatalf("ShiftFormulaByDelta(%q, %d, %d) = %q, want %q",
				tt.formula, tt.dRow, tt.dCol, got, tt.want)
		}
	}
}
