package odsref

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		expr          string
		preserveSheet bool
		sheetName     string
		want          string
	}{
		{
			name: "formula prefix and mixed references",
			expr: "of:=SUM([$Sheet2.$A$1:.B2])+[.C3]",
			want: "SUM(Sheet2!$A$1:B2)+C3",
		},
		{
			name: "bracketed local range",
			expr: "[.A1:.B2]",
			want: "A1:B2",
		},
		{
			name: "bracketed local range keeps absolute markers",
			expr: "[.$A$1:.$B$2]",
			want: "$A$1:$B$2",
		},
		{
			name: "bracketed sheet range with both halves qualified",
			expr: "[$Data.A1:$Data.B2]",
			want: "A1:B2",
		},
		{
			name: "unbracketed database range target",
			expr: "$Sheet1.$A$1:$Sheet1.$D$5",
			want: "$A$1:$D$5",
		},
		{
			name: "single bracketed sheet cell",
			expr: "[$Sheet3.C9]",
			want: "Sheet3!C9",
		},
		{
			name: "single bracketed local cell",
			expr: "[.D4]",
			want: "D4",
		},
		{
			name: "whole column range",
			expr: "[.A:.C]",
			want: "A:C",
		},
		{
			name: "whole row range",
			expr: "[.1:.3]",
			want: "1:3",
		},
		{
			name: "degenerate range collapses",
			expr: "[.A1:.A1]",
			want: "A1",
		},
		{
			name:      "whole-expression qualified range collapses when not preserved",
			expr:      "[$Totals.A1:$Totals.B2]",
			sheetName: "Totals",
			want:      "A1:B2",
		},
		{
			name: "dotted pair with matching qualifiers collapses",
			expr: "Main.A1:Main.B2",
			want: "A1:B2",
		},
		{
			name: "lone dotted reference collapses",
			expr: "Main.A6",
			want: "A6",
		},
		{
			name: "qualified range inside a larger formula keeps its sheet",
			expr: "of:=SUM([$Sheet2.A1:.B2])*2",
			want: "SUM(Sheet2!A1:B2)*2",
		},
		{
			name:          "current sheet qualifier kept when preserved",
			expr:          "[$Totals.A1:$Totals.B2]",
			preserveSheet: true,
			sheetName:     "Totals",
			want:          "Totals!A1:B2",
		},
		{
			name:      "other sheet qualifier survives collapse",
			expr:      "[$Other.A1]+[.B1]",
			sheetName: "Totals",
			want:      "Other!A1+B1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.expr, tt.preserveSheet, tt.sheetName, nil)
			if got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"of:=SUM([$Sheet2.$A$1:.B2])+[.C3]",
		"[.A1:.B2]*2",
		"IF([.A1]>0;[$Data.B2];0)",
	}
	for _, in := range inputs {
		once := Normalize(in, false, "", nil)
		twice := Normalize(once, false, "", nil)
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeRowRemap(t *testing.T) {
	// Row 5 hidden: visible row 6 is stored row 7 (1-based).
	rowMap := map[int]int{6: 7}

	tests := []struct {
		expr string
		want string
	}{
		// Bare references are remapped.
		{"of:=[.A6]", "A7"},
		// Absolute row locks are remapped too — the lock pins the axis, not
		// the stored position.
		{"of:=[.$A$6]", "$A$7"},
		// Current-sheet-qualified references are remapped but keep their
		// qualifier (a lone bracketed cell is not a whole-expression range,
		// so the collapse rules leave it alone).
		{"of:=[$Main.A6]", "Main!A7"},
		// Cross-sheet references are never remapped.
		{"of:=[$Other.A6]", "Other!A6"},
		// Unmapped rows pass through untouched.
		{"of:=[.A3]", "A3"},
		// Function names ending in digits are not references.
		{"of:=LOG10([.A6])", "LOG10(A7)"},
	}
	for _, tt := range tests {
		got := Normalize(tt.expr, false, "Main", rowMap)
		if got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}
