package services

import "testing"

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name           string
		a1, a2, b1, b2 string
		want           bool
	}{
		{"partial overlap", "2026-01-10", "2026-01-20", "2026-01-15", "2026-01-25", true},
		{"contained", "2026-01-10", "2026-01-20", "2026-01-12", "2026-01-15", true},
		{"identical", "2026-01-10", "2026-01-20", "2026-01-10", "2026-01-20", true},
		{"touching endpoints", "2026-01-10", "2026-01-20", "2026-01-20", "2026-01-25", true},
		{"single day both", "2026-01-10", "2026-01-10", "2026-01-10", "2026-01-10", true},
		{"disjoint before", "2026-01-01", "2026-01-05", "2026-01-06", "2026-01-09", false},
		{"disjoint after", "2026-01-10", "2026-01-15", "2026-01-01", "2026-01-09", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a1, a2 := date(t, tc.a1), date(t, tc.a2)
			b1, b2 := date(t, tc.b1), date(t, tc.b2)
			if got := Overlaps(a1, a2, b1, b2); got != tc.want {
				t.Fatalf("Overlaps(%s, %s, %s, %s) = %v, want %v", tc.a1, tc.a2, tc.b1, tc.b2, got, tc.want)
			}
			// 對稱性：交換兩個區間結果不變
			if got := Overlaps(b1, b2, a1, a2); got != tc.want {
				t.Fatalf("Overlaps is not symmetric for %s", tc.name)
			}
		})
	}
}

func TestContainsDate(t *testing.T) {
	from, to := date(t, "2026-01-10"), date(t, "2026-01-20")

	if !ContainsDate(from, to, date(t, "2026-01-10")) {
		t.Fatal("expected from endpoint to be contained")
	}
	if !ContainsDate(from, to, date(t, "2026-01-20")) {
		t.Fatal("expected to endpoint to be contained")
	}
	if !ContainsDate(from, to, date(t, "2026-01-15")) {
		t.Fatal("expected midpoint to be contained")
	}
	if ContainsDate(from, to, date(t, "2026-01-09")) {
		t.Fatal("expected day before range to be excluded")
	}
	if ContainsDate(from, to, date(t, "2026-01-21")) {
		t.Fatal("expected day after range to be excluded")
	}
}
