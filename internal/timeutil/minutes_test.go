package timeutil

import "testing"

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"disjoint", 540, 600, 660, 720, false},
		{"touching endpoints", 540, 600, 600, 660, false},
		{"partial overlap", 540, 630, 600, 660, true},
		{"contained", 540, 720, 600, 660, true},
		{"identical", 540, 600, 540, 600, true},
		{"reverse touching", 600, 660, 540, 600, false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: Overlaps(%d,%d,%d,%d) = %v, want %v",
				tc.name, tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock(09:30): %v", err)
	}
	if min != 570 {
		t.Fatalf("expected 570, got %d", min)
	}

	if _, err := ParseClock("24:00"); err == nil {
		t.Fatalf("expected error for 24:00")
	}
	if _, err := ParseClock("0930"); err == nil {
		t.Fatalf("expected error for missing colon")
	}
	if _, err := ParseClock("09:60"); err == nil {
		t.Fatalf("expected error for minute 60")
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Fatalf("expected 09:30, got %s", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %s", got)
	}
	if got := FormatClock(1439); got != "23:59" {
		t.Fatalf("expected 23:59, got %s", got)
	}
}
