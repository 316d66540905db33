package slots

import (
	"reflect"
	"testing"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/timeutil"
)

func window(startMin, endMin int) model.AvailabilityWindow {
	return model.AvailabilityWindow{StartMin: startMin, EndMin: endMin}
}

func TestCompute_EmptyWithoutWindows(t *testing.T) {
	if got := Compute(60, 30, nil, nil); len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestCompute_WindowBound(t *testing.T) {
	// 09:00-12:00 window, 60-minute service: last fitting start is 11:00.
	got := Compute(60, 30, []model.AvailabilityWindow{window(540, 720)}, nil)
	want := []int{540, 570, 600, 630, 660}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompute_RejectsBlockedOverlap(t *testing.T) {
	// Existing appointment 10:00-10:30 with 30-minute buffers blocks
	// [09:30, 11:00). A 60-minute service with 30-minute buffers at 09:00
	// blocks [08:30, 10:30), which overlaps and must be excluded.
	windows := []model.AvailabilityWindow{window(540, 720)}
	blocked := []timeutil.Range{{Start: 570, End: 660}}

	// Every candidate up to 11:00 has a blocked range reaching into
	// [09:30, 11:00), and 11:30 no longer fits the window, so the day is full.
	got := Compute(60, 30, windows, blocked)
	if len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestCompute_SlotAfterBlockClears(t *testing.T) {
	// Wider window so starts after the blocked range survive the window bound.
	windows := []model.AvailabilityWindow{window(540, 840)} // 09:00-14:00
	blocked := []timeutil.Range{{Start: 570, End: 660}}     // [09:30, 11:00)

	got := Compute(60, 30, windows, blocked)
	want := []int{690, 720, 750, 780} // 11:30 through 13:00
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompute_BufferMayExceedWindowEdges(t *testing.T) {
	// The first candidate's blocked range starts before the window opens;
	// that alone must not reject it.
	got := Compute(60, 30, []model.AvailabilityWindow{window(540, 660)}, nil)
	want := []int{540, 570, 600}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCompute_DeduplicatesAcrossWindows(t *testing.T) {
	windows := []model.AvailabilityWindow{window(540, 660), window(540, 720)}
	got := Compute(30, 0, windows, nil)
	seen := map[int]int{}
	for _, s := range got {
		seen[s]++
		if seen[s] > 1 {
			t.Fatalf("duplicate slot %d in %v", s, got)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("slots not ascending: %v", got)
		}
	}
}

func TestCompute_IdempotentReads(t *testing.T) {
	windows := []model.AvailabilityWindow{window(540, 720)}
	blocked := []timeutil.Range{{Start: 570, End: 660}}
	first := Compute(60, 30, windows, blocked)
	second := Compute(60, 30, windows, blocked)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated computation differs: %v vs %v", first, second)
	}
}
