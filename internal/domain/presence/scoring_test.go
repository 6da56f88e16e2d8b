package presence

import (
	"testing"
	"time"
)

func TestDensityScoreBoundaries(t *testing.T) {
	cases := map[int64]int{
		0: 0, 1: 0,
		2: 1, 3: 1,
		4: 2, 5: 2, 6: 2,
		7: 3, 8: 3, 10: 3,
		11: 4, 50: 4,
	}
	for count, want := range cases {
		if got := DensityScore(count); got != want {
			t.Fatalf("DensityScore(%d): want=%d got=%d", count, want, got)
		}
	}
}

func TestActivityLevelBoundaries(t *testing.T) {
	cases := map[int64]int{0: 0, 1: 1, 3: 1, 4: 2, 6: 2, 7: 3, 10: 3, 11: 4}
	for count, want := range cases {
		if got := ActivityLevel(count); got != want {
			t.Fatalf("ActivityLevel(%d): want=%d got=%d", count, want, got)
		}
	}
}

func TestIsValidEncounter(t *testing.T) {
	cases := []struct {
		ms   int
		want bool
	}{{1500, false}, {1999, false}, {2000, true}, {5000, true}}
	for _, tc := range cases {
		if got := IsValidEncounter(time.Duration(tc.ms) * time.Millisecond); got != tc.want {
			t.Fatalf("IsValidEncounter(%d): want=%v got=%v", tc.ms, tc.want, got)
		}
	}
}

func TestMemoryLevel(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 1, 4: 2, 6: 2, 7: 3, 20: 3}
	for n, want := range cases {
		if got := MemoryLevel(n); got != want {
			t.Fatalf("MemoryLevel(%d): want=%d got=%d", n, want, got)
		}
	}
	prev := MemoryLevel(0)
	for n := 1; n <= 30; n++ {
		cur := MemoryLevel(n)
		if cur < prev {
			t.Fatalf("MemoryLevel not monotonic at n=%d: %d < %d", n, cur, prev)
		}
		prev = cur
	}
}
