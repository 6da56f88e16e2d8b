package presence

import "time"

const MinEncounterDuration = 2000 * time.Millisecond

// DensityScore buckets live density pings for a cell: >10→4, >6→3, >3→2, >1→1, else 0.
func DensityScore(count int64) int {
	switch {
	case count > 10:
		return 4
	case count > 6:
		return 3
	case count > 3:
		return 2
	case count > 1:
		return 1
	default:
		return 0
	}
}

// ActivityLevel buckets network-wide ping activity: >10→4, >6→3, >3→2, >0→1, else 0.
// The lowest threshold differs from DensityScore: a single ping already counts as activity.
func ActivityLevel(count int64) int {
	switch {
	case count > 10:
		return 4
	case count > 6:
		return 3
	case count > 3:
		return 2
	case count > 0:
		return 1
	default:
		return 0
	}
}

func IsValidEncounter(d time.Duration) bool {
	return d >= MinEncounterDuration
}

// MemoryLevel maps an encounter count onto 0 (single), 1 passing, 2 familiar, 3 resonant.
func MemoryLevel(count int) int {
	switch {
	case count >= 7:
		return 3
	case count >= 4:
		return 2
	case count >= 2:
		return 1
	default:
		return 0
	}
}
