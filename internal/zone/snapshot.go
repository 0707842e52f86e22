package zone

import (
	"fmt"
	"slices"
	"time"
)

// Snapshot is an immutable view of the kernel zone table at one point in
// time. Take a new snapshot to observe changes.
type Snapshot struct {
	zones   []Zone
	byID    map[int]int
	byName  map[string]int
	current string
	taken   time.Time
}

// NewSnapshot validates zones and builds a snapshot. current names the zone
// the calling process runs in.
//
// The zone list must contain exactly one global zone (id 0, name "global",
// running) and no duplicate ids or names. Zones are sorted by id.
func NewSnapshot(zones []Zone, current string, taken time.Time) (*Snapshot, error) {
	sorted := slices.Clone(zones)
	slices.SortFunc(sorted, func(a, b Zone) int { return a.ID - b.ID })

	s := &Snapshot{
		zones:   sorted,
		byID:    make(map[int]int, len(sorted)),
		byName:  make(map[string]int, len(sorted)),
		current: current,
		taken:   taken,
	}
	for i, z := range sorted {
		if _, dup := s.byID[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone id %d", z.ID)
		}
		if _, dup := s.byName[z.Name]; dup {
			return nil, fmt.Errorf("duplicate zone name %q", z.Name)
		}
		s.byID[z.ID] = i
		s.byName[z.Name] = i
	}

	if len(sorted) == 0 || !sorted[0].IsGlobal() {
		return nil, fmt.Errorf("zone table has no global zone with id %d", GlobalID)
	}
	if sorted[0].Status != StatusRunning {
		return nil, fmt.Errorf("global zone is %s, want %s", sorted[0].Status, StatusRunning)
	}
	if _, ok := s.byName[current]; !ok {
		return nil, fmt.Errorf("current zone %q is not in the zone table", current)
	}
	return s, nil
}

// Zones returns a copy of the zones ordered by ascending id.
func (s *Snapshot) Zones() []Zone {
	return slices.Clone(s.zones)
}

// Len returns the number of zones in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.zones)
}

// Taken returns when the snapshot was taken.
func (s *Snapshot) Taken() time.Time {
	return s.taken
}

// CountByStatus returns the number of zones in each status.
func (s *Snapshot) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, z := range s.zones {
		counts[z.Status]++
	}
	return counts
}
