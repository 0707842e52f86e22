package zone

// Resolver answers identity questions against one Snapshot. It never
// performs I/O.
type Resolver struct {
	snap *Snapshot
}

// NewResolver returns a resolver over snap.
func NewResolver(snap *Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// Snapshot returns the snapshot the resolver reads from.
func (r *Resolver) Snapshot() *Snapshot {
	return r.snap
}

// Current returns the zone the calling process runs in.
func (r *Resolver) Current() Zone {
	return r.snap.zones[r.snap.byName[r.snap.current]]
}

// ByID returns the zone with the given id.
func (r *Resolver) ByID(id int) (Zone, error) {
	i, ok := r.snap.byID[id]
	if !ok {
		return Zone{}, notFoundByID(id)
	}
	return r.snap.zones[i], nil
}

// ByName returns the zone with the given name. Matching is exact and
// case-sensitive.
func (r *Resolver) ByName(name string) (Zone, error) {
	i, ok := r.snap.byName[name]
	if !ok {
		return Zone{}, notFoundByName(name)
	}
	return r.snap.zones[i], nil
}

// Lookup resolves a parsed reference.
func (r *Resolver) Lookup(ref Ref) (Zone, error) {
	if ref.IsID() {
		return r.ByID(ref.ID)
	}
	return r.ByName(ref.Name)
}

// All returns every zone ordered by ascending id.
func (r *Resolver) All() []Zone {
	return r.snap.Zones()
}
