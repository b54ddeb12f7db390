package domain

import (
	"errors"
	"fmt"
)

// Registry is the fixed, ordered table of known stations. It is safe for
// concurrent use because it is never mutated after NewRegistry returns.
type Registry struct {
	stations []StationMeta
	index    map[int]int
}

// NewRegistry builds a Registry preserving the order of entries. Duplicate
// or non-positive station IDs are rejected.
func NewRegistry(entries []StationMeta) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("station registry is empty")
	}

	r := &Registry{
		stations: make([]StationMeta, len(entries)),
		index:    make(map[int]int, len(entries)),
	}
	for i, s := range entries {
		if s.ID <= 0 {
			return nil, fmt.Errorf("station registry entry %d: invalid id %d", i, s.ID)
		}
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("station registry: duplicate id %d", s.ID)
		}
		r.stations[i] = s
		r.index[s.ID] = i
	}
	return r, nil
}

// Lookup returns the metadata registered for id.
func (r *Registry) Lookup(id int) (StationMeta, bool) {
	i, ok := r.index[id]
	if !ok {
		return StationMeta{}, false
	}
	return r.stations[i], true
}

// Stations returns a copy of the registry entries in configuration order.
func (r *Registry) Stations() []StationMeta {
	out := make([]StationMeta, len(r.stations))
	copy(out, r.stations)
	return out
}

// Len reports the number of registered stations.
func (r *Registry) Len() int { return len(r.stations) }
