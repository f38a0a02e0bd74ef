package footage

import (
	"sort"
	"sync"

	"storyreel/internal/scenario"
)

// Usage is a registry entry.
type Usage struct {
	ID  string  `json:"id"`
	URL string  `json:"url"`
	End float64 `json:"end"`
}

type usage struct {
	url   string
	end   float64
	order int
}

// Registry maps footage id to the furthest timeline end it has been placed
// at. It is scoped to one assembly run; create a new one per video.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*usage
	next    int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*usage)}
}

// End returns the recorded end for id.
func (r *Registry) End(id string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.entries[id]
	if !ok {
		return 0, false
	}
	return u.end, true
}

// Record raises the recorded end for the candidate to at least end and
// returns the stored value.
func (r *Registry) Record(c scenario.Candidate, end float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recordLocked(c, end)
}

func (r *Registry) recordLocked(c scenario.Candidate, end float64) float64 {
	u, ok := r.entries[c.ID]
	if !ok {
		u = &usage{url: c.URL, end: end, order: r.next}
		r.next++
		r.entries[c.ID] = u
		return u.end
	}
	if u.url == "" {
		u.url = c.URL
	}
	if end > u.end {
		u.end = end
	}
	return u.end
}

// Len returns the number of distinct clips used.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns entries in registration order.
func (r *Registry) Snapshot() []Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	type ordered struct {
		Usage
		order int
	}
	list := make([]ordered, 0, len(r.entries))
	for id, u := range r.entries {
		list = append(list, ordered{Usage{ID: id, URL: u.url, End: u.end}, u.order})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].order < list[j].order })
	out := make([]Usage, len(list))
	for i, o := range list {
		out[i] = o.Usage
	}
	return out
}

// inViewLocked returns the entry still covering start with the greatest
// recorded end. Ties go to the earliest registered clip.
func (r *Registry) inViewLocked(start float64) (scenario.Candidate, bool) {
	var (
		bestID string
		best   *usage
	)
	for id, u := range r.entries {
		if u.end < start {
			continue
		}
		if best == nil || u.end > best.end || (u.end == best.end && u.order < best.order) {
			bestID, best = id, u
		}
	}
	if best == nil {
		return scenario.Candidate{}, false
	}
	return scenario.Candidate{ID: bestID, URL: best.url}, true
}
