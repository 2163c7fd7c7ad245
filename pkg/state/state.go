package state

import "time"

// State is the persisted sequence number bookkeeping.
type State struct {
	// Nodes maps a node id to the last sequence number handed out for it.
	Nodes map[string]int64 `json:"nodes"`

	// LastInsertAt is the time of the last successful insert.
	LastInsertAt time.Time `json:"last_insert_at"`
}

// IsEmpty returns true if no sequence number was ever recorded.
func (s State) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// Last returns the last sequence number used for node, or 0.
func (s State) Last(node string) int64 {
	return s.Nodes[node]
}

// Next reserves and returns the next sequence number for node.
// Numbers start at 1.
func (s *State) Next(node string) int64 {
	if s.Nodes == nil {
		s.Nodes = make(map[string]int64)
	}
	s.Nodes[node]++
	return s.Nodes[node]
}

// Observe records an explicitly chosen sequence number so that later calls
// to Next continue after it. Lower numbers are ignored.
func (s *State) Observe(node string, seq int64) {
	if s.Nodes == nil {
		s.Nodes = make(map[string]int64)
	}
	if seq > s.Nodes[node] {
		s.Nodes[node] = seq
	}
}

// MarkInserted updates the state after a successful insert.
func (s *State) MarkInserted(at time.Time) {
	s.LastInsertAt = at
}
