package testhelpers

import "sync"

// ScriptedRandom replays fixed values. Float64 and Intn draw from separate
// queues; an exhausted queue returns its fallback.
type ScriptedRandom struct {
	mu       sync.Mutex
	floats   []float64
	ints     []int
	Fallback float64
}

// NewScriptedRandom creates a source that returns floats in order
func NewScriptedRandom(floats ...float64) *ScriptedRandom {
	return &ScriptedRandom{floats: floats, Fallback: 0.5}
}

// WithInts queues values for Intn. Each value is reduced modulo n.
func (r *ScriptedRandom) WithInts(ints ...int) *ScriptedRandom {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, ints...)
	return r
}

func (r *ScriptedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return r.Fallback
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *ScriptedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return ((v % n) + n) % n
}

// Remaining reports how many scripted floats were not consumed
func (r *ScriptedRandom) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.floats)
}
