package game

import "sync"

// Tally counts results across rounds. It outlives sessions: reset and next
// leave it untouched.
type Tally struct {
	mu      sync.Mutex
	correct int
	gaveUp  int
	rounds  int
}

// TallySnapshot is the JSON view of a Tally.
type TallySnapshot struct {
	Correct int `json:"correct"`
	GaveUp  int `json:"gaveUp"`
	Rounds  int `json:"rounds"`
}

func (t *Tally) roundStarted() {
	t.mu.Lock()
	t.rounds++
	t.mu.Unlock()
}

func (t *Tally) solved() {
	t.mu.Lock()
	t.correct++
	t.mu.Unlock()
}

func (t *Tally) abandoned() {
	t.mu.Lock()
	t.gaveUp++
	t.mu.Unlock()
}

// Snapshot returns the current counts.
func (t *Tally) Snapshot() TallySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TallySnapshot{Correct: t.correct, GaveUp: t.gaveUp, Rounds: t.rounds}
}
