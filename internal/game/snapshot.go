package game

import "github.com/robalobadob/beauquote/internal/validate"

// Snapshot is the client view of a session.
// Original is only filled once the round is complete or given up.
type Snapshot struct {
	ID             string            `json:"id"`
	RoundID        string            `json:"roundId,omitempty"`
	State          State             `json:"state"`
	Started        bool              `json:"started"`
	Complete       bool              `json:"complete"`
	GaveUp         bool              `json:"gaveUp"`
	QuoteID        string            `json:"quoteId,omitempty"`
	Encrypted      string            `json:"encrypted,omitempty"`
	Author         string            `json:"author,omitempty"`
	Original       string            `json:"original,omitempty"`
	Guess          validate.Guess    `json:"guess,omitempty"`
	Verdicts       validate.Verdicts `json:"verdicts,omitempty"`
	UsedFallback   bool              `json:"usedFallback"`
	UpstreamStatus *int              `json:"upstreamStatus,omitempty"`
	UpstreamError  *string           `json:"upstreamError,omitempty"`
	Tally          TallySnapshot     `json:"tally"`
}

// Snapshot copies the session into its client view.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:       s.ID,
		RoundID:  s.roundID,
		State:    s.state,
		Started:  s.state != StateIdle,
		Complete: s.state == StateComplete,
		GaveUp:   s.state == StateGaveUp,
		Tally:    s.tally.Snapshot(),
	}
	if s.state == StateIdle {
		return snap
	}
	snap.QuoteID = s.puzzle.ID
	snap.Encrypted = s.puzzle.Encrypted
	snap.Author = s.puzzle.Author
	snap.Guess = s.guess.Clone()
	snap.Verdicts = s.verdicts.Clone()
	snap.UsedFallback = s.puzzle.UsedFallback
	snap.UpstreamStatus = s.puzzle.UpstreamStatus
	snap.UpstreamError = s.puzzle.UpstreamError
	if s.state.Finished() {
		snap.Original = s.puzzle.Original
	}
	return snap
}
