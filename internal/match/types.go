// Package match manages live two-player games: creation, move
// application, resignation and result archival. Live state lives in
// Redis as JSON blobs keyed by match ID; the board itself is never
// stored, it is rebuilt by replaying the recorded moves.
package match

import (
	"fmt"
	"time"

	"github.com/karowl/chessd/internal/rules"
)

// Status is a match lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCheckmate Status = "CHECKMATE"
	StatusStalemate Status = "STALEMATE"
	StatusResigned  Status = "RESIGNED"
)

// Match is the persisted state of a game.
type Match struct {
	ID      string   `json:"id"`
	Ruleset string   `json:"ruleset"`
	Moves   []string `json:"moves"` // coordinate pairs like "e2e4", in play order

	Turn    string `json:"turn"`
	InCheck bool   `json:"in_check"`
	Status  Status `json:"status"`
	Winner  string `json:"winner,omitempty"` // "white" or "black"; empty while active or drawn

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the match still accepts moves.
func (m *Match) Active() bool { return m.Status == StatusActive }

// Result is "white", "black", "draw", or "" while the match is active.
func (m *Match) Result() string {
	switch m.Status {
	case StatusCheckmate, StatusResigned:
		return m.Winner
	case StatusStalemate:
		return "draw"
	}
	return ""
}

// Replay rebuilds the board by applying the recorded moves in order under
// the match's ruleset. A move that fails to apply means the stored record
// is corrupt.
func Replay(m *Match) (*rules.Board, error) {
	rs, ok := rules.ParseRuleset(m.Ruleset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleset, m.Ruleset)
	}
	b := rules.NewBoardWith(rs)
	for i, mv := range m.Moves {
		from, to, err := ParseMove(mv)
		if err != nil {
			return nil, fmt.Errorf("replay move %d of %s: %w", i+1, m.ID, err)
		}
		if !b.ApplyMove(from, to) {
			return nil, fmt.Errorf("replay move %d of %s: %q rejected", i+1, m.ID, mv)
		}
	}
	return b, nil
}
