// Package chessdto holds the wire types shared by the chessd server and
// its clients.
package chessdto

import "time"

// MatchState is the public view of a match.
type MatchState struct {
	ID      string   `json:"id"`
	Ruleset string   `json:"ruleset"`
	Moves   []string `json:"moves"`
	Turn    string   `json:"turn"`
	InCheck bool     `json:"in_check"`
	Status  string   `json:"status"`
	Winner  string   `json:"winner,omitempty"`
	Result  string   `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchivedMatch is one finished game from the archive listing.
type ArchivedMatch struct {
	ID        string    `json:"id"`
	Ruleset   string    `json:"ruleset"`
	Result    string    `json:"result"`
	Method    string    `json:"method"`
	Moves     []string  `json:"moves"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Event is pushed to websocket subscribers whenever a match changes.
type Event struct {
	Type  string     `json:"type"` // "move" or "resign"
	Match MatchState `json:"match"`
}

// MoveList is the response for a legal-move query on one square.
type MoveList struct {
	From  string   `json:"from"`
	Moves []string `json:"moves"`
}
