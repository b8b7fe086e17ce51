package chessdto

// CreateMatchRequest starts a new match. Ruleset may be empty for the
// server default.
type CreateMatchRequest struct {
	Ruleset string `json:"ruleset,omitempty"`
}

// MoveRequest plays one move. Either Move carries both squares ("e2 e4"
// or "e2e4"), or From and To carry one square each.
type MoveRequest struct {
	Move string `json:"move,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// ResignRequest ends the match; Color is the resigning side.
type ResignRequest struct {
	Color string `json:"color"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
