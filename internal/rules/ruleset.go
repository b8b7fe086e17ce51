package rules

// Ruleset selects between standard chess behavior and the quirks of early
// chessd releases. Each flag reproduces one documented defect of those
// releases when set; the zero value is fully corrected play. Keeping the
// choice explicit lets games recorded under old builds replay identically
// while new games get real chess.
type Ruleset struct {
	// UnblockedRookLines makes rook (and queen) rank/file generation emit
	// the entire rank and file, ignoring blocking pieces and destination
	// color.
	UnblockedRookLines bool

	// KnightIgnoresOccupancy lets knights land on any in-bounds square,
	// including squares held by their own side.
	KnightIgnoresOccupancy bool

	// AllowSelfCheck skips the apply-time rejection of moves that leave the
	// mover's own king attacked. Mate and stalemate detection still filter
	// through simulation either way.
	AllowSelfCheck bool

	// UncheckedCastling performs castling without verifying that the
	// intervening squares are empty and unattacked, that the king is not in
	// check, or that the king stands on its home square. It also uses the
	// old geometry: the king lands one file inward (f/d) and the rook on
	// the e-file.
	UncheckedCastling bool

	// LegacyEnPassant clears en passant eligibility at the end of the same
	// move that established it, so the capture window never opens, and
	// requires both pawns to be unmoved during generation.
	LegacyEnPassant bool

	// KingOnlyCastlingRights decays castling rights on king movement only,
	// never on rook moves or rook captures.
	KingOnlyCastlingRights bool

	// IgnoreTurnOrder accepts moves by either side regardless of whose turn
	// it is.
	IgnoreTurnOrder bool
}

// Standard returns the corrected ruleset: real chess movement, apply-time
// king-safety filtering, safe castling, a one-reply en passant window and
// full castling-rights decay.
func Standard() Ruleset { return Ruleset{} }

// Legacy returns the ruleset that reproduces the behavior of early chessd
// releases.
func Legacy() Ruleset {
	return Ruleset{
		UnblockedRookLines:     true,
		KnightIgnoresOccupancy: true,
		AllowSelfCheck:         true,
		UncheckedCastling:      true,
		LegacyEnPassant:        true,
		KingOnlyCastlingRights: true,
		IgnoreTurnOrder:        true,
	}
}

// ParseRuleset maps a configuration token to a Ruleset.
func ParseRuleset(name string) (Ruleset, bool) {
	switch name {
	case "", "standard":
		return Standard(), true
	case "legacy":
		return Legacy(), true
	}
	return Ruleset{}, false
}
