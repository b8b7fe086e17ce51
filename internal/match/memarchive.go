package match

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryArchive is an in-process Archive used when no database is
// configured, and in tests.
type MemoryArchive struct {
	mu   sync.RWMutex
	rows map[string]ArchivedMatch
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{rows: make(map[string]ArchivedMatch)}
}

func (a *MemoryArchive) SaveResult(_ context.Context, m *Match) error {
	if m == nil {
		return nil
	}
	moves := make([]string, len(m.Moves))
	copy(moves, m.Moves)

	a.mu.Lock()
	a.rows[m.ID] = ArchivedMatch{
		ID:        m.ID,
		Ruleset:   m.Ruleset,
		Result:    m.Result(),
		Method:    strings.ToLower(string(m.Status)),
		Moves:     moves,
		StartedAt: m.CreatedAt,
		EndedAt:   m.UpdatedAt,
	}
	a.mu.Unlock()
	return nil
}

func (a *MemoryArchive) Recent(_ context.Context, limit int) ([]ArchivedMatch, error) {
	if limit <= 0 {
		limit = 20
	}
	a.mu.RLock()
	out := make([]ArchivedMatch, 0, len(a.rows))
	for _, row := range a.rows {
		out = append(out, row)
	}
	a.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
