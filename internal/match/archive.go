package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Archive persists finished matches.
type Archive interface {
	SaveResult(ctx context.Context, m *Match) error
	Recent(ctx context.Context, limit int) ([]ArchivedMatch, error)
}

// ArchivedMatch is one finished game as read back from storage.
type ArchivedMatch struct {
	ID        string    `json:"id"`
	Ruleset   string    `json:"ruleset"`
	Result    string    `json:"result"` // "white", "black" or "draw"
	Method    string    `json:"method"` // lowercased terminal status
	Moves     []string  `json:"moves"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Repository is the Postgres-backed Archive.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished match so repeated archival of the same
// match is harmless.
func (r *Repository) SaveResult(ctx context.Context, m *Match) error {
	if r == nil || r.db == nil || m == nil {
		return nil
	}
	movesRaw, _ := json.Marshal(m.Moves)
	duration := m.UpdatedAt.Sub(m.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO matches (
	    match_id, ruleset, result, method, moves, move_count,
	    transcript, started_at, ended_at, duration_ms
	  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	  ON CONFLICT (match_id) DO UPDATE SET
	    ruleset=EXCLUDED.ruleset,
	    result=EXCLUDED.result,
	    method=EXCLUDED.method,
	    moves=EXCLUDED.moves,
	    move_count=EXCLUDED.move_count,
	    transcript=EXCLUDED.transcript,
	    started_at=EXCLUDED.started_at,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.Ruleset, m.Result(), strings.ToLower(string(m.Status)),
		string(movesRaw), len(m.Moves),
		Transcript(m), m.CreatedAt, m.UpdatedAt, duration,
	)
	return err
}

// Recent returns the latest finished matches, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]ArchivedMatch, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT match_id, ruleset, result, method, moves, started_at, ended_at
	  FROM matches ORDER BY ended_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedMatch
	for rows.Next() {
		var am ArchivedMatch
		var movesRaw string
		if err := rows.Scan(&am.ID, &am.Ruleset, &am.Result, &am.Method, &movesRaw, &am.StartedAt, &am.EndedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(movesRaw), &am.Moves); err != nil {
			return nil, fmt.Errorf("decode archived moves for %s: %w", am.ID, err)
		}
		out = append(out, am)
	}
	return out, rows.Err()
}

// Transcript renders the move list as numbered full-move pairs, e.g.
// "1. e2e4 e7e5 2. g1f3".
func Transcript(m *Match) string {
	var sb strings.Builder
	for i, mv := range m.Moves {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		sb.WriteByte(' ')
		sb.WriteString(mv)
	}
	return sb.String()
}
