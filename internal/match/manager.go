package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/karowl/chessd/internal/obslog"
	"github.com/karowl/chessd/internal/rules"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchFinished  = errors.New("match already finished")
	ErrIllegalMove    = errors.New("illegal move")
	ErrConflict       = errors.New("concurrent update, retry")
	ErrUnknownRuleset = errors.New("unknown ruleset")
)

// Manager owns live match state in Redis. Move application is guarded by
// WATCH on the match key so two simultaneous requests cannot both extend
// the same move list.
type Manager struct {
	rdb     *redis.Client
	ttl     time.Duration
	archive Archive
}

// NewManager connects to Redis and verifies the connection. ttl bounds
// how long an idle match key survives; every write refreshes it.
func NewManager(redisURL string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{rdb: rdb, ttl: ttl}, nil
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachArchive wires a result store; finished matches are written to it.
func (m *Manager) AttachArchive(a Archive) {
	if m != nil {
		m.archive = a
	}
}

func matchKey(id string) string { return "chessd:match:" + id }

// Create starts a match under the named ruleset ("standard" or "legacy";
// empty means standard).
func (m *Manager) Create(ctx context.Context, rulesetName string) (*Match, error) {
	name := strings.ToLower(strings.TrimSpace(rulesetName))
	if name == "" {
		name = "standard"
	}
	if _, ok := rules.ParseRuleset(name); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleset, rulesetName)
	}

	now := time.Now().UTC()
	mt := &Match{
		ID:        uuid.NewString(),
		Ruleset:   name,
		Moves:     []string{},
		Turn:      rules.White.String(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.save(ctx, mt); err != nil {
		return nil, err
	}
	obslog.L().Info("match_create",
		zap.String("match_id", mt.ID),
		zap.String("ruleset", mt.Ruleset),
	)
	return mt, nil
}

// Get loads a match by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Match, error) {
	raw, err := m.rdb.Get(ctx, matchKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", id, err)
	}
	var mt Match
	if err := json.Unmarshal(raw, &mt); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", id, err)
	}
	return &mt, nil
}

// Board loads a match and rebuilds its board.
func (m *Manager) Board(ctx context.Context, id string) (*Match, *rules.Board, error) {
	mt, err := m.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	b, err := Replay(mt)
	if err != nil {
		return nil, nil, err
	}
	return mt, b, nil
}

// Play applies one move to the match. The side to move is implied by the
// board; a move by the wrong side fails inside the rules engine and comes
// back as ErrIllegalMove.
func (m *Manager) Play(ctx context.Context, id string, from, to rules.Square) (*Match, error) {
	var updated *Match
	key := matchKey(id)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrMatchNotFound
		}
		if err != nil {
			return err
		}
		var cur Match
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode match %s: %w", id, err)
		}
		if cur.Status != StatusActive {
			return ErrMatchFinished
		}

		b, err := Replay(&cur)
		if err != nil {
			return err
		}
		mover := b.Turn()
		if !b.ApplyMove(from, to) {
			return ErrIllegalMove
		}

		cur.Moves = append(cur.Moves, FormatMove(from, to))
		cur.Turn = b.Turn().String()
		cur.InCheck = b.InCheck(b.Turn())
		cur.UpdatedAt = time.Now().UTC()
		switch {
		case b.IsCheckmate(b.Turn()):
			cur.Status = StatusCheckmate
			cur.Winner = mover.String()
		case b.IsStalemate(b.Turn()):
			cur.Status = StatusStalemate
		}

		pipe := tx.TxPipeline()
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, newRaw, m.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		updated = &cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConflict
		}
		return nil, err
	}

	obslog.L().Info("match_move",
		zap.String("match_id", updated.ID),
		zap.String("move", updated.Moves[len(updated.Moves)-1]),
		zap.String("turn", updated.Turn),
		zap.Bool("in_check", updated.InCheck),
		zap.String("status", string(updated.Status)),
	)
	m.archiveIfFinished(ctx, updated)
	return updated, nil
}

// Resign ends the match in favor of color's opponent.
func (m *Manager) Resign(ctx context.Context, id string, color rules.Color) (*Match, error) {
	var updated *Match
	key := matchKey(id)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrMatchNotFound
		}
		if err != nil {
			return err
		}
		var cur Match
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode match %s: %w", id, err)
		}
		if cur.Status != StatusActive {
			return ErrMatchFinished
		}

		cur.Status = StatusResigned
		cur.Winner = color.Other().String()
		cur.UpdatedAt = time.Now().UTC()

		pipe := tx.TxPipeline()
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, newRaw, m.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		updated = &cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConflict
		}
		return nil, err
	}

	obslog.L().Info("match_resign",
		zap.String("match_id", updated.ID),
		zap.String("loser", color.String()),
	)
	m.archiveIfFinished(ctx, updated)
	return updated, nil
}

func (m *Manager) save(ctx context.Context, mt *Match) error {
	raw, err := json.Marshal(mt)
	if err != nil {
		return err
	}
	if err := m.rdb.Set(ctx, matchKey(mt.ID), raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("save match %s: %w", mt.ID, err)
	}
	return nil
}

// archiveIfFinished writes terminal matches to the archive. Archival is
// best effort; a storage failure must not fail the move that ended the
// game.
func (m *Manager) archiveIfFinished(ctx context.Context, mt *Match) {
	if m.archive == nil || mt.Active() {
		return
	}
	if err := m.archive.SaveResult(ctx, mt); err != nil {
		obslog.L().Warn("match_archive_failed",
			zap.String("match_id", mt.ID),
			zap.Error(err),
		)
	}
}
