// Package httpapi exposes match management over HTTP: a JSON API, plain
// text and PNG board views, and a websocket feed of match events.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/karowl/chessd/internal/match"
	"github.com/karowl/chessd/internal/msgcat"
	"github.com/karowl/chessd/internal/obslog"
	"github.com/karowl/chessd/internal/render"
	"github.com/karowl/chessd/internal/rules"
	"github.com/karowl/chessd/pkg/chessdto"
)

// Server routes API requests to the match manager.
type Server struct {
	mgr            *match.Manager
	archive        match.Archive
	renderer       *render.PNGRenderer
	cat            *msgcat.Catalog
	hub            *Hub
	defaultRuleset string
	upgrader       websocket.Upgrader
	router         *mux.Router
}

// NewServer wires the API. mgr and renderer are required; archive may be
// nil, which leaves the archive listing empty.
func NewServer(mgr *match.Manager, archive match.Archive, renderer *render.PNGRenderer, cat *msgcat.Catalog, defaultRuleset string) (*Server, error) {
	if mgr == nil {
		return nil, fmt.Errorf("httpapi: match manager is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("httpapi: renderer is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("httpapi: message catalog is required")
	}
	if defaultRuleset == "" {
		defaultRuleset = "standard"
	}

	s := &Server{
		mgr:            mgr,
		archive:        archive,
		renderer:       renderer,
		cat:            cat,
		hub:            NewHub(),
		defaultRuleset: defaultRuleset,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	r := mux.NewRouter()
	r.Use(accessLog)
	r.Use(func(next http.Handler) http.Handler {
		return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(next)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/matches", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/moves", s.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/resign", s.handleResign).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/squares/{square}/moves", s.handleSquareMoves).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/board.txt", s.handleBoardText).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/board.png", s.handleBoardPNG).Methods(http.MethodGet)
	api.HandleFunc("/archive", s.handleArchive).Methods(http.MethodGet)
	r.HandleFunc("/ws/matches/{id}", s.handleWS).Methods(http.MethodGet)

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLog adapts gorilla's Apache-style request logging onto the
// structured logger.
func accessLog(next http.Handler) http.Handler {
	return handlers.LoggingHandler(accessLogWriter{}, next)
}

type accessLogWriter struct{}

func (accessLogWriter) Write(p []byte) (int, error) {
	obslog.L().Info("http_access", zap.String("line", strings.TrimRight(string(p), "\n")))
	return len(p), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req chessdto.CreateMatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	ruleset := req.Ruleset
	if strings.TrimSpace(ruleset) == "" {
		ruleset = s.defaultRuleset
	}
	mt, err := s.mgr.Create(r.Context(), ruleset)
	if err != nil {
		if errors.Is(err, match.ErrUnknownRuleset) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalErr(w, "create match", err)
		return
	}
	writeJSON(w, http.StatusCreated, toState(mt))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	mt, err := s.mgr.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.matchErr(w, "get match", err)
		return
	}
	writeJSON(w, http.StatusOK, toState(mt))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req chessdto.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	moveStr := req.Move
	if strings.TrimSpace(moveStr) == "" {
		moveStr = req.From + " " + req.To
	}
	from, to, err := match.ParseMove(moveStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	mt, err := s.mgr.Play(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		s.matchErr(w, "play move", err)
		return
	}
	state := toState(mt)
	s.hub.Broadcast(mt.ID, chessdto.Event{Type: "move", Match: state})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	var req chessdto.ResignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	var color rules.Color
	switch strings.ToLower(strings.TrimSpace(req.Color)) {
	case "white", "w":
		color = rules.White
	case "black", "b":
		color = rules.Black
	default:
		writeErr(w, http.StatusBadRequest, "color must be white or black")
		return
	}

	mt, err := s.mgr.Resign(r.Context(), mux.Vars(r)["id"], color)
	if err != nil {
		s.matchErr(w, "resign", err)
		return
	}
	state := toState(mt)
	s.hub.Broadcast(mt.ID, chessdto.Event{Type: "resign", Match: state})
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSquareMoves(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sq, err := rules.ParseSquare(vars["square"])
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	_, b, err := s.mgr.Board(r.Context(), vars["id"])
	if err != nil {
		s.matchErr(w, "square moves", err)
		return
	}
	squares := b.MovesFrom(sq).Sorted()
	out := chessdto.MoveList{From: sq.String(), Moves: make([]string, 0, len(squares))}
	for _, to := range squares {
		out.Moves = append(out.Moves, to.String())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBoardText(w http.ResponseWriter, r *http.Request) {
	_, b, err := s.mgr.Board(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.matchErr(w, "board text", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, render.Text(b))
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	mt, b, err := s.mgr.Board(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.matchErr(w, "board png", err)
		return
	}
	var opts render.PNGOptions
	if len(mt.Moves) > 0 {
		opts.Highlight = []rules.Square{b.LastMove()}
	}
	data, err := s.renderer.Render(r.Context(), b, opts)
	if err != nil {
		s.internalErr(w, "render board", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeErr(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	out := []chessdto.ArchivedMatch{}
	if s.archive != nil {
		rows, err := s.archive.Recent(r.Context(), limit)
		if err != nil {
			s.internalErr(w, "archive list", err)
			return
		}
		for _, row := range rows {
			out = append(out, chessdto.ArchivedMatch{
				ID:        row.ID,
				Ruleset:   row.Ruleset,
				Result:    row.Result,
				Method:    row.Method,
				Moves:     row.Moves,
				StartedAt: row.StartedAt,
				EndedAt:   row.EndedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	mt, err := s.mgr.Get(r.Context(), id)
	if err != nil {
		s.matchErr(w, "ws subscribe", err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		obslog.L().Warn("ws_upgrade_failed", zap.Error(err))
		return
	}
	// The snapshot is queued ahead of any broadcast, so a late
	// subscriber always starts from current state. The hub's writer
	// goroutine owns the connection from here on.
	sub := s.hub.Subscribe(id, conn, chessdto.Event{Type: "state", Match: toState(mt)})
	obslog.L().Info("ws_subscribe", zap.String("match_id", id))

	// Reads only detect the peer going away; the feed is one way.
	go func() {
		defer sub.stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) matchErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		writeErr(w, http.StatusNotFound, s.cat.RenderOr("match.not_found", nil, "no such match"))
	case errors.Is(err, match.ErrMatchFinished):
		writeErr(w, http.StatusConflict, s.cat.RenderOr("match.already_over", nil, "the match is already over"))
	case errors.Is(err, match.ErrIllegalMove):
		writeErr(w, http.StatusUnprocessableEntity, s.cat.RenderOr("match.illegal_move", nil, "illegal move"))
	case errors.Is(err, match.ErrConflict):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		s.internalErr(w, op, err)
	}
}

func (s *Server) internalErr(w http.ResponseWriter, op string, err error) {
	obslog.L().Error("api_error", zap.String("op", op), zap.Error(err))
	writeErr(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, chessdto.ErrorResponse{Error: msg})
}

func toState(m *match.Match) chessdto.MatchState {
	moves := make([]string, len(m.Moves))
	copy(moves, m.Moves)
	return chessdto.MatchState{
		ID:        m.ID,
		Ruleset:   m.Ruleset,
		Moves:     moves,
		Turn:      m.Turn,
		InCheck:   m.InCheck,
		Status:    string(m.Status),
		Winner:    m.Winner,
		Result:    m.Result(),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
