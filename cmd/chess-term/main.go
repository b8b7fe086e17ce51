// chess-term is a local two-player game played in the terminal, no server
// required.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/karowl/chessd/internal/match"
	"github.com/karowl/chessd/internal/msgcat"
	"github.com/karowl/chessd/internal/render"
	"github.com/karowl/chessd/internal/rules"
)

func main() {
	rulesetName := flag.String("ruleset", "standard", "rule profile: standard or legacy")
	messageDir := flag.String("messages", "", "optional directory of message override YAML files")
	flag.Parse()

	rs, ok := rules.ParseRuleset(strings.ToLower(*rulesetName))
	if !ok {
		log.Fatalf("unknown ruleset %q (want standard or legacy)", *rulesetName)
	}
	cat, err := msgcat.New(*messageDir)
	if err != nil {
		log.Fatalf("message catalog: %v", err)
	}

	game := &termGame{
		board: rules.NewBoardWith(rs),
		cat:   cat,
		in:    bufio.NewScanner(os.Stdin),
		out:   os.Stdout,
	}
	game.run()
}

type termGame struct {
	board *rules.Board
	cat   *msgcat.Catalog
	in    *bufio.Scanner
	out   *os.File
}

func (g *termGame) run() {
	g.say("game.welcome", nil, "Two player chess. Enter moves as \"e2 e4\".")
	for {
		fmt.Fprintln(g.out)
		fmt.Fprint(g.out, render.Text(g.board))

		turn := g.board.Turn()
		if g.board.IsCheckmate(turn) {
			g.say("game.checkmate", map[string]string{"Winner": turn.Other().DisplayName()}, "Checkmate.")
			return
		}
		if g.board.IsStalemate(turn) {
			g.say("game.stalemate", nil, "Stalemate.")
			return
		}
		if g.board.InCheck(turn) {
			g.say("game.check", map[string]string{"Turn": turn.DisplayName()}, "Check.")
		}

		line, ok := g.prompt(turn)
		if !ok {
			g.say("game.goodbye", nil, "Goodbye.")
			return
		}
		switch strings.ToLower(line) {
		case "quit", "exit":
			g.say("game.goodbye", nil, "Goodbye.")
			return
		case "resign":
			g.say("game.resigned", map[string]string{
				"Loser":  turn.DisplayName(),
				"Winner": turn.Other().DisplayName(),
			}, "Resigned.")
			return
		}

		from, to, err := match.ParseMove(line)
		if err != nil {
			g.say("game.invalid_input", map[string]string{"Reason": err.Error()}, "Could not read that move.")
			continue
		}
		if !g.board.ApplyMove(from, to) {
			g.say("game.move_rejected", nil, "Invalid move, try again.")
		}
	}
}

func (g *termGame) prompt(turn rules.Color) (string, bool) {
	fmt.Fprint(g.out, g.cat.RenderOr("game.prompt",
		map[string]string{"Turn": turn.DisplayName()},
		turn.DisplayName()+"'s move: "))
	if !g.in.Scan() {
		return "", false
	}
	line := strings.TrimSpace(g.in.Text())
	if line == "" {
		return g.prompt(turn)
	}
	return line, true
}

func (g *termGame) say(key string, data map[string]string, fallback string) {
	fmt.Fprintln(g.out, g.cat.RenderOr(key, data, fallback))
}
