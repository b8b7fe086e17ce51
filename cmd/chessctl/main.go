// chessctl drives a chessd server from the command line.
//
// Usage:
//
//	chessctl [-server URL] create [-ruleset standard|legacy]
//	chessctl [-server URL] show MATCH_ID
//	chessctl [-server URL] board MATCH_ID
//	chessctl [-server URL] move MATCH_ID "e2 e4"
//	chessctl [-server URL] resign MATCH_ID white|black
//	chessctl [-server URL] watch MATCH_ID
//	chessctl [-server URL] archive [-limit N]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/karowl/chessd/pkg/chessclient"
	"github.com/karowl/chessd/pkg/chessdto"
)

func main() {
	server := flag.String("server", envOr("CHESSD_URL", "http://localhost:8080"), "chessd server base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fail("missing command; see chessctl -h")
	}

	client := chessclient.NewClient(*server)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch args[0] {
	case "create":
		err = runCreate(ctx, client, args[1:])
	case "show":
		err = runShow(ctx, client, args[1:])
	case "board":
		err = runBoard(ctx, client, args[1:])
	case "move":
		err = runMove(ctx, client, args[1:])
	case "resign":
		err = runResign(ctx, client, args[1:])
	case "watch":
		err = runWatch(client, *server, args[1:])
	case "archive":
		err = runArchive(ctx, client, args[1:])
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		fail(err.Error())
	}
}

func runCreate(ctx context.Context, c *chessclient.Client, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	ruleset := fs.String("ruleset", "", "rule profile for the new match")
	_ = fs.Parse(args)

	st, err := c.CreateMatch(ctx, *ruleset)
	if err != nil {
		return err
	}
	fmt.Printf("match %s created (%s rules), %s to move\n", st.ID, st.Ruleset, st.Turn)
	return nil
}

func runShow(ctx context.Context, c *chessclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("show needs a match id")
	}
	st, err := c.GetMatch(ctx, args[0])
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func runBoard(ctx context.Context, c *chessclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("board needs a match id")
	}
	text, err := c.BoardText(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func runMove(ctx context.Context, c *chessclient.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("move needs a match id and a move like \"e2 e4\"")
	}
	st, err := c.PlayMove(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func runResign(ctx context.Context, c *chessclient.Client, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("resign needs a match id and a color")
	}
	st, err := c.Resign(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func runWatch(c *chessclient.Client, server string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("watch needs a match id")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := chessclient.NewSubscriber(server, args[0], func(ev chessdto.Event) {
		fmt.Printf("[%s] ", ev.Type)
		printState(&ev.Match)
	})
	sub.Start(ctx)
	defer sub.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	return nil
}

func runArchive(ctx context.Context, c *chessclient.Client, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	limit := fs.Int("limit", 20, "number of finished matches to list")
	_ = fs.Parse(args)

	rows, err := c.RecentMatches(ctx, *limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no finished matches")
		return nil
	}
	for _, row := range rows {
		fmt.Printf("%s  %-8s  %-9s  %-10s  %d moves  %s\n",
			row.ID, row.Ruleset, row.Result, row.Method, len(row.Moves),
			row.EndedAt.Format(time.RFC3339))
	}
	return nil
}

func printState(st *chessdto.MatchState) {
	fmt.Printf("match %s [%s] status=%s turn=%s", st.ID, st.Ruleset, st.Status, st.Turn)
	if st.InCheck {
		fmt.Print(" (check)")
	}
	if st.Result != "" {
		fmt.Printf(" result=%s", st.Result)
	}
	if n := len(st.Moves); n > 0 {
		fmt.Printf(" last=%s", st.Moves[n-1])
	}
	fmt.Println()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "chessctl:", msg)
	os.Exit(1)
}
