package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig carries everything the server binary reads from the
// environment. RedisURL is required; an empty DatabaseURL keeps the
// archive in memory.
type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	// Ruleset names the rule profile new matches start under: "standard"
	// or "legacy".
	Ruleset string

	// MatchTTLSec bounds how long an idle live match survives in Redis.
	MatchTTLSec int

	// BoardImageSize is the pixel width and height of rendered board PNGs.
	BoardImageSize int

	// MessageDir optionally overrides the embedded message catalog.
	MessageDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     ":8080",
		Ruleset:        "standard",
		MatchTTLSec:    86400,
		BoardImageSize: 480,
	}

	if v := strings.TrimSpace(os.Getenv("CHESSD_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageDir = strings.TrimSpace(os.Getenv("CHESSD_MESSAGE_DIR"))

	if v := strings.TrimSpace(os.Getenv("CHESSD_RULESET")); v != "" {
		cfg.Ruleset = strings.ToLower(v)
	}
	switch cfg.Ruleset {
	case "standard", "legacy":
	default:
		return nil, fmt.Errorf("CHESSD_RULESET must be standard or legacy, got %q", cfg.Ruleset)
	}

	if v := strings.TrimSpace(os.Getenv("CHESSD_MATCH_TTL")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CHESSD_MATCH_TTL must be a positive number of seconds, got %q", v)
		}
		cfg.MatchTTLSec = n
	}

	if v := strings.TrimSpace(os.Getenv("CHESSD_BOARD_IMAGE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 4096 {
			return nil, fmt.Errorf("CHESSD_BOARD_IMAGE_SIZE must be between 64 and 4096, got %q", v)
		}
		cfg.BoardImageSize = n
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}
