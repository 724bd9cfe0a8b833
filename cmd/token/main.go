// Command token mints a bearer token for a user, for local use against the API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ajo/internal/auth"
	"github.com/MrJamesThe3rd/ajo/internal/config"
)

func main() {
	user := flag.String("user", "", "user id to sign for (random when empty)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(true); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	id := uuid.New()
	if *user != "" {
		if id, err = uuid.Parse(*user); err != nil {
			slog.Error("invalid user id", "error", err)
			os.Exit(1)
		}
	}

	token, err := auth.NewManager(cfg.Auth.Secret, cfg.Auth.TTL).Generate(id)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user %s, valid for %s\n", id, cfg.Auth.TTL)
	fmt.Println(token)
}
