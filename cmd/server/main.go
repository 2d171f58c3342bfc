package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/Vobludalib/tournament-server/internal/bracket"
	"github.com/Vobludalib/tournament-server/internal/service"
	"github.com/Vobludalib/tournament-server/internal/wire"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	pflag.Parse()
	args := pflag.Args()
	if len(args) > 1 {
		slog.Error("expected at most one argument, a path to a .json tournament document", "args", args)
		os.Exit(1)
	}

	tournament := bracket.New()
	if len(args) == 1 {
		loaded, err := wire.LoadFile(args[0])
		if err != nil {
			slog.Error("failed to load tournament document", "path", args[0], "error", err)
			os.Exit(1)
		}
		tournament = loaded
		slog.Info("tournament document loaded", "path", args[0], "status", tournament.Status())
	}

	svc := service.NewTournamentService(tournament)
	router := newRouter(svc)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	slog.Info("server starting", "addr", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
