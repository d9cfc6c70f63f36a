package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leafgame/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	actor := fs.String("actor", "", "audits: filter by user id")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "audits"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "ledger.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fatal("db", err)
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fatal("open", err)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch q {
	case "audits":
		entries, err := idx.RecentAudits(ctx, *actor, *limit)
		if err != nil {
			fatal("query", err)
		}
		for _, e := range entries {
			printJSON(e)
		}
	case "latest":
		row, ok, err := idx.LatestSnapshot(ctx)
		if err != nil {
			fatal("query", err)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "no snapshots indexed")
			os.Exit(2)
		}
		printJSON(row)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-actor ID] [-limit N] audits|latest")
		os.Exit(2)
	}
}
