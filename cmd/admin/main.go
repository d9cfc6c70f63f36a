package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"leafgame/internal/ledger/model"
	persistlog "leafgame/internal/persistence/log"
	"leafgame/internal/persistence/snapshot"
)

const usage = `usage: admin <command> [flags]

  list        list snapshots in the data dir
  inspect     print a snapshot header and totals
  user        print one user from a snapshot
  group       print one community from a snapshot
  audit       print entries from hourly audit files
  db          query the sqlite index (audits|latest)
  snapshot    ask a running server to save now
  quota_reset ask a running server to reset transfer quotas`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "list":
		listCmd(args)
	case "inspect":
		inspectCmd(args)
	case "user":
		userCmd(args)
	case "group":
		groupCmd(args)
	case "audit":
		auditCmd(args)
	case "db":
		dbCmd(args)
	case "snapshot":
		postCmd("snapshot", "/admin/v1/snapshot", args)
	case "quota_reset":
		postCmd("quota_reset", "/admin/v1/quota_reset", args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	all, err := snapshot.List(filepath.Join(*dataDir, "snapshots"))
	if err != nil {
		fatal("list", err)
	}
	for _, p := range all {
		h, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Printf("%s\t<unreadable: %v>\n", filepath.Base(p), err)
			continue
		}
		fmt.Printf("%s\t%s\tusers=%d groups=%d\n", filepath.Base(p), h.SavedAt.Format("2006-01-02 15:04:05"), h.Users, h.Groups)
	}
}

// loadSnapshot reads -snapshot, or the newest snapshot under -data.
func loadSnapshot(fs *flag.FlagSet, args []string) (snapshot.Header, *model.Ledger) {
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		var err error
		if path, err = snapshot.Latest(filepath.Join(*dataDir, "snapshots")); err != nil {
			fatal("latest", err)
		}
		if path == "" {
			fmt.Fprintln(os.Stderr, "no snapshots found")
			os.Exit(2)
		}
	}
	h, l, err := snapshot.Read(path)
	if err != nil {
		fatal("read snapshot", err)
	}
	return h, l
}

func inspectCmd(args []string) {
	h, l := loadSnapshot(flag.NewFlagSet("inspect", flag.ExitOnError), args)
	stocks := 0
	for _, g := range l.Groups {
		if g.Stock != nil {
			stocks++
		}
	}
	printJSON(map[string]any{
		"header": h,
		"users":  len(l.Users),
		"groups": len(l.Groups),
		"stocks": stocks,
	})
}

func userCmd(args []string) {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	id := fs.String("id", "", "user id")
	_, l := loadSnapshot(fs, args)
	u, ok := l.Users[*id]
	if !ok {
		fmt.Fprintln(os.Stderr, "user not found:", *id)
		os.Exit(1)
	}
	printJSON(u)
}

func groupCmd(args []string) {
	fs := flag.NewFlagSet("group", flag.ExitOnError)
	id := fs.String("id", "", "group id")
	_, l := loadSnapshot(fs, args)
	g, ok := l.Groups[*id]
	if !ok {
		fmt.Fprintln(os.Stderr, "group not found:", *id)
		os.Exit(1)
	}
	printJSON(g)
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	actor := fs.String("actor", "", "only entries from this user")
	command := fs.String("command", "", "only entries for this command")
	_ = fs.Parse(args)

	files, err := filepath.Glob(filepath.Join(*dataDir, "audit", "audit-*.jsonl.zst"))
	if err != nil {
		fatal("glob", err)
	}
	sort.Strings(files)
	for _, f := range files {
		entries, err := persistlog.ReadAudits(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(f), err)
		}
		for _, e := range entries {
			if *actor != "" && e.Actor != *actor {
				continue
			}
			if *command != "" && e.Command != *command {
				continue
			}
			printJSON(e)
		}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
