package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/loop"
	"leafgame/internal/ledger/tuning"
	"leafgame/internal/persistence/indexdb"
	"leafgame/internal/persistence/snapshot"
)

type runtimeIndex interface {
	loop.AuditSink
	Close() error
	UpsertCatalogs(configDir string, cat *catalog.Catalog, tune tuning.Tuning) error
	RecordSnapshot(path string, h snapshot.Header)
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("LG_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "ledger.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported LG_INDEX_BACKEND: %s", backend)
	}
}
