package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"math/rand"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/commands"
	"leafgame/internal/ledger/gacha"
	"leafgame/internal/ledger/loop"
	"leafgame/internal/ledger/market"
	"leafgame/internal/ledger/model"
	"leafgame/internal/ledger/store"
	"leafgame/internal/ledger/tuning"
	"leafgame/internal/metrics"
	"leafgame/internal/persistence/archive"
	persistlog "leafgame/internal/persistence/log"
	"leafgame/internal/persistence/snapshot"
	"leafgame/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		envFile    = flag.String("env", ".env", "optional dotenv file")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite audit/snapshot index")
		logLevel   = flag.String("log_level", "info", "log level")
		logJSON    = flag.Bool("log_json", false, "log as JSON")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
		keepSnaps  = flag.Int("keep_snapshots", 48, "snapshots to keep on disk (0 keeps all)")
	)
	flag.Parse()

	logger := newLogger(*logLevel, *logJSON)
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithError(err).Warn("load env file")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	cat, err := catalog.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalog: %v", err)
	}

	snapDir := filepath.Join(*dataDir, "snapshots")
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		if snapshotToLoad, err = snapshot.Latest(snapDir); err != nil {
			logger.Fatalf("list snapshots: %v", err)
		}
	}
	led := model.NewLedger()
	if snapshotToLoad != "" {
		h, l, err := snapshot.Read(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		led = l
		logger.WithFields(logrus.Fields{
			"snapshot": filepath.Base(snapshotToLoad),
			"saved_at": h.SavedAt,
			"users":    h.Users,
			"groups":   h.Groups,
		}).Info("resumed from snapshot")
	}

	s := store.New(led)
	mkt := market.New(s, tune, cat)
	draws := gacha.New(tune.GachaProbabilities, cat)
	handler := commands.New(s, mkt, draws, cat, tune, rand.New(rand.NewSource(time.Now().UnixNano())))
	lp := loop.New(s, handler, mkt, logger)

	idx, err := openRuntimeIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cat, tune); err != nil {
			logger.WithError(err).Warn("index backend: upsert catalogs")
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	mirror, err := buildMirrorRuntime(ctx, *dataDir, logger)
	if err != nil {
		logger.Fatalf("init snapshot mirror: %v", err)
	}
	defer mirror.Close()

	writer := snapshot.NewWriter(snapDir, *keepSnaps, logger)
	writer.OnWritten(func(path string, h snapshot.Header) {
		if idx != nil {
			idx.RecordSnapshot(path, h)
		}
		mirror.Enqueue(path)
		if _, archived, ok, err := archive.ArchiveDaily(*dataDir, path, h); err != nil {
			logger.WithError(err).Warn("archive daily snapshot")
		} else if ok {
			mirror.Enqueue(archived)
			mirror.Enqueue(filepath.Join(filepath.Dir(archived), "meta.json"))
		}
	})
	writer.Start()
	lp.SetSnapshotSink(writer.Sink())

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()
	sinks := loop.MultiAudit{auditLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	lp.SetAuditSink(sinks)

	sched := cron.New()
	if err := lp.Schedule(sched, tune); err != nil {
		logger.Fatalf("schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := lp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("ledger loop stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-lp.Done():
			http.Error(rw, "ledger stopped", http.StatusServiceUnavailable)
		default:
			_, _ = rw.Write([]byte("ok"))
		}
	})
	mux.Handle("/metrics", metrics.Handler())

	if envBool("LG_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		registerAdmin(mux, lp)
	} else {
		logger.Info("admin endpoints disabled (LG_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("LG_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(lp, tune.RateLimits, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.WithField("addr", *addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// The loop hands its final snapshot to the writer before Done closes.
	<-lp.Done()
	writer.Close()
	logger.Info("shutdown complete")
}

func registerAdmin(mux *http.ServeMux, lp *loop.Loop) {
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if !adminAllowed(rw, r) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		h, err := lp.RequestSave(ctx)
		writeAdminJSON(rw, err, map[string]any{"saved_at": h.SavedAt, "users": h.Users, "groups": h.Groups})
	})
	mux.HandleFunc("/admin/v1/quota_reset", func(rw http.ResponseWriter, r *http.Request) {
		if !adminAllowed(rw, r) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		n, err := lp.RequestQuotaReset(ctx)
		writeAdminJSON(rw, err, map[string]any{"cleared": n})
	})
}

func adminAllowed(rw http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func writeAdminJSON(rw http.ResponseWriter, err error, body map[string]any) {
	rw.Header().Set("Content-Type", "application/json")
	if err != nil {
		rw.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
		return
	}
	body["ok"] = true
	_ = json.NewEncoder(rw).Encode(body)
}

func newLogger(level string, asJSON bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if asJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
