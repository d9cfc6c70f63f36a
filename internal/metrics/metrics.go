package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "commands",
			Name:      "total",
			Help:      "Commands handled, by command and result code.",
		},
		[]string{"command", "code"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leafgame",
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Time spent inside the ledger loop per command.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~200ms
		},
		[]string{"command"},
	)

	gachaDraws = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "gacha",
			Name:      "draws_total",
			Help:      "Gacha draws by tier reached (0 is air).",
		},
		[]string{"tier"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "market",
			Name:      "registrations_total",
			Help:      "Share registration attempts.",
		},
		[]string{"result"},
	)

	transferGold = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "market",
			Name:      "transfer_gold_total",
			Help:      "Gold moved across communities, by side.",
		},
		[]string{"side"},
	)

	saves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "ledger",
			Name:      "saves_total",
			Help:      "Snapshot saves.",
		},
		[]string{"result"},
	)

	ledgerUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leafgame",
			Subsystem: "ledger",
			Name:      "users",
			Help:      "Users in the ledger at the last save.",
		},
	)

	ledgerGroups = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leafgame",
			Subsystem: "ledger",
			Name:      "groups",
			Help:      "Communities in the ledger at the last save.",
		},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "leafgame",
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open command gateway connections.",
		},
	)

	dropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "persistence",
			Name:      "dropped_total",
			Help:      "Records dropped because a background queue was full.",
		},
		[]string{"sink"},
	)

	mirrorUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leafgame",
			Subsystem: "mirror",
			Name:      "uploads_total",
			Help:      "Snapshot uploads to object storage.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		commands,
		commandDuration,
		gachaDraws,
		registrations,
		transferGold,
		saves,
		ledgerUsers,
		ledgerGroups,
		wsConnections,
		dropped,
		mirrorUploads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordCommand(command, code string, d time.Duration) {
	if code == "" {
		code = "OK"
	}
	commands.WithLabelValues(command, code).Inc()
	commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func RecordDraw(tier int) { gachaDraws.WithLabelValues(strconv.Itoa(tier)).Inc() }

func RecordRegistration(ok bool) { registrations.WithLabelValues(result(ok)).Inc() }

func RecordTransfer(out, in int) {
	transferGold.WithLabelValues("out").Add(float64(out))
	transferGold.WithLabelValues("in").Add(float64(in))
}

func RecordSave(ok bool, users, groups int) {
	saves.WithLabelValues(result(ok)).Inc()
	if ok {
		ledgerUsers.Set(float64(users))
		ledgerGroups.Set(float64(groups))
	}
}

func ConnOpened() { wsConnections.Inc() }
func ConnClosed() { wsConnections.Dec() }

func RecordDrop(sink string) { dropped.WithLabelValues(sink).Inc() }

func RecordUpload(ok bool) { mirrorUploads.WithLabelValues(result(ok)).Inc() }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
