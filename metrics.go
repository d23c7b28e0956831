package ramauction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// --- Prometheus Metrics Definition ---

// Metrics contains all the Prometheus metrics for an AuctionSession.
// Encapsulating them in a struct keeps the main session struct clean and organized.
type Metrics struct {
	// --- Tier 1: Critical Session Health & Liveness ---
	LastScannedBlock *prometheus.GaugeVec
	ErrorsTotal      *prometheus.CounterVec

	// --- Tier 2: Performance & Bottleneck Identification ---
	ScanDuration    *prometheus.HistogramVec
	RefreshDuration *prometheus.HistogramVec

	// --- Tier 3: Data & State Integrity ---
	ActiveBids         *prometheus.GaugeVec
	ScansTotal         *prometheus.CounterVec
	UnknownBidEvents   *prometheus.CounterVec
	RefreshesSkipped   *prometheus.CounterVec
	BidsSubmittedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all the Prometheus metrics for the session.
// It takes a prometheus.Registerer to allow for flexible registration (e.g., default vs. custom).
func NewMetrics(reg prometheus.Registerer, sessionName string) *Metrics {
	return &Metrics{
		// --- Tier 1 Metrics ---
		LastScannedBlock: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: sessionName,
			Name:      "auction_session_last_scanned_block",
			Help:      "The block number up to which bid events have been scanned (exclusive cursor).",
		}, []string{}),

		ErrorsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: sessionName,

			Name: "auction_session_errors_total",
			Help: "Total number of errors encountered by the session, labeled by error type.",
		}, []string{"type"}),

		// --- Tier 2 Metrics ---
		ScanDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: sessionName,
			Name:      "auction_session_scan_duration_seconds",
			Help:      "A histogram of the time it takes to run a full bid-ledger scan.",
			Buckets:   prometheus.DefBuckets,
		}, []string{}),

		RefreshDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Subsystem: sessionName,
			Name:      "auction_session_refresh_duration_seconds",
			Help:      "A histogram of the time it takes to refresh the auction summary.",
			Buckets:   prometheus.DefBuckets,
		}, []string{}),

		// --- Tier 3 Metrics ---
		ActiveBids: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: sessionName,
			Name:      "auction_session_active_bids",
			Help:      "The number of live (not removed) bids currently held by the watched account.",
		}, []string{}),

		ScansTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: sessionName,

			Name: "auction_session_scans_total",
			Help: "A counter of completed bid-ledger scans.",
		}, []string{}),

		UnknownBidEvents: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: sessionName,
			Name:      "auction_session_unknown_bid_events_total",
			Help:      "A counter of removal or top-up events observed for bids the ledger never tracked.",
		}, []string{}),

		RefreshesSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: sessionName,
			Name:      "auction_session_refreshes_skipped_total",
			Help:      "A counter of summary refresh ticks skipped because the previous fetch failed.",
		}, []string{}),

		BidsSubmittedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Subsystem: sessionName,
			Name:      "auction_session_bids_submitted_total",
			Help:      "A counter of bid transactions handed to the submitter, labeled by kind.",
		}, []string{"kind"}),
	}
}
