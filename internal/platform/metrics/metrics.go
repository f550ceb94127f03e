package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	VotesCast            prometheus.Counter
	VotesRejected        *prometheus.CounterVec
	ProfilesRegistered   prometheus.Counter
	ProfilesVerified     prometheus.Counter
	ElectionsCreated     prometheus.Counter
	TallyRecomputations  prometheus.Counter
	TallyCacheHits       prometheus.Counter
	TallyCacheMisses     prometheus.Counter
	CastVoteDuration     prometheus.Histogram
	RequestLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_votes_cast_total",
			Help: "Total number of votes accepted by the ledger",
		}),
		VotesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "civitas_votes_rejected_total",
			Help: "Total number of rejected cast-vote attempts by reason",
		}, []string{"reason"}),
		ProfilesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_profiles_registered_total",
			Help: "Total number of voter profiles registered",
		}),
		ProfilesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_profiles_verified_total",
			Help: "Total number of profiles transitioned to verified",
		}),
		ElectionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_elections_created_total",
			Help: "Total number of elections created",
		}),
		TallyRecomputations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_tally_recomputations_total",
			Help: "Total number of full tally recomputations",
		}),
		TallyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_tally_cache_hits_total",
			Help: "Total number of tally reads served from the cache",
		}),
		TallyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "civitas_tally_cache_misses_total",
			Help: "Total number of tally reads that fell back to recomputation",
		}),
		CastVoteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "civitas_cast_vote_duration_seconds",
			Help:    "Latency of the full cast-vote operation",
			Buckets: prometheus.DefBuckets,
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civitas_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

func (m *Metrics) IncrementVotesCast() {
	if m == nil {
		return
	}
	m.VotesCast.Inc()
}

func (m *Metrics) IncrementVotesRejected(reason string) {
	if m == nil {
		return
	}
	m.VotesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementProfilesRegistered() {
	if m == nil {
		return
	}
	m.ProfilesRegistered.Inc()
}

func (m *Metrics) IncrementProfilesVerified() {
	if m == nil {
		return
	}
	m.ProfilesVerified.Inc()
}

func (m *Metrics) IncrementElectionsCreated() {
	if m == nil {
		return
	}
	m.ElectionsCreated.Inc()
}

func (m *Metrics) IncrementTallyRecomputations() {
	if m == nil {
		return
	}
	m.TallyRecomputations.Inc()
}

func (m *Metrics) IncrementTallyCacheHits() {
	if m == nil {
		return
	}
	m.TallyCacheHits.Inc()
}

func (m *Metrics) IncrementTallyCacheMisses() {
	if m == nil {
		return
	}
	m.TallyCacheMisses.Inc()
}

func (m *Metrics) ObserveCastVoteDuration(seconds float64) {
	if m == nil {
		return
	}
	m.CastVoteDuration.Observe(seconds)
}

func (m *Metrics) ObserveRequestLatency(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, status).Observe(seconds)
}
