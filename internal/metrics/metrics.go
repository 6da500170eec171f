package metrics

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Service owns the prometheus registry and every collector of the
// verification pipeline. It carries its own registry so multiple server
// instances can coexist in one process (tests).
type Service struct {
	Registry *prometheus.Registry

	verifyDuration  *prometheus.HistogramVec
	verdictTotal    *prometheus.CounterVec
	replayTotal     *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	endpointErrors  *prometheus.CounterVec
	endpointUp      *prometheus.GaugeVec
	leaseContention prometheus.Counter
	recordConflicts prometheus.Counter
}

// New creates the metrics service and registers all collectors.
func New() *Service {
	registry := prometheus.NewRegistry()

	s := &Service{
		Registry: registry,
		verifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "validation_verify_duration_seconds",
			Help:    "End to end duration of authorize requests.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 5, 10},
		}, []string{"chain_id", "outcome"}),
		verdictTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_verdicts_total",
			Help: "Verdicts by chain, outcome and reason.",
		}, []string{"chain_id", "outcome", "reason"}),
		replayTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_replays_total",
			Help: "Requests answered from the nonce ledger without a chain query.",
		}, []string{"chain_id"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "validation_evidence_fetch_duration_seconds",
			Help:    "Duration of single endpoint evidence fetches.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2},
		}, []string{"chain_id", "domain"}),
		endpointErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "validation_endpoint_errors_total",
			Help: "Endpoint failures by chain, domain and error kind.",
		}, []string{"chain_id", "domain", "kind"}),
		endpointUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "validation_endpoint_up",
			Help: "Healthcheck state of each configured endpoint.",
		}, []string{"chain_id", "domain"}),
		leaseContention: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "validation_lease_contention_total",
			Help: "Reservations refused because the key was already leased.",
		}),
		recordConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "validation_record_conflicts_total",
			Help: "Commits that lost the race against a concurrent writer.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.verifyDuration,
		s.verdictTotal,
		s.replayTotal,
		s.fetchDuration,
		s.endpointErrors,
		s.endpointUp,
		s.leaseContention,
		s.recordConflicts,
	)

	return s
}

func (s *Service) ObserveVerify(chainID uint64, outcome string, d time.Duration) {
	s.verifyDuration.WithLabelValues(chainLabel(chainID), outcome).Observe(d.Seconds())
}

func (s *Service) IncVerdict(chainID uint64, outcome string, reason string) {
	s.verdictTotal.WithLabelValues(chainLabel(chainID), outcome, reason).Inc()
}

func (s *Service) IncReplay(chainID uint64) {
	s.replayTotal.WithLabelValues(chainLabel(chainID)).Inc()
}

func (s *Service) ObserveFetch(chainID uint64, endpoint string, d time.Duration) {
	s.fetchDuration.WithLabelValues(chainLabel(chainID), Domain(endpoint)).Observe(d.Seconds())
}

func (s *Service) IncEndpointError(chainID uint64, endpoint string, kind string) {
	s.endpointErrors.WithLabelValues(chainLabel(chainID), Domain(endpoint), kind).Inc()
}

func (s *Service) SetEndpointUp(chainID uint64, endpoint string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	s.endpointUp.WithLabelValues(chainLabel(chainID), Domain(endpoint)).Set(v)
}

func (s *Service) IncLeaseContention() {
	s.leaseContention.Inc()
}

func (s *Service) IncRecordConflict() {
	s.recordConflicts.Inc()
}

func chainLabel(chainID uint64) string {
	return strconv.FormatUint(chainID, 10)
}

// Domain reduces an endpoint URL to its two-part domain so API keys in paths
// or per-customer subdomains never leak into label values.
func Domain(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "invalid"
	}

	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return host
	}

	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return host
	}

	return strings.Join(parts[len(parts)-2:], ".")
}
