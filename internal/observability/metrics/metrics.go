package metrics

import "github.com/prometheus/client_golang/prometheus"

// SiteMetrics exposes counters/histograms for the marketing site and
// client portal flows.
type SiteMetrics struct {
	pageTransitions  *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	checkoutsTotal   *prometheus.CounterVec
	paymentIntents   *prometheus.CounterVec
	dashboardLatency *prometheus.HistogramVec
}

func NewSiteMetrics(reg prometheus.Registerer) *SiteMetrics {
	m := &SiteMetrics{
		pageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devcraft",
			Subsystem: "site",
			Name:      "page_transitions_total",
			Help:      "Total page transitions by destination page",
		}, []string{"page"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devcraft",
			Subsystem: "booking",
			Name:      "confirmations_total",
			Help:      "Total booking confirmation attempts",
		}, []string{"call_type", "status"}),
		checkoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devcraft",
			Subsystem: "checkout",
			Name:      "completions_total",
			Help:      "Total completed checkouts by payment provider",
		}, []string{"provider"}),
		paymentIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devcraft",
			Subsystem: "payments",
			Name:      "intents_total",
			Help:      "Total payment intent requests",
		}, []string{"status"}),
		dashboardLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devcraft",
			Subsystem: "portal",
			Name:      "dashboard_fetch_latency_seconds",
			Help:      "Latency of dashboard resource fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.pageTransitions, m.bookingsTotal, m.checkoutsTotal, m.paymentIntents, m.dashboardLatency)
	return m
}

func (m *SiteMetrics) ObservePageTransition(page string) {
	if m == nil {
		return
	}
	m.pageTransitions.WithLabelValues(page).Inc()
}

func (m *SiteMetrics) ObserveBooking(callType, status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(callType, status).Inc()
}

func (m *SiteMetrics) ObserveCheckoutCompleted(provider string) {
	if m == nil {
		return
	}
	m.checkoutsTotal.WithLabelValues(provider).Inc()
}

func (m *SiteMetrics) ObservePaymentIntent(status string) {
	if m == nil {
		return
	}
	m.paymentIntents.WithLabelValues(status).Inc()
}

func (m *SiteMetrics) ObserveDashboardFetch(resource, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dashboardLatency.WithLabelValues(resource, status).Observe(seconds)
}
