package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records order lifecycle and settlement activity.
type MarketplaceMetrics struct {
	orderTransitions *prometheus.CounterVec
	payoutsApproved  prometheus.Counter
	returnsCompleted prometheus.Counter
	walletRedeems    *prometheus.CounterVec
	outboxPublished  prometheus.Counter
	outboxFailures   prometheus.Counter
}

// NewMarketplaceMetrics registers the marketplace metrics on the provided registerer.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	orderTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order state transitions by resulting status.",
	}, []string{"status"})
	payoutsApproved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payouts_approved_total",
		Help: "Escrow payouts released to suppliers.",
	})
	returnsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "returns_completed_total",
		Help: "Return requests settled with a refund.",
	})
	walletRedeems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_redeems_total",
		Help: "Wallet top-up code redemptions by outcome.",
	}, []string{"outcome"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events delivered downstream.",
	})
	outboxFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox delivery attempts that failed.",
	})
	reg.MustRegister(orderTransitions, payoutsApproved, returnsCompleted, walletRedeems, outboxPublished, outboxFailures)
	return &MarketplaceMetrics{
		orderTransitions: orderTransitions,
		payoutsApproved:  payoutsApproved,
		returnsCompleted: returnsCompleted,
		walletRedeems:    walletRedeems,
		outboxPublished:  outboxPublished,
		outboxFailures:   outboxFailures,
	}
}

// IncOrderTransition increments the transition counter for the resulting status.
func (m *MarketplaceMetrics) IncOrderTransition(status string) {
	if m == nil || m.orderTransitions == nil {
		return
	}
	m.orderTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncPayoutApproved increments the payout counter.
func (m *MarketplaceMetrics) IncPayoutApproved() {
	if m == nil || m.payoutsApproved == nil {
		return
	}
	m.payoutsApproved.Inc()
}

// IncReturnCompleted increments the completed-return counter.
func (m *MarketplaceMetrics) IncReturnCompleted() {
	if m == nil || m.returnsCompleted == nil {
		return
	}
	m.returnsCompleted.Inc()
}

// IncWalletRedeem increments the redeem counter for the given outcome.
func (m *MarketplaceMetrics) IncWalletRedeem(outcome string) {
	if m == nil || m.walletRedeems == nil {
		return
	}
	m.walletRedeems.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOutboxPublished increments the published-event counter.
func (m *MarketplaceMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailure increments the failed-delivery counter.
func (m *MarketplaceMetrics) IncOutboxFailure() {
	if m == nil || m.outboxFailures == nil {
		return
	}
	m.outboxFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
