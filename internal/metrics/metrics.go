package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CheckoutsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recharge_checkouts_started_total",
	Help: "Checkout orders opened, by credit type.",
}, []string{"type"})

var RechargesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recharge_applied_total",
	Help: "Payments applied to a balance, by source.",
}, []string{"source"})

var RechargesDuplicate = promauto.NewCounter(prometheus.CounterOpts{
	Name: "recharge_duplicate_total",
	Help: "Payments that were already applied when seen again.",
})

var CreditsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recharge_credits_applied_total",
	Help: "Credits added to balances, by credit type.",
}, []string{"type"})

var Failures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recharge_failures_total",
	Help: "Recharge failures, by stage.",
}, []string{"stage"})

var ReconcilePendingOrders = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "recharge_reconcile_pending_orders",
	Help: "Pending recharge orders found by the last reconcile scan.",
})

const (
	StageAuth     = "auth"
	StageBalance  = "balance"
	StageCheckout = "checkout"
	StageOrder    = "order"
	StageApply    = "apply"
	StageNotify   = "notify"
)
