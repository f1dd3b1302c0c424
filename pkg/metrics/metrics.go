package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	LockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_lock_events_total",
		Help: "Locked events handled by the forward pipeline by outcome",
	}, []string{"outcome"})

	ForwardTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_forward_transfers_total",
		Help: "ASA transfers submitted for forward swaps by status",
	}, []string{"status"})

	ForwardProcessingTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relayer_forward_processing_seconds",
		Help:    "Time from dequeuing a lock to ASA confirmation",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s up to ~2 minutes
	})

	ReverseSettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_reverse_settlements_total",
		Help: "Token settlements for reverse swaps by status",
	}, []string{"status"})

	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_poll_ticks_total",
		Help: "Reverse poller ticks by result",
	}, []string{"result"})

	PendingReverseIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_pending_reverse_intents",
		Help: "Whether a reverse intent is being watched",
	})

	SettledSwaps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_settled_swaps",
		Help: "Size of the settled forward swap set",
	})

	QueuedLocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_queued_locks",
		Help: "Lock intents waiting for the forward pipeline",
	})

	SubscriptionRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_subscription_restarts_total",
		Help: "Times the lock log subscription was reopened",
	})

	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relayer_decode_errors_total",
		Help: "Lock logs that could not be decoded",
	})

	Observers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relayer_observers",
		Help: "Connected websocket observers",
	})

	// DroppedEvents counts events that never reached an observer
	DroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_events_dropped_total",
		Help: "Lifecycle events dropped because a queue was full",
	}, []string{"reason"})

	ObserverCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relayer_observer_commands_total",
		Help: "Inbound observer commands by result",
	}, []string{"result"})

	RelayerBalance = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relayer_balance",
		Help: "Relayer holdings in base units by asset",
	}, []string{"chain", "asset"})

	CircuitOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relayer_circuit_open",
		Help: "1 when the circuit breaker for a chain is open",
	}, []string{"chain"})
)
