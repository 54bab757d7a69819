package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beautybox",
			Name:      "dispatcher_intents_total",
			Help:      "Chat messages classified, by intent.",
		},
		[]string{"intent"},
	)

	fallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beautybox",
			Name:      "dispatcher_canned_fallback_total",
			Help:      "Replies that fell back to a canned line, by reason.",
		},
		[]string{"reason"},
	)

	ordersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beautybox",
			Name:      "orders_created_total",
			Help:      "Orders appended to history, by kind.",
		},
		[]string{"kind"},
	)
)
