package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageCacheLookups counts page cache lookups by outcome (hit, miss, bypass, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_pagecache_lookups_total",
		Help: "Page cache lookups by outcome",
	}, []string{"outcome"})

	// PageCacheClears counts explicit page cache clears.
	PageCacheClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_pagecache_clears_total",
		Help: "Explicit page cache clears",
	})

	// HTTPRequests counts handled requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_http_requests_total",
		Help: "Handled HTTP requests",
	}, []string{"method", "route", "status"})

	// StreamEvents counts events pushed through the stream hub.
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_stream_events_total",
		Help: "Stream hub events by type",
	}, []string{"event_type"})
)
