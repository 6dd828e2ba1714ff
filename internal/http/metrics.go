package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var suggestionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reportcard_suggestion_requests_total",
	Help: "Suggestion requests served, labelled by outcome.",
}, []string{"outcome"})
