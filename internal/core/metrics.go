package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentilabel_sessions_started_total",
		Help: "Labeling sessions started from file selection or resumed from a snapshot",
	})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentilabel_sessions_completed_total",
		Help: "Labeling sessions whose report was exported",
	})

	labelsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentilabel_labels_submitted_total",
		Help: "Labels submitted, by sentiment",
	}, []string{"sentiment"})

	progressSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentilabel_progress_saves_total",
		Help: "Progress snapshot writes, by result",
	}, []string{"result"})

	transitionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentilabel_transition_errors_total",
		Help: "Failed state machine transitions, by error kind",
	}, []string{"kind"})
)
