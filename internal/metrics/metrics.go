package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vrmentor"

var (
	// RecommendationsTotal counts recommend calls by outcome (ok, empty, error).
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of recommendation requests by outcome",
	}, []string{"outcome"})

	// RetrievalsTotal counts retrievals by the path that produced the items.
	RetrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrievals_total",
		Help:      "Total number of retrievals by source (direct, semantic_bridge, none)",
	}, []string{"source"})

	IndexFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "index_failures_total",
		Help:      "Total number of embedding or vector index failures on the query path",
	})

	ActiveSkills = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_skills",
		Help:      "Number of skills with at least one item edge in the local cache",
	})

	ActiveSkillRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "active_skill_refreshes_total",
		Help:      "Total number of active-skill cache rebuilds by result",
	}, []string{"result"})

	// FallbacksTotal counts LLM fallbacks by stage (understand, rank, decision, final).
	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_fallbacks_total",
		Help:      "Total number of deterministic fallbacks taken after an LLM failure",
	}, []string{"stage"})

	AgentTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_turns_total",
		Help:      "Total number of conversation turns by path (direct, tool, fallback)",
	}, []string{"path"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Latency of recommendation pipeline stages",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)

func RecordRetrieval(source string) {
	RetrievalsTotal.WithLabelValues(source).Inc()
}

func RecordFallback(stage string) {
	FallbacksTotal.WithLabelValues(stage).Inc()
}

func RecordActiveSkillRefresh(size int, err error) {
	if err != nil {
		ActiveSkillRefreshesTotal.WithLabelValues("error").Inc()
		return
	}
	ActiveSkillRefreshesTotal.WithLabelValues("ok").Inc()
	ActiveSkills.Set(float64(size))
}

// ObserveStage is meant to be deferred: defer metrics.ObserveStage("rank", time.Now()).
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
