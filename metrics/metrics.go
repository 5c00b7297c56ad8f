package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlanAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafe_plan_analyses_total",
		Help: "Plan analyses by mode and result.",
	}, []string{"mode", "result"})

	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firesafe_push_deliveries_total",
		Help: "Push deliveries by outcome (sent, failed, pruned).",
	}, []string{"result"})

	BlogViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firesafe_blog_views_total",
		Help: "Successful public blog post fetches.",
	})
)
