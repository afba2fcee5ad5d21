// Package metrics 筛选同步与持久化相关的 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buzzboard"

// Metrics 业务指标集合；nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	draftEdits       prometheus.Counter
	commitsScheduled *prometheus.CounterVec
	commits          prometheus.Counter
	persistWrites    *prometheus.CounterVec
	datasetRows      prometheus.Gauge
}

// New 创建指标并注册到独立的 Registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		draftEdits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "draft_edits_total",
			Help:      "Number of pending filter edits.",
		}),
		commitsScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "commits_scheduled_total",
			Help:      "Number of debounced commits scheduled, by whether they replaced an outstanding one.",
		}, []string{"superseded"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filters",
			Name:      "commits_total",
			Help:      "Number of draft promotions to committed filters.",
		}),
		persistWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persist",
			Name:      "writes_total",
			Help:      "Number of snapshot writes, by result.",
		}, []string{"result"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows in the active dataset.",
		}),
	}
	reg.MustRegister(m.draftEdits, m.commitsScheduled, m.commits, m.persistWrites, m.datasetRows)
	return m
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 底层 Registry（用于测试）
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DraftEdited 草稿编辑计数
func (m *Metrics) DraftEdited() {
	if m == nil {
		return
	}
	m.draftEdits.Inc()
}

// CommitScheduled 防抖任务安排计数
func (m *Metrics) CommitScheduled(superseded bool) {
	if m == nil {
		return
	}
	label := "false"
	if superseded {
		label = "true"
	}
	m.commitsScheduled.WithLabelValues(label).Inc()
}

// Committed 草稿生效计数
func (m *Metrics) Committed() {
	if m == nil {
		return
	}
	m.commits.Inc()
}

// PersistWrite 快照写入计数
func (m *Metrics) PersistWrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.persistWrites.WithLabelValues(result).Inc()
}

// SetDatasetRows 当前数据行数
func (m *Metrics) SetDatasetRows(n int) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(n))
}
