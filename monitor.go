package lottery

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics 导入统计快照
type IngestMetrics struct {
	Runs          int64 `json:"runs"`           // 导入批次数
	FailedRuns    int64 `json:"failed_runs"`    // 因存储错误中断的批次数
	Received      int64 `json:"received"`       // 收到的候选数
	Inserted      int64 `json:"inserted"`       // 新增记录数
	Skipped       int64 `json:"skipped"`        // 重复记录数
	Rejected      int64 `json:"rejected"`       // 校验失败数
	StorageErrors int64 `json:"storage_errors"` // 存储错误数
	TotalRunTime  int64 `json:"total_run_time"` // 总耗时(纳秒)
	StartTime     int64 `json:"start_time"`
	LastRunTime   int64 `json:"last_run_time"`
}

// AverageRunTime 获取平均导入耗时
func (m IngestMetrics) AverageRunTime() time.Duration {
	if m.Runs == 0 {
		return 0
	}
	return time.Duration(m.TotalRunTime / m.Runs)
}

// AcceptRate 获取通过校验的候选比例 (百分比)
func (m IngestMetrics) AcceptRate() float64 {
	if m.Received == 0 {
		return 0.0
	}
	return float64(m.Received-m.Rejected) / float64(m.Received) * 100.0
}

// IngestMonitor counts ingestion outcomes with atomics and exposes them as a prometheus.Collector
type IngestMonitor struct {
	runs          atomic.Int64
	failedRuns    atomic.Int64
	received      atomic.Int64
	inserted      atomic.Int64
	skipped       atomic.Int64
	rejected      atomic.Int64
	storageErrors atomic.Int64
	totalRunTime  atomic.Int64
	startTime     atomic.Int64
	lastRunTime   atomic.Int64

	enabled atomic.Bool

	runsDesc     *prometheus.Desc
	recordsDesc  *prometheus.Desc
	errorsDesc   *prometheus.Desc
	durationDesc *prometheus.Desc
}

// NewIngestMonitor 创建新的导入监控器
func NewIngestMonitor() *IngestMonitor {
	m := &IngestMonitor{
		runsDesc: prometheus.NewDesc("lottery_ingest_runs_total",
			"Ingestion runs by result.", []string{"result"}, nil),
		recordsDesc: prometheus.NewDesc("lottery_ingest_records_total",
			"Candidates processed by outcome.", []string{"outcome"}, nil),
		errorsDesc: prometheus.NewDesc("lottery_ingest_storage_errors_total",
			"Storage failures seen during ingestion.", nil, nil),
		durationDesc: prometheus.NewDesc("lottery_ingest_run_seconds_total",
			"Cumulative time spent ingesting.", nil, nil),
	}
	m.enabled.Store(true)
	m.Reset()
	return m
}

// Enable 启用监控
func (m *IngestMonitor) Enable() { m.enabled.Store(true) }

// Disable 禁用监控
func (m *IngestMonitor) Disable() { m.enabled.Store(false) }

// IsEnabled 检查是否启用了监控
func (m *IngestMonitor) IsEnabled() bool { return m.enabled.Load() }

// RecordRun 记录一次导入
func (m *IngestMonitor) RecordRun(report *IngestReport, failed bool) {
	if !m.IsEnabled() || report == nil {
		return
	}

	m.runs.Add(1)
	if failed {
		m.failedRuns.Add(1)
	}
	m.received.Add(int64(report.Received))
	m.inserted.Add(int64(report.Inserted))
	m.skipped.Add(int64(report.Skipped))
	m.rejected.Add(int64(report.Rejected))
	m.totalRunTime.Add(int64(report.Duration()))
	m.lastRunTime.Store(time.Now().UnixNano())
}

// RecordStorageError 记录存储错误
func (m *IngestMonitor) RecordStorageError() {
	if !m.IsEnabled() {
		return
	}
	m.storageErrors.Add(1)
}

// GetMetrics 获取指标快照
func (m *IngestMonitor) GetMetrics() IngestMetrics {
	return IngestMetrics{
		Runs:          m.runs.Load(),
		FailedRuns:    m.failedRuns.Load(),
		Received:      m.received.Load(),
		Inserted:      m.inserted.Load(),
		Skipped:       m.skipped.Load(),
		Rejected:      m.rejected.Load(),
		StorageErrors: m.storageErrors.Load(),
		TotalRunTime:  m.totalRunTime.Load(),
		StartTime:     m.startTime.Load(),
		LastRunTime:   m.lastRunTime.Load(),
	}
}

// Reset 重置指标
func (m *IngestMonitor) Reset() {
	for _, c := range []*atomic.Int64{
		&m.runs, &m.failedRuns, &m.received, &m.inserted, &m.skipped,
		&m.rejected, &m.storageErrors, &m.totalRunTime, &m.lastRunTime,
	} {
		c.Store(0)
	}
	m.startTime.Store(time.Now().UnixNano())
}

// Describe implements prometheus.Collector
func (m *IngestMonitor) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.runsDesc
	ch <- m.recordsDesc
	ch <- m.errorsDesc
	ch <- m.durationDesc
}

// Collect implements prometheus.Collector
func (m *IngestMonitor) Collect(ch chan<- prometheus.Metric) {
	s := m.GetMetrics()

	ch <- prometheus.MustNewConstMetric(m.runsDesc, prometheus.CounterValue, float64(s.Runs-s.FailedRuns), "ok")
	ch <- prometheus.MustNewConstMetric(m.runsDesc, prometheus.CounterValue, float64(s.FailedRuns), "failed")
	ch <- prometheus.MustNewConstMetric(m.recordsDesc, prometheus.CounterValue, float64(s.Inserted), Inserted.String())
	ch <- prometheus.MustNewConstMetric(m.recordsDesc, prometheus.CounterValue, float64(s.Skipped), Skipped.String())
	ch <- prometheus.MustNewConstMetric(m.recordsDesc, prometheus.CounterValue, float64(s.Rejected), "rejected")
	ch <- prometheus.MustNewConstMetric(m.errorsDesc, prometheus.CounterValue, float64(s.StorageErrors))
	ch <- prometheus.MustNewConstMetric(m.durationDesc, prometheus.CounterValue, time.Duration(s.TotalRunTime).Seconds())
}
