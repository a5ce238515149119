package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// Aggregation summarizes the values of one metric series
type Aggregation struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// Summary is the collected view of a finished run
type Summary struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Failed       int
	Best         *models.TrialResult
	Aggregations map[string]*Aggregation
}

// Collector accumulates trial metrics over a run
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	// metric name -> label key -> running aggregate
	series map[string]map[string]*accumulator
	failed int
	best   *models.TrialResult
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		series:    make(map[string]map[string]*accumulator),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Record records a metric value under the given labels
func (c *Collector) Record(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(name, value, labels)
}

func (c *Collector) recordLocked(name string, value float64, labels map[string]string) {
	key := labelKey(labels)
	if c.series[name] == nil {
		c.series[name] = make(map[string]*accumulator)
	}
	c.add(name, key, value)
	if key != "" {
		// every labelled value also counts towards the unlabelled series
		c.add(name, "", value)
	}
}

func (c *Collector) add(name, key string, value float64) {
	acc := c.series[name][key]
	if acc == nil {
		acc = &accumulator{min: math.Inf(1), max: math.Inf(-1)}
		c.series[name][key] = acc
	}
	acc.add(value)
}

// RecordOutcome records the metrics of one terminal trial
func (c *Collector) RecordOutcome(o models.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.Failed() || o.Result == nil {
		c.failed++
		return
	}
	r := o.Result
	labels := TrialLabels(r.Config)
	c.recordLocked(MetricAccuracy, r.Accuracy, labels)
	c.recordLocked(MetricF1, r.F1, labels)
	c.recordLocked(MetricTrainingSeconds, float64(r.TrainingSeconds), labels)

	if c.best == nil || better(r, c.best) {
		best := *r
		c.best = &best
	}
}

// better orders by accuracy, then F1, then lower ordinal
func better(a, b *models.TrialResult) bool {
	if a.Accuracy != b.Accuracy {
		return a.Accuracy > b.Accuracy
	}
	if a.F1 != b.F1 {
		return a.F1 > b.F1
	}
	return a.Ordinal < b.Ordinal
}

// GetAggregation returns aggregated statistics for a metric, nil if empty
func (c *Collector) GetAggregation(name string, labels map[string]string) *Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	acc := c.series[name][labelKey(labels)]
	if acc == nil || acc.count == 0 {
		return nil
	}
	return acc.aggregation()
}

// Best returns the best completed trial so far
func (c *Collector) Best() (models.TrialResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.best == nil {
		return models.TrialResult{}, false
	}
	return *c.best, true
}

// GetSummary returns a summary of all collected metrics
func (c *Collector) GetSummary() *Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := &Summary{
		StartTime:    c.startTime,
		EndTime:      c.endTime,
		Duration:     c.endTime.Sub(c.startTime),
		Failed:       c.failed,
		Aggregations: make(map[string]*Aggregation),
	}
	if c.best != nil {
		best := *c.best
		summary.Best = &best
	}
	for name, byLabel := range c.series {
		if acc := byLabel[""]; acc != nil && acc.count > 0 {
			summary.Aggregations[name] = acc.aggregation()
		}
	}
	return summary
}

// GetLabelKeys returns the label combinations recorded for a metric
func (c *Collector) GetLabelKeys(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.series[name]))
	for key := range c.series[name] {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// accumulator keeps a series as running sums so memory does not grow with
// the number of trials
type accumulator struct {
	count int
	sum   float64
	sumSq float64
	min   float64
	max   float64
}

func (a *accumulator) add(v float64) {
	a.count++
	a.sum += v
	a.sumSq += v * v
	a.min = math.Min(a.min, v)
	a.max = math.Max(a.max, v)
}

func (a *accumulator) aggregation() *Aggregation {
	n := float64(a.count)
	mean := a.sum / n
	// population variance; clamp rounding below zero
	variance := math.Max(a.sumSq/n-mean*mean, 0)
	return &Aggregation{
		Count:  a.count,
		Mean:   mean,
		Min:    a.min,
		Max:    a.max,
		StdDev: math.Sqrt(variance),
	}
}

// labelKey builds a stable key from labels
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	return b.String()
}
