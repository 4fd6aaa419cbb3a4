package prefetch

import (
	"sync"
	"sync/atomic"
	"time"
)

// Effective connection types, as reported by the network information API.
const (
	EffectiveSlow2G = "slow-2g"
	Effective2G     = "2g"
	Effective3G     = "3g"
	Effective4G     = "4g"
)

// NetworkHint is a snapshot of the connection quality signals.
type NetworkHint struct {
	SaveData      bool
	EffectiveType string
}

// Constrained reports whether speculative prefetching should be skipped.
func (h NetworkHint) Constrained() bool {
	return h.SaveData || h.EffectiveType == EffectiveSlow2G || h.EffectiveType == Effective2G
}

// NetworkInfo reports the current connection quality. It is asked on every
// trigger firing, so implementations should be cheap.
type NetworkInfo interface {
	Hint() NetworkHint
}

// StaticNetwork is a NetworkInfo that always returns the same hint.
type StaticNetwork NetworkHint

func (n StaticNetwork) Hint() NetworkHint {
	return NetworkHint(n)
}

// Latency thresholds between effective connection types, using the round
// trip boundaries of the network information API.
const (
	slow2GLatency = 2000 * time.Millisecond
	twoGLatency   = 1400 * time.Millisecond
	threeGLatency = 270 * time.Millisecond
)

const defaultLatencyAlpha = 0.3

// LatencyMonitor derives an effective connection type from observed fetch
// latencies, smoothed with an exponentially weighted moving average.
type LatencyMonitor struct {
	mu       sync.Mutex
	alpha    float64
	average  float64
	samples  int
	saveData atomic.Bool
}

// NewLatencyMonitor creates a monitor with no samples. Until the first
// sample arrives the connection is reported as 4g.
func NewLatencyMonitor(saveData bool) *LatencyMonitor {
	m := &LatencyMonitor{alpha: defaultLatencyAlpha}
	m.saveData.Store(saveData)
	return m
}

// Observe records the latency of one completed fetch.
func (m *LatencyMonitor) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.samples == 0 {
		m.average = float64(d)
	} else {
		m.average = m.alpha*float64(d) + (1-m.alpha)*m.average
	}
	m.samples++
}

// SetSaveData toggles the reduced-data preference.
func (m *LatencyMonitor) SetSaveData(v bool) {
	m.saveData.Store(v)
}

// Average returns the smoothed latency, zero without samples.
func (m *LatencyMonitor) Average() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.average)
}

func (m *LatencyMonitor) Hint() NetworkHint {
	m.mu.Lock()
	avg, samples := time.Duration(m.average), m.samples
	m.mu.Unlock()

	hint := NetworkHint{SaveData: m.saveData.Load(), EffectiveType: Effective4G}
	if samples == 0 {
		return hint
	}
	switch {
	case avg >= slow2GLatency:
		hint.EffectiveType = EffectiveSlow2G
	case avg >= twoGLatency:
		hint.EffectiveType = Effective2G
	case avg >= threeGLatency:
		hint.EffectiveType = Effective3G
	}
	return hint
}
