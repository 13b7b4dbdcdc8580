// Package metrics provides the bounded performance-sample recorder and its
// publishing plumbing.
package metrics

import (
	"sync"
	"time"

	"github.com/ecoloop/greenrank/internal/types"
)

const defaultBufferSize = 1000

// Aggregates summarizes the samples recorded for one operation.
type Aggregates struct {
	MeanDuration     time.Duration `json:"meanDuration"`
	MeanPayloadBytes float64       `json:"meanPayloadBytes"`
	CallCount        int           `json:"callCount"`
	CacheHitRate     float64       `json:"cacheHitRate"`
}

// Recorder keeps the most recent performance samples in a fixed-size ring
// buffer. Insertion is O(1); once full, the oldest sample is silently
// dropped. A zero-valued Aggregates with CallCount=0 means "no data", not
// an error.
type Recorder struct {
	mu    sync.RWMutex
	buf   []types.PerformanceSample
	idx   int
	count int
}

// NewRecorder creates a recorder holding up to size samples.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Recorder{buf: make([]types.PerformanceSample, size)}
}

// Record appends a sample, overwriting the oldest once the buffer is full.
func (r *Recorder) Record(s types.PerformanceSample) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	r.mu.Lock()
	r.buf[r.idx] = s
	r.idx = (r.idx + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

// Query returns retained samples for operation, oldest first. An empty
// operation returns everything.
func (r *Recorder) Query(operation string) []types.PerformanceSample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.PerformanceSample, 0, r.count)
	for i := 0; i < r.count; i++ {
		s := r.at(i)
		if operation == "" || s.Operation == operation {
			out = append(out, s)
		}
	}
	return out
}

// Averages computes aggregates over the retained samples for operation.
func (r *Recorder) Averages(operation string) Aggregates {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var agg Aggregates
	var totalDur time.Duration
	var totalBytes int
	hits := 0

	for i := 0; i < r.count; i++ {
		s := r.at(i)
		if operation != "" && s.Operation != operation {
			continue
		}
		agg.CallCount++
		totalDur += s.Duration
		totalBytes += s.PayloadBytes
		if s.CacheHit {
			hits++
		}
	}

	if agg.CallCount == 0 {
		return agg
	}

	agg.MeanDuration = totalDur / time.Duration(agg.CallCount)
	agg.MeanPayloadBytes = float64(totalBytes) / float64(agg.CallCount)
	agg.CacheHitRate = float64(hits) / float64(agg.CallCount)
	return agg
}

// Operations returns the distinct operation names currently retained.
func (r *Recorder) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var ops []string
	for i := 0; i < r.count; i++ {
		op := r.at(i).Operation
		if _, ok := seen[op]; !ok {
			seen[op] = struct{}{}
			ops = append(ops, op)
		}
	}
	return ops
}

// at returns the i-th oldest retained sample. Callers hold r.mu.
func (r *Recorder) at(i int) types.PerformanceSample {
	if r.count < len(r.buf) {
		return r.buf[i]
	}
	return r.buf[(r.idx+i)%len(r.buf)]
}
