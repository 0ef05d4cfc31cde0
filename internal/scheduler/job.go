package scheduler

import (
	"context"
	"time"
)

// Job is a unit of periodic work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a six-field cron expression (seconds first) or a descriptor like "@monthly"
	Schedule() string
}

// JobResult is one execution record
type JobResult struct {
	JobName   string        `json:"jobName"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyLimit = 50

// History keeps the most recent results of one job
type History struct {
	results []JobResult
}

func (h *History) add(r JobResult) {
	h.results = append(h.results, r)
	if len(h.results) > historyLimit {
		h.results = h.results[len(h.results)-historyLimit:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *History) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}
	out := make([]JobResult, n)
	copy(out, h.results[len(h.results)-n:])
	return out
}

// Last returns the most recent result
func (h *History) Last() (JobResult, bool) {
	if len(h.results) == 0 {
		return JobResult{}, false
	}
	return h.results[len(h.results)-1], true
}
