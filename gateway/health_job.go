package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/tripgate/tripgate/logger"
)

// BackendStatus is the last observed state of one backend service.
type BackendStatus struct {
	Up        bool      `json:"up"`
	LatencyMs int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthJob probes each backend's /healthz on a schedule and keeps the
// last result for the gateway's own health endpoint.
type HealthJob struct {
	client   *http.Client
	backends map[string]string

	mu     sync.RWMutex
	status map[string]BackendStatus
}

func NewHealthJob(backends map[string]string, timeout time.Duration) *HealthJob {
	return &HealthJob{
		client:   &http.Client{Timeout: timeout},
		backends: backends,
		status:   make(map[string]BackendStatus),
	}
}

// Run checks every backend once. Satisfies cron.Job.
func (j *HealthJob) Run() {
	for name, baseURL := range j.backends {
		started := time.Now()
		up := j.probe(baseURL)
		latency := time.Since(started)

		j.mu.Lock()
		j.status[name] = BackendStatus{
			Up:        up,
			LatencyMs: latency.Milliseconds(),
			CheckedAt: started,
		}
		j.mu.Unlock()

		if up {
			logger.Debugf("backend %s healthy (%s)", name, latency)
		} else {
			logger.Warningf("backend %s is down", name)
		}
	}
}

func (j *HealthJob) probe(baseURL string) bool {
	resp, err := j.client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Snapshot returns a copy of the last results.
func (j *HealthJob) Snapshot() map[string]BackendStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[string]BackendStatus, len(j.status))
	for name, st := range j.status {
		out[name] = st
	}
	return out
}
