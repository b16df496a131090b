package client

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/NicolasHaas/gowallet/pkg/flow"
	"github.com/NicolasHaas/gowallet/pkg/model"
)

// Metrics tracks client runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	Requests         atomic.Int64 // completed API round trips
	RequestErrors    atomic.Int64 // transport failures and non-2xx answers
	AuthFailures     atomic.Int64 // 401 answers and calls attempted while signed out
	Logins           atomic.Int64
	Logouts          atomic.Int64
	TransfersTried   atomic.Int64 // transfers that passed local checks
	TransfersOK      atomic.Int64
	TransfersFailed  atomic.Int64
	TransfersUnclear atomic.Int64 // accepted without a confirmed balance
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	Requests      int64 `json:"requests"`
	RequestErrors int64 `json:"request_errors"`
	AuthFailures  int64 `json:"auth_failures"`
	Logins        int64 `json:"logins"`
	Logouts       int64 `json:"logouts"`

	TransfersTried   int64 `json:"transfers_tried"`
	TransfersOK      int64 `json:"transfers_ok"`
	TransfersFailed  int64 `json:"transfers_failed"`
	TransfersUnclear int64 `json:"transfers_unclear"`
}

// Snapshot returns a snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:           uptime.Truncate(time.Second).String(),
		UptimeSeconds:    int64(uptime.Seconds()),
		Requests:         m.Requests.Load(),
		RequestErrors:    m.RequestErrors.Load(),
		AuthFailures:     m.AuthFailures.Load(),
		Logins:           m.Logins.Load(),
		Logouts:          m.Logouts.Load(),
		TransfersTried:   m.TransfersTried.Load(),
		TransfersOK:      m.TransfersOK.Load(),
		TransfersFailed:  m.TransfersFailed.Load(),
		TransfersUnclear: m.TransfersUnclear.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Debug("metrics",
		"uptime", s.Uptime,
		"requests", s.Requests,
		"request_errors", s.RequestErrors,
		"auth_failures", s.AuthFailures,
		"transfers_ok", s.TransfersOK,
		"transfers_failed", s.TransfersFailed,
		"transfers_unclear", s.TransfersUnclear,
	)
}

// observeRequest is installed as the API client's request observer.
func (m *Metrics) observeRequest(_ string, _ int, err error) {
	m.Requests.Add(1)
	if err != nil {
		m.RequestErrors.Add(1)
	}
}

// observeTransfer is installed as the dashboard's submit hook.
func (m *Metrics) observeTransfer(res flow.Result) {
	switch res.Kind {
	case flow.Success:
		m.TransfersTried.Add(1)
		m.TransfersOK.Add(1)
	case flow.Warning:
		m.TransfersTried.Add(1)
		m.TransfersUnclear.Add(1)
	case flow.Error:
		// Local check failures never reach the server and are not counted.
		if res.Err != nil && !errors.Is(res.Err, model.ErrInvalidAmount) && !errors.Is(res.Err, model.ErrPINFormat) {
			m.TransfersTried.Add(1)
			m.TransfersFailed.Add(1)
		}
	}
}
