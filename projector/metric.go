package projector

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic counters for a Projector.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// ConnectCount indicates the number of TCP connections opened.
	ConnectCount atomic.Uint64
	// ConnectErrCount indicates the number of failed dials.
	ConnectErrCount atomic.Uint64
	// HandshakeCount indicates the number of completed handshakes.
	HandshakeCount atomic.Uint64
	// HandshakeErrCount indicates the number of failed handshakes.
	HandshakeErrCount atomic.Uint64

	// CommandSendCount indicates the number of commands answered by the projector.
	CommandSendCount atomic.Uint64
	// CommandErrCount indicates the number of commands that returned an error.
	CommandErrCount atomic.Uint64
	// RetryCount indicates the total number of retried attempts.
	RetryCount atomic.Uint64
	// UnmappedCount indicates the number of responses missing from the command table.
	UnmappedCount atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of ConnectionMetrics.
type MetricsSnapshot struct {
	ConnectCount      uint64 `json:"connect_count"`
	ConnectErrCount   uint64 `json:"connect_err_count"`
	HandshakeCount    uint64 `json:"handshake_count"`
	HandshakeErrCount uint64 `json:"handshake_err_count"`
	CommandSendCount  uint64 `json:"command_send_count"`
	CommandErrCount   uint64 `json:"command_err_count"`
	RetryCount        uint64 `json:"retry_count"`
	UnmappedCount     uint64 `json:"unmapped_count"`
}

// Snapshot copies the current counter values.
func (m *ConnectionMetrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		ConnectCount:      m.ConnectCount.Load(),
		ConnectErrCount:   m.ConnectErrCount.Load(),
		HandshakeCount:    m.HandshakeCount.Load(),
		HandshakeErrCount: m.HandshakeErrCount.Load(),
		CommandSendCount:  m.CommandSendCount.Load(),
		CommandErrCount:   m.CommandErrCount.Load(),
		RetryCount:        m.RetryCount.Load(),
		UnmappedCount:     m.UnmappedCount.Load(),
	}
}

func (m *ConnectionMetrics) incConnectCount() {
	m.ConnectCount.Add(1)
}

func (m *ConnectionMetrics) incConnectErrCount() {
	m.ConnectErrCount.Add(1)
}

func (m *ConnectionMetrics) incHandshakeCount() {
	m.HandshakeCount.Add(1)
}

func (m *ConnectionMetrics) incHandshakeErrCount() {
	m.HandshakeErrCount.Add(1)
}

func (m *ConnectionMetrics) incCommandSendCount() {
	m.CommandSendCount.Add(1)
}

func (m *ConnectionMetrics) incCommandErrCount() {
	m.CommandErrCount.Add(1)
}

func (m *ConnectionMetrics) incRetryCount() {
	m.RetryCount.Add(1)
}

func (m *ConnectionMetrics) incUnmappedCount() {
	m.UnmappedCount.Add(1)
}
