package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FTPMetrics provides observability for the FTP control-connection engine.
//
// Implementations can collect metrics about command dispatch, connection
// lifecycle, and login accounting. The interface is optional - components
// accept nil and fall back to a no-op implementation.
type FTPMetrics interface {
	// RecordCommand records a completed command with its verb, the reply
	// code written, and the handler duration.
	RecordCommand(verb string, replyCode int, duration time.Duration)

	// RecordConnectionAccepted increments the total accepted connections
	// counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections
	// counter.
	RecordConnectionClosed()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordLogin records a successful login.
	RecordLogin(anonymous bool)

	// RecordLoginFailure records a failed login attempt.
	RecordLoginFailure()

	// RecordLogout records a logout or disconnect of a logged-in session.
	RecordLogout(anonymous bool)

	// SetCurrentLogins updates the logged-in session gauges.
	SetCurrentLogins(total, anonymous int32)
}

// ftpMetrics is the Prometheus implementation of FTPMetrics.
type ftpMetrics struct {
	commandsTotal       *prometheus.CounterVec
	commandDuration     *prometheus.HistogramVec
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	activeConnections   prometheus.Gauge
	loginsTotal         *prometheus.CounterVec
	loginFailuresTotal  prometheus.Counter
	logoutsTotal        *prometheus.CounterVec
	currentLogins       prometheus.Gauge
	currentAnonLogins   prometheus.Gauge
}

// NewFTPMetrics creates a new Prometheus-backed FTPMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewFTPMetrics() FTPMetrics {
	if !IsEnabled() {
		return &noopFTPMetrics{}
	}

	reg := GetRegistry()

	return &ftpMetrics{
		commandsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborftp_commands_total",
				Help: "Total number of FTP commands by verb and reply code",
			},
			[]string{"verb", "code"},
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "harborftp_command_duration_seconds",
				Help: "Duration of FTP command handling in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
				},
			},
			[]string{"verb"},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "harborftp_connections_accepted_total",
				Help: "Total number of control connections accepted",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "harborftp_connections_closed_total",
				Help: "Total number of control connections closed",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "harborftp_active_connections",
				Help: "Current number of active control connections",
			},
		),
		loginsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborftp_logins_total",
				Help: "Total number of successful logins by kind",
			},
			[]string{"kind"}, // named or anonymous
		),
		loginFailuresTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "harborftp_login_failures_total",
				Help: "Total number of failed login attempts",
			},
		),
		logoutsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "harborftp_logouts_total",
				Help: "Total number of logouts by kind",
			},
			[]string{"kind"},
		),
		currentLogins: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "harborftp_current_logins",
				Help: "Current number of logged-in sessions",
			},
		),
		currentAnonLogins: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "harborftp_current_anonymous_logins",
				Help: "Current number of anonymous logged-in sessions",
			},
		),
	}
}

func loginKind(anonymous bool) string {
	if anonymous {
		return "anonymous"
	}
	return "named"
}

func (m *ftpMetrics) RecordCommand(verb string, replyCode int, duration time.Duration) {
	m.commandsTotal.WithLabelValues(verb, strconv.Itoa(replyCode)).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

func (m *ftpMetrics) RecordConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *ftpMetrics) RecordConnectionClosed() {
	m.connectionsClosed.Inc()
}

func (m *ftpMetrics) SetActiveConnections(count int32) {
	m.activeConnections.Set(float64(count))
}

func (m *ftpMetrics) RecordLogin(anonymous bool) {
	m.loginsTotal.WithLabelValues(loginKind(anonymous)).Inc()
}

func (m *ftpMetrics) RecordLoginFailure() {
	m.loginFailuresTotal.Inc()
}

func (m *ftpMetrics) RecordLogout(anonymous bool) {
	m.logoutsTotal.WithLabelValues(loginKind(anonymous)).Inc()
}

func (m *ftpMetrics) SetCurrentLogins(total, anonymous int32) {
	m.currentLogins.Set(float64(total))
	m.currentAnonLogins.Set(float64(anonymous))
}

// noopFTPMetrics is a no-op implementation of FTPMetrics with zero overhead.
type noopFTPMetrics struct{}

// NewNoopFTPMetrics returns an FTPMetrics that records nothing.
func NewNoopFTPMetrics() FTPMetrics {
	return &noopFTPMetrics{}
}

func (noopFTPMetrics) RecordCommand(verb string, replyCode int, duration time.Duration) {}
func (noopFTPMetrics) RecordConnectionAccepted()                                        {}
func (noopFTPMetrics) RecordConnectionClosed()                                          {}
func (noopFTPMetrics) SetActiveConnections(count int32)                                 {}
func (noopFTPMetrics) RecordLogin(anonymous bool)                                       {}
func (noopFTPMetrics) RecordLoginFailure()                                              {}
func (noopFTPMetrics) RecordLogout(anonymous bool)                                      {}
func (noopFTPMetrics) SetCurrentLogins(total, anonymous int32)                          {}
