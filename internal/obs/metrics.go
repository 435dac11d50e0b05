package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions         = promauto.NewGauge(prometheus.GaugeOpts{Name: "wsbridge_active_sessions", Help: "Sessions currently relaying"})
	SessionsTotal          = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsbridge_sessions_total", Help: "Sessions established by target and mode"}, []string{"target", "mode"})
	ErrorsTotal            = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsbridge_errors_total", Help: "Errors by type"}, []string{"type"})
	BytesRelayedTotal      = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsbridge_bytes_relayed_total", Help: "Payload bytes relayed by direction"}, []string{"direction"})
	IgnoredFramesTotal     = promauto.NewCounter(prometheus.CounterOpts{Name: "wsbridge_ignored_frames_total", Help: "Front-end frames dropped because they carry no binary payload"})
	TelnetRepliesTotal     = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsbridge_telnet_replies_total", Help: "Telnet negotiation replies sent to backends by verb"}, []string{"verb"})
	RateLimitedTotal       = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsbridge_rate_limited_total", Help: "Requests refused by admission limits"}, []string{"kind"})
	SessionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{Name: "wsbridge_session_duration_seconds", Help: "Session lifetime seconds", Buckets: prometheus.ExponentialBuckets(0.01, 2, 20)})
)

const (
	DirUpstream   = "front_to_back"
	DirDownstream = "back_to_front"
)
