package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SessionsStarted counts FST sessions created, by role.
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "sessions_started_total",
			Help:      "Total number of FST sessions created",
		},
		[]string{"device", "role"},
	)

	// SessionsConfirmed counts sessions that reached the confirmed state.
	SessionsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "sessions_confirmed_total",
			Help:      "Total number of FST sessions that reached transition confirmed",
		},
		[]string{"device"},
	)

	// SetupsRejected counts setup responses carrying a nonzero status.
	SetupsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "setups_rejected_total",
			Help:      "Total number of FST setup attempts rejected by the peer",
		},
		[]string{"device"},
	)

	// BandSwitches counts completed band switches, by target standard.
	BandSwitches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "band_switches_total",
			Help:      "Total number of completed band switches",
		},
		[]string{"device", "standard"},
	)

	// FramesMigrated counts frames moved between stacks during switches.
	FramesMigrated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "frames_migrated_total",
			Help:      "Total number of queued frames moved to a new stack during a band switch",
		},
		[]string{"device"},
	)

	// ActionFrames counts FST action frames sent and received, by subtype.
	ActionFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fstsim",
			Name:      "action_frames_total",
			Help:      "Total number of FST action frames, by subtype and direction",
		},
		[]string{"device", "subtype", "direction"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent; safe to call from multiple entry points.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(SessionsStarted)
		prometheus.DefaultRegisterer.Register(SessionsConfirmed)
		prometheus.DefaultRegisterer.Register(SetupsRejected)
		prometheus.DefaultRegisterer.Register(BandSwitches)
		prometheus.DefaultRegisterer.Register(FramesMigrated)
		prometheus.DefaultRegisterer.Register(ActionFrames)
	})
}
