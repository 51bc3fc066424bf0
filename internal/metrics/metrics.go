// Package metrics provides Prometheus metrics for the sound console
// daemons.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pressesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "presses_total",
		Help:      "Accepted button presses",
	}, []string{"button"})

	pressesDebounced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "presses_debounced_total",
		Help:      "Presses rejected by the host-side debounce window",
	})

	playbackStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "playback_started_total",
		Help:      "Player processes spawned",
	})

	playbackFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "playback_failed_total",
		Help:      "Player spawns that failed or exited non-zero",
	})

	serialReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "serial_reconnects_total",
		Help:      "Serial connects, including reconnects after loss",
	})

	eventPipeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "event_pipe_dropped_total",
		Help:      "LED events dropped because no reader had the pipe open",
	})

	mappingReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "mapping_reloads_total",
		Help:      "Mapping table reloads by result",
	}, []string{"result"})

	audioDevicePresent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundbox",
		Name:      "audio_device_present",
		Help:      "Whether the configured playback device enumerates (1/0)",
	})

	playbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "soundbox",
		Name:      "playback_active",
		Help:      "Whether a player process is currently running (1/0)",
	})

	panicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "soundbox",
		Name:      "panics_recovered_total",
		Help:      "Panics recovered at daemon loop boundaries",
	})
)

// IncPress counts an accepted press of the given button.
func IncPress(button int) {
	pressesTotal.WithLabelValues(strconv.Itoa(button)).Inc()
}

// IncPressDebounced counts a press rejected by the debounce window.
func IncPressDebounced() {
	pressesDebounced.Inc()
}

// IncPlaybackStarted counts a spawned player process.
func IncPlaybackStarted() {
	playbackStarted.Inc()
}

// IncPlaybackFailed counts a failed spawn or a non-zero player exit.
func IncPlaybackFailed() {
	playbackFailed.Inc()
}

// IncSerialReconnect counts a serial connect.
func IncSerialReconnect() {
	serialReconnects.Inc()
}

// IncEventPipeDropped counts an LED event dropped for lack of a reader.
func IncEventPipeDropped() {
	eventPipeDropped.Inc()
}

// IncMappingReload counts a mapping reload by outcome.
func IncMappingReload(ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	mappingReloads.WithLabelValues(result).Inc()
}

// IncPanicRecovered counts a panic recovered at a loop boundary.
func IncPanicRecovered() {
	panicsRecovered.Inc()
}

// SetAudioDevicePresent records whether the configured device enumerates.
func SetAudioDevicePresent(present bool) {
	audioDevicePresent.Set(boolToGauge(present))
}

// SetPlaybackActive records whether a player process is running.
func SetPlaybackActive(active bool) {
	playbackActive.Set(boolToGauge(active))
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
