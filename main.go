package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/soundbox/soundbox/cmd"
	"github.com/soundbox/soundbox/internal/audiodev"
	"github.com/soundbox/soundbox/internal/config"
	"github.com/soundbox/soundbox/internal/eventpipe"
	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/soundbox/soundbox/internal/mapping"
	"github.com/soundbox/soundbox/internal/metrics"
	"github.com/soundbox/soundbox/internal/metrics/exporters"
	"github.com/soundbox/soundbox/internal/playback"
	"github.com/soundbox/soundbox/internal/trigger"
	"github.com/soundbox/soundbox/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Serial settings
	SerialPort string `help:"Preferred serial device, empty auto-detects" toml:"serial.port" env:"SERIAL_PORT"`
	SerialBaud int    `help:"Serial line rate" default:"115200" toml:"serial.baud" env:"SERIAL_BAUD"`

	// Sound settings
	SoundsDevice      string `help:"ALSA playback device, empty uses the mapping source then default" toml:"sounds.device" env:"SOUNDS_DEVICE"`
	SoundsPlaceholder string `help:"Sound played for unmapped buttons, empty drops the press" toml:"sounds.placeholder" env:"SOUNDS_PLACEHOLDER"`
	SoundsPlayer      string `help:"Player command template" default:"aplay -q -D {device} {file}" toml:"sounds.player" env:"SOUNDS_PLAYER"`

	// Trigger settings
	TriggerDebounceMs int  `help:"Press debounce window in milliseconds" default:"200" toml:"trigger.debounce_ms" env:"TRIGGER_DEBOUNCE_MS"`
	TriggerMirrorLeds bool `help:"Echo playback state back to the board as LED overrides" default:"false" toml:"trigger.mirror_leds" env:"TRIGGER_MIRROR_LEDS"`

	// Mapping settings
	MappingSource string `help:"Mapping backend (sqlite, toml)" default:"sqlite" toml:"mapping.source" env:"MAPPING_SOURCE"`
	MappingPath   string `help:"Mapping database or TOML file" default:"data/sound_machine.db" toml:"mapping.path" env:"MAPPING_PATH"`

	// Event pipe settings
	PipePath string `help:"Named pipe carrying press and stop events to the LED daemon" default:"/tmp/sound_led_events" toml:"pipe.path" env:"PIPE_PATH"`

	// Metrics settings
	MetricsAddr string `help:"Prometheus exporter listen address, empty disables" toml:"metrics.addr" env:"METRICS_ADDR"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingTrigger  string `help:"Trigger daemon logging level" default:"info" toml:"logging.trigger" env:"LOGGING_TRIGGER"`
	LoggingSerial   string `help:"Serial port logging level" default:"info" toml:"logging.serial" env:"LOGGING_SERIAL"`
	LoggingPlayback string `help:"Playback logging level" default:"info" toml:"logging.playback" env:"LOGGING_PLAYBACK"`
	LoggingMapping  string `help:"Mapping store logging level" default:"info" toml:"logging.mapping" env:"LOGGING_MAPPING"`
	LoggingPipe     string `help:"Event pipe logging level" default:"info" toml:"logging.pipe" env:"LOGGING_PIPE"`
	LoggingLeds     string `help:"LED daemon logging level" default:"info" toml:"logging.leds" env:"LOGGING_LEDS"`
	LoggingChannels string `help:"Channel monitor logging level" default:"info" toml:"logging.channels" env:"LOGGING_CHANNELS"`
	LoggingAudiodev string `help:"Audio device monitor logging level" default:"info" toml:"logging.audiodev" env:"LOGGING_AUDIODEV"`
}

func main() {
	// Create Huma CLI. The default command runs the trigger daemon; the
	// LED and channel daemons are separate subcommands so each hardware
	// concern fails on its own.
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"trigger":  opts.LoggingTrigger,
				"serial":   opts.LoggingSerial,
				"playback": opts.LoggingPlayback,
				"mapping":  opts.LoggingMapping,
				"pipe":     opts.LoggingPipe,
				"leds":     opts.LoggingLeds,
				"channels": opts.LoggingChannels,
				"audiodev": opts.LoggingAudiodev,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		// Open the mapping source. The web admin owns the SQLite schema;
		// this side only reads it.
		store, err := mapping.New(opts.MappingSource, opts.MappingPath)
		if err != nil {
			logger.Error("Failed to open mapping source", "error", err,
				"source", opts.MappingSource, "path", opts.MappingPath)
			os.Exit(1)
		}

		if loadErr := store.Reload(context.Background()); loadErr != nil {
			logger.Warn("Initial mapping load failed, starting with an empty table", "error", loadErr)
		} else {
			logger.Info("Mappings loaded", "buttons", store.Len(), "path", opts.MappingPath)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()
		unbindMetrics := metrics.Bind(eventBus)

		// Reload the table when the web admin rewrites the source
		reloader := mapping.NewReloader(store, opts.MappingPath, eventBus)

		player := playback.NewPlayer(opts.SoundsPlayer, eventBus)

		pipe, err := eventpipe.NewWriter(opts.PipePath)
		if err != nil {
			logger.Error("Failed to create event pipe", "error", err, "path", opts.PipePath)
			os.Exit(1)
		}

		service := trigger.New(trigger.Config{
			Port:           opts.SerialPort,
			Baud:           opts.SerialBaud,
			Device:         opts.SoundsDevice,
			Placeholder:    opts.SoundsPlaceholder,
			DebounceWindow: time.Duration(opts.TriggerDebounceMs) * time.Millisecond,
			MirrorLEDs:     opts.TriggerMirrorLeds,
		}, store, player, pipe, eventBus)

		// Watch the playback device the player will actually use
		device := opts.SoundsDevice
		if device == "" {
			device = store.Device()
		}
		if device == "" {
			device = "default"
		}
		audioMonitor := audiodev.NewMonitor(device, eventBus)

		var metricsServer *exporters.Server
		if opts.MetricsAddr != "" {
			metricsServer = exporters.NewServer(opts.MetricsAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			if startErr := reloader.Start(); startErr != nil {
				logger.Warn("Mapping watcher unavailable, live reload disabled", "error", startErr)
			}

			if metricsServer != nil {
				go func() {
					if serveErr := metricsServer.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
						logger.Error("Metrics exporter failed", "error", serveErr)
					}
				}()
			}

			go audioMonitor.Run(ctx)

			logger.Info("Starting trigger daemon", "version", version.String(),
				"mapping", opts.MappingPath, "pipe", pipe.Path())
			if runErr := service.Run(ctx); runErr != nil {
				logger.Error("Trigger daemon failed", "error", runErr)
				os.Exit(1)
			}
			close(done)
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down trigger daemon")
			cancel()
			<-done

			if stopErr := reloader.Stop(); stopErr != nil {
				logger.Warn("Error stopping mapping watcher", "error", stopErr)
			}
			if metricsServer != nil {
				if stopErr := metricsServer.Stop(); stopErr != nil {
					logger.Warn("Error stopping metrics exporter", "error", stopErr)
				}
			}
			unbindMetrics()
			if closeErr := store.Close(); closeErr != nil {
				logger.Warn("Error closing mapping source", "error", closeErr)
			}
		})
	})

	cli.Root().Version = version.String()

	// Add leds command
	cli.Root().AddCommand(cmd.CreateLedsCmd())

	// Add channels command
	cli.Root().AddCommand(cmd.CreateChannelsCmd())

	// Add peek command
	cli.Root().AddCommand(cmd.CreatePeekCmd())

	// Run the CLI
	cli.Run()
}
