package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/soundbox/soundbox/internal/config"
	"github.com/soundbox/soundbox/internal/eventpipe"
	"github.com/soundbox/soundbox/internal/led"
	"github.com/soundbox/soundbox/internal/leddaemon"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/spf13/cobra"
)

// ledsOptions feeds the shared config loader so the [leds] TOML section
// and SOUNDBOX_LEDS_* env vars apply with the usual precedence.
type ledsOptions struct {
	Config        string
	Pipe          string   `toml:"pipe.path" env:"PIPE_PATH"`
	Variant       string   `toml:"leds.variant" env:"LEDS_VARIANT"`
	Mode          string   `toml:"leds.mode" env:"LEDS_MODE"`
	Pins          string   `toml:"leds.pins" env:"LEDS_PINS"`
	SysfsLeds     []string `toml:"leds.sysfs_leds" env:"LEDS_SYSFS_LEDS"`
	SafetyTimeout string   `toml:"leds.safety_timeout" env:"LEDS_SAFETY_TIMEOUT"`
}

// CreateLedsCmd creates the leds command.
func CreateLedsCmd() *cobra.Command {
	var opts ledsOptions
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "leds",
		Short: "Run the LED animation daemon",
		Long: `Reads press and stop events from the named pipe and drives the button
lamps: an idle animation between plays, a per-button flash while a sound is
playing. Runs as its own process so the lights keep breathing across trigger
daemon restarts.`,
		Run: func(c *cobra.Command, _ []string) {
			if loadErr := config.LoadConfig(&opts, c); loadErr != nil {
				slog.Warn("Failed to load config", "error", loadErr)
			}

			loggingConfig := config.LoadLoggingConfig(opts.Config)
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("leds")

			pins, err := parsePins(opts.Pins)
			if err != nil {
				logger.Error("Bad pin list", "error", err, "pins", opts.Pins)
				os.Exit(1)
			}

			safety, err := time.ParseDuration(opts.SafetyTimeout)
			if err != nil {
				logger.Warn("Bad safety timeout, using default",
					"error", err, "value", opts.SafetyTimeout)
				safety = leddaemon.DefaultSafetyTimeout
			}

			out := led.New(led.Config{
				Mode:      opts.Mode,
				Pins:      pins,
				SysfsLEDs: opts.SysfsLeds,
			}, logger)

			daemon, err := leddaemon.New(leddaemon.Config{
				PipePath:      opts.Pipe,
				Variant:       opts.Variant,
				SafetyTimeout: safety,
			}, out)
			if err != nil {
				logger.Error("Failed to build LED daemon", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if runErr := daemon.Run(ctx); runErr != nil {
				logger.Error("LED daemon failed", "error", runErr)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.Pipe, "pipe", eventpipe.DefaultPath, "Named pipe to read events from")
	cmd.Flags().StringVar(&opts.Variant, "variant", leddaemon.VariantPulse, "Idle animation (pulse, twinkle)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "auto", "LED backend (auto, gpio, sysfs, off)")
	cmd.Flags().StringVar(&opts.Pins, "pins", strconv.Itoa(led.DefaultPin), "Comma-separated BCM pins driven in gpio mode")
	cmd.Flags().StringSliceVar(&opts.SysfsLeds, "sysfs-leds", nil, "Kernel LED class devices driven in sysfs mode")
	cmd.Flags().StringVar(&opts.SafetyTimeout, "safety-timeout", leddaemon.DefaultSafetyTimeout.String(),
		"Idle fallback when no stop event arrives (0 disables)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// parsePins turns a comma-separated pin list into BCM numbers.
func parsePins(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	pins := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pin, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	return pins, nil
}
