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

	"github.com/soundbox/soundbox/internal/channels"
	"github.com/soundbox/soundbox/internal/config"
	"github.com/soundbox/soundbox/internal/events"
	"github.com/soundbox/soundbox/internal/logging"
	"github.com/spf13/cobra"
)

// channelsOptions feeds the shared config loader. The db key is the same
// one the trigger daemon reads, so both point at the console database.
type channelsOptions struct {
	Config   string
	Db       string `toml:"mapping.path" env:"MAPPING_PATH"`
	Pins     string `toml:"channels.pins" env:"CHANNELS_PINS"`
	Poll     string `toml:"channels.poll" env:"CHANNELS_POLL"`
	Debounce string `toml:"channels.debounce" env:"CHANNELS_DEBOUNCE"`
}

// CreateChannelsCmd creates the channels command.
func CreateChannelsCmd() *cobra.Command {
	var opts channelsOptions
	var logJSON bool

	defaultPins := make([]string, len(channels.DefaultPins))
	for i, pin := range channels.DefaultPins {
		defaultPins[i] = strconv.Itoa(pin)
	}

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Run the channel selector monitor",
		Long: `Polls the rotary channel switch and writes the selected channel into the
console database. The web admin maps each channel to a sound profile; the
trigger daemon picks the change up through its mapping reload.`,
		Run: func(c *cobra.Command, _ []string) {
			if loadErr := config.LoadConfig(&opts, c); loadErr != nil {
				slog.Warn("Failed to load config", "error", loadErr)
			}

			loggingConfig := config.LoadLoggingConfig(opts.Config)
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("channels")

			pins, err := parsePins(opts.Pins)
			if err != nil {
				logger.Error("Bad pin list", "error", err, "pins", opts.Pins)
				os.Exit(1)
			}

			poll, err := time.ParseDuration(opts.Poll)
			if err != nil {
				poll = 0
			}
			debounce, err := time.ParseDuration(opts.Debounce)
			if err != nil {
				debounce = 0
			}

			monitor, err := channels.New(channels.Config{
				DBPath:   opts.Db,
				Pins:     pins,
				Poll:     poll,
				Debounce: debounce,
			}, events.New())
			if err != nil {
				logger.Error("Failed to start channel monitor", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if runErr := monitor.Run(ctx); runErr != nil {
				logger.Error("Channel monitor failed", "error", runErr)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.Db, "db", "data/sound_machine.db", "Console database path")
	cmd.Flags().StringVar(&opts.Pins, "pins", strings.Join(defaultPins, ","), "Comma-separated BCM pins, one per channel")
	cmd.Flags().StringVar(&opts.Poll, "poll", "100ms", "Switch sampling interval")
	cmd.Flags().StringVar(&opts.Debounce, "debounce", "200ms", "How long a new position must hold before it is committed")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
