package led

import (
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// DefaultPin is the BCM line the strip switch hangs off on the console
// build.
const DefaultPin = 13

// Config selects and parameterizes the LED backend.
type Config struct {
	// Mode picks the backend: "auto" (default) uses hardware PWM on
	// Raspberry Pi boards and simulation elsewhere, "gpio" forces the
	// PWM backend, "sysfs" drives kernel LED class devices, and "off"
	// disables output entirely.
	Mode string

	// Pins are the BCM numbers driven in gpio mode.
	Pins []int

	// SysfsLEDs are the /sys/class/leds entries driven in sysfs mode.
	SysfsLEDs []string
}

// New picks an LED backend for the config. It never fails: when
// hardware is missing or initialization errors out, the no-op output
// keeps the daemon running in simulation mode.
func New(cfg Config, logger *slog.Logger) Output {
	pins := cfg.Pins
	if len(pins) == 0 {
		pins = []int{DefaultPin}
	}

	switch cfg.Mode {
	case "off":
		logger.Info("LED output disabled by config")
		return newNoop(logger)

	case "gpio":
		return gpioOrNoop(pins, logger)

	case "sysfs":
		out, err := newSysfs("", cfg.SysfsLEDs, logger)
		if err != nil {
			logger.Warn("Sysfs LED init failed, using simulation mode", "error", err)
			return newNoop(logger)
		}
		logger.Info("Driving sysfs LEDs", "leds", cfg.SysfsLEDs)
		return out

	case "", "auto":
		model := detectBoard()
		logger.Info("Detecting board for LED output", "board_model", model)
		if strings.Contains(model, "Raspberry Pi") {
			return gpioOrNoop(pins, logger)
		}
		logger.Info("No LED hardware detected, using simulation mode", "board_model", model)
		return newNoop(logger)

	default:
		logger.Warn("Unknown LED mode, using simulation mode", "mode", cfg.Mode)
		return newNoop(logger)
	}
}

func gpioOrNoop(pins []int, logger *slog.Logger) Output {
	out, err := newRPIO(pins, logger)
	if err != nil {
		logger.Warn("GPIO init failed, using simulation mode", "error", err)
		return newNoop(logger)
	}
	return out
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
