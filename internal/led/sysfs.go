package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultSysfsRoot = "/sys/class/leds"

// sysfsOutput drives kernel LED class devices. Duty cycles scale to
// each LED's max_brightness, which is 1 on plain GPIO LEDs and 255 on
// PWM-backed ones.
type sysfsOutput struct {
	root   string
	names  []string
	max    []int
	logger *slog.Logger
}

// newSysfs validates every configured LED up front and detaches it from
// its kernel trigger so brightness writes take effect. An empty root
// means /sys/class/leds.
func newSysfs(root string, names []string, logger *slog.Logger) (*sysfsOutput, error) {
	if root == "" {
		root = defaultSysfsRoot
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no sysfs leds configured")
	}

	out := &sysfsOutput{root: root, names: names, logger: logger}
	for _, name := range names {
		ledPath := filepath.Join(root, name)
		max, err := readMaxBrightness(ledPath)
		if err != nil {
			return nil, fmt.Errorf("led %q: %w", name, err)
		}
		out.max = append(out.max, max)

		triggerPath := filepath.Join(ledPath, "trigger")
		if err := os.WriteFile(triggerPath, []byte("none"), 0o644); err != nil {
			logger.Warn("Could not detach LED trigger", "led", name, "error", err)
		}
	}
	return out, nil
}

func readMaxBrightness(ledPath string) (int, error) {
	data, err := os.ReadFile(filepath.Join(ledPath, "max_brightness"))
	if err != nil {
		return 0, err
	}
	value := strings.TrimSpace(string(data))
	max, err := strconv.Atoi(value)
	if err != nil || max < 1 {
		return 0, fmt.Errorf("bad max_brightness %q", value)
	}
	return max, nil
}

func (o *sysfsOutput) Lines() int { return len(o.names) }

func (o *sysfsOutput) Set(line int, duty float64) error {
	if line < 0 || line >= len(o.names) {
		return fmt.Errorf("led line %d out of range", line)
	}
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}
	value := int(duty/100*float64(o.max[line]) + 0.5)
	path := filepath.Join(o.root, o.names[line], "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return fmt.Errorf("set brightness: %w", err)
	}
	return nil
}

func (o *sysfsOutput) Close() error {
	var firstErr error
	for i := range o.names {
		if err := o.Set(i, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
