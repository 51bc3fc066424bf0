package led

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

// Hardware PWM runs at 1kHz with one duty step per percent, the rate
// the strip switch was driven at on the original wiring.
const (
	pwmCycle   = 100
	pwmClockHz = 100000
)

// rpioOutput drives LED lines through the BCM hardware PWM. Only pins
// 12, 13, 18 and 19 are PWM-capable on the 40-pin header.
type rpioOutput struct {
	pins   []rpio.Pin
	logger *slog.Logger
}

func newRPIO(pins []int, logger *slog.Logger) (*rpioOutput, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	out := &rpioOutput{logger: logger}
	for _, number := range pins {
		pin := rpio.Pin(number)
		pin.Mode(rpio.Pwm)
		pin.Freq(pwmClockHz)
		pin.DutyCycle(0, pwmCycle)
		out.pins = append(out.pins, pin)
	}
	logger.Info("Hardware PWM initialized", "pins", pins)
	return out, nil
}

func (o *rpioOutput) Lines() int { return len(o.pins) }

func (o *rpioOutput) Set(line int, duty float64) error {
	if line < 0 || line >= len(o.pins) {
		return fmt.Errorf("led line %d out of range", line)
	}
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}
	o.pins[line].DutyCycle(uint32(duty+0.5), pwmCycle)
	return nil
}

// Close parks every line low and unmaps the GPIO range.
func (o *rpioOutput) Close() error {
	for _, pin := range o.pins {
		pin.DutyCycle(0, pwmCycle)
		pin.Mode(rpio.Output)
		pin.Low()
	}
	return rpio.Close()
}
