package channels

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// inputs reads the selector pins. One reading per configured pin, true
// meaning the pin is pulled low (that detent is engaged).
type inputs interface {
	Read() []bool
	Close() error
}

// rpioInputs reads the switch through the memory-mapped GPIO block. The
// pins are pulled up, so an engaged detent shorts its pin to ground.
type rpioInputs struct {
	pins []rpio.Pin
}

func newRPIOInputs(bcm []int) (*rpioInputs, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	pins := make([]rpio.Pin, len(bcm))
	for i, n := range bcm {
		p := rpio.Pin(n)
		p.Input()
		p.PullUp()
		pins[i] = p
	}
	return &rpioInputs{pins: pins}, nil
}

func (g *rpioInputs) Read() []bool {
	states := make([]bool, len(g.pins))
	for i, p := range g.pins {
		states[i] = p.Read() == rpio.Low
	}
	return states
}

func (g *rpioInputs) Close() error {
	for _, p := range g.pins {
		p.PullOff()
	}
	return rpio.Close()
}

// simulated holds the selector on channel 1 so the rest of the stack can
// run on machines without GPIO.
type simulated struct {
	n int
}

func (s simulated) Read() []bool {
	states := make([]bool, s.n)
	if s.n > 0 {
		states[0] = true
	}
	return states
}

func (simulated) Close() error { return nil }
