//go:build tinygo

package main

import (
	"machine"
	"math/rand"
	"time"

	"github.com/soundbox/soundbox/internal/wire"
)

// watchdogMS resets the board when the main loop wedges for 8 seconds.
const watchdogMS = 8000

// picoBoard binds the console to the RP2040: pulled-up button inputs,
// LED outputs, and the USB serial to the host.
type picoBoard struct {
	buttons [wire.NumButtons + 1]machine.Pin
	leds    map[int]machine.Pin
	line    []byte
}

func newPicoBoard() *picoBoard {
	b := &picoBoard{leds: make(map[int]machine.Pin, len(ledPins))}
	for id := 1; id <= wire.NumButtons; id++ {
		pin := machine.Pin(buttonPins[id])
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		b.buttons[id] = pin
	}
	for id, gp := range ledPins {
		pin := machine.Pin(gp)
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
		b.leds[id] = pin
	}
	return b
}

func (b *picoBoard) levels(into *[wire.NumButtons + 1]bool) {
	for id := 1; id <= wire.NumButtons; id++ {
		into[id] = b.buttons[id].Get()
	}
}

func (b *picoBoard) setLED(button int, on bool) {
	if pin, ok := b.leds[button]; ok {
		pin.Set(on)
	}
}

// readLine drains buffered serial bytes and returns a line once a
// newline arrives. Never blocks.
func (b *picoBoard) readLine() (string, bool) {
	for machine.Serial.Buffered() > 0 {
		ch, err := machine.Serial.ReadByte()
		if err != nil {
			break
		}
		if ch == '\n' {
			line := string(b.line)
			b.line = b.line[:0]
			return line, true
		}
		b.line = append(b.line, ch)
		if len(b.line) > 64 {
			// Runaway line with no terminator, drop it.
			b.line = b.line[:0]
		}
	}
	return "", false
}

func (b *picoBoard) writeLine(line string) {
	machine.Serial.Write([]byte(line))
	machine.Serial.Write([]byte{'\n'})
}

func main() {
	b := newPicoBoard()
	c := newConsole(rand.New(rand.NewSource(seed())))

	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogMS})
	machine.Watchdog.Start()

	b.writeLine("soundbox firmware started")
	start := time.Now()
	for {
		machine.Watchdog.Update()
		c.cycle(b, time.Since(start).Milliseconds())
		time.Sleep(scanPauseMS * time.Millisecond)
	}
}

func seed() int64 {
	if v, err := machine.GetRNG(); err == nil {
		return int64(v)
	}
	return 1
}
