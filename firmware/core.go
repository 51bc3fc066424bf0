// Button board firmware. The console type is the whole brain: a
// debounced scanner over 16 active-low inputs, four LEDs with an idle
// twinkle and host overrides, and the line protocol to the host. It is
// plain Go so everything interesting runs under host tests; pico.go
// binds it to the RP2040 and sim.go runs it against in-memory pins.
package main

import (
	"math/rand"
	"strings"

	"github.com/soundbox/soundbox/internal/wire"
)

// Loop cadence. The scan pause bounds press latency at 10ms, the LED
// tick paces the twinkle, and the host line cap keeps a chatty host
// from starving the scanner.
const (
	debounceMS   = 50
	scanPauseMS  = 10
	ledTickMS    = 20
	maxHostLines = 2
)

// buttonPins maps button IDs to GP lines. Buttons 1-12 sit on GP2..GP13
// and 13-16 on GP18..GP21, skipping GP14..GP17 which carry the LEDs.
var buttonPins = [wire.NumButtons + 1]int{
	1: 2, 2: 3, 3: 4, 4: 5,
	5: 6, 6: 7, 7: 8, 8: 9,
	9: 10, 10: 11, 11: 12, 12: 13,
	13: 18, 14: 19, 15: 20, 16: 21,
}

// ledPins maps the LED-capable buttons to their GP lines. The LEDs for
// buttons 9 and 15 are swapped on the harness, so this table is
// authoritative, not the pattern.
var ledPins = map[int]int{1: 14, 7: 15, 9: 17, 15: 16}

// ledButtons is the stable drive order for the LED tick.
var ledButtons = []int{1, 7, 9, 15}

// board is what a binding provides: raw input levels, LED drive, and
// the host line transport. readLine must not block.
type board interface {
	levels(into *[wire.NumButtons + 1]bool)
	setLED(button int, on bool)
	readLine() (string, bool)
	writeLine(line string)
}

// overrideMode is the host's claim on an LED.
type overrideMode uint8

const (
	overrideNone overrideMode = iota
	overrideOn
	overrideOff
)

type console struct {
	rng         *rand.Rand
	lastLevel   [wire.NumButtons + 1]bool
	lastPress   [wire.NumButtons + 1]int64 // ms of the last accepted press
	override    [wire.NumButtons + 1]overrideMode
	blinkUntil  [wire.NumButtons + 1]int64
	lastLEDTick int64
	scratch     [wire.NumButtons + 1]bool
}

// newConsole starts with every input idle (pulled high).
func newConsole(rng *rand.Rand) *console {
	c := &console{rng: rng}
	for i := range c.lastLevel {
		c.lastLevel[i] = true
	}
	return c
}

// cycle is one pass of the main loop: up to two host lines, a scan with
// press reports, and the LED tick when due.
func (c *console) cycle(b board, nowMS int64) {
	for i := 0; i < maxHostLines; i++ {
		line, ok := b.readLine()
		if !ok {
			break
		}
		if reply, ok := c.handleLine(line); ok {
			b.writeLine(reply)
		}
	}

	b.levels(&c.scratch)
	for _, id := range c.scan(&c.scratch, nowMS) {
		b.writeLine(wire.FormatPress(id))
	}

	if nowMS-c.lastLEDTick >= ledTickMS {
		c.lastLEDTick = nowMS
		c.ledTick(nowMS, b.setLED)
	}
}

// scan consumes one set of raw levels (index 1..16, true meaning high)
// and returns the buttons whose presses were accepted this cycle. A
// falling edge counts only when the debounce window since that button's
// last accepted press has passed; edges inside the window are dropped,
// though the level is still tracked so the next real press needs a
// fresh edge.
func (c *console) scan(levels *[wire.NumButtons + 1]bool, nowMS int64) []int {
	var pressed []int
	for id := 1; id <= wire.NumButtons; id++ {
		level := levels[id]
		if level == c.lastLevel[id] {
			continue
		}
		c.lastLevel[id] = level
		if level {
			continue
		}
		if nowMS-c.lastPress[id] < debounceMS {
			continue
		}
		c.lastPress[id] = nowMS
		pressed = append(pressed, id)
	}
	return pressed
}

// ledTick advances the lights one tick, calling set once per LED
// button. Overrides win; otherwise each LED gets a 1/64 chance per tick
// of a 20-51ms blink.
func (c *console) ledTick(nowMS int64, set func(button int, on bool)) {
	for _, id := range ledButtons {
		switch c.override[id] {
		case overrideOn:
			set(id, true)
		case overrideOff:
			set(id, false)
		default:
			if nowMS < c.blinkUntil[id] {
				set(id, true)
				continue
			}
			if c.rng.Intn(64) == 0 {
				c.blinkUntil[id] = nowMS + 20 + int64(c.rng.Intn(32))
				set(id, true)
				continue
			}
			set(id, false)
		}
	}
}

// handleLine applies one host line and returns the reply it produces,
// if any. Unparseable input is dropped without an error reply.
func (c *console) handleLine(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	if wire.IsQuery(line) {
		return wire.FormatSnapshot(c.snapshot()), true
	}
	if id, state, ok := wire.ParseLED(line); ok {
		c.applyLED(id, state)
	}
	return "", false
}

// snapshot reports the levels as of the last scan, ordered by button.
func (c *console) snapshot() wire.Snapshot {
	s := make(wire.Snapshot, 0, wire.NumButtons)
	for id := 1; id <= wire.NumButtons; id++ {
		s = append(s, wire.ButtonState{ID: id, Pressed: !c.lastLevel[id]})
	}
	return s
}

// applyLED applies an override to an LED button. State 2 hands the LED
// back to the twinkle, 1 forces on, anything else forces off.
func (c *console) applyLED(id, state int) {
	if _, ok := ledPins[id]; !ok {
		return
	}
	switch state {
	case wire.LEDClear:
		c.override[id] = overrideNone
		c.blinkUntil[id] = 0
	case wire.LEDOn:
		c.override[id] = overrideOn
	default:
		c.override[id] = overrideOff
	}
}
