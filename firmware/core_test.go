package main

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/soundbox/soundbox/internal/wire"
)

type fakeBoard struct {
	lvls   [wire.NumButtons + 1]bool
	lines  []string
	writes []string
	ledLog []string
}

func newFakeBoard() *fakeBoard {
	f := &fakeBoard{}
	for i := range f.lvls {
		f.lvls[i] = true
	}
	return f
}

func (f *fakeBoard) levels(into *[wire.NumButtons + 1]bool) { *into = f.lvls }

func (f *fakeBoard) setLED(button int, on bool) {
	f.ledLog = append(f.ledLog, fmt.Sprintf("%d=%t", button, on))
}

func (f *fakeBoard) readLine() (string, bool) {
	if len(f.lines) == 0 {
		return "", false
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, true
}

func (f *fakeBoard) writeLine(line string) { f.writes = append(f.writes, line) }

func (f *fakeBoard) press(id int) { f.lvls[id] = false }

func testConsole() *console {
	return newConsole(rand.New(rand.NewSource(1)))
}

func idleLevels() [wire.NumButtons + 1]bool {
	var lvls [wire.NumButtons + 1]bool
	for i := range lvls {
		lvls[i] = true
	}
	return lvls
}

func TestScanEmitsOnFallingEdge(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()

	if got := c.scan(&lvls, 1000); len(got) != 0 {
		t.Fatalf("idle scan = %v, want none", got)
	}
	lvls[3] = false
	if got := c.scan(&lvls, 1010); len(got) != 1 || got[0] != 3 {
		t.Fatalf("press scan = %v, want [3]", got)
	}
	if got := c.scan(&lvls, 1020); len(got) != 0 {
		t.Fatalf("held button re-reported: %v", got)
	}
	lvls[3] = true
	if got := c.scan(&lvls, 1030); len(got) != 0 {
		t.Fatalf("release reported as press: %v", got)
	}
}

func TestScanDebounceWindow(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()

	lvls[5] = false
	if got := c.scan(&lvls, 1000); len(got) != 1 {
		t.Fatalf("first press = %v", got)
	}
	lvls[5] = true
	c.scan(&lvls, 1010)

	// Bounce inside the window is dropped silently.
	lvls[5] = false
	if got := c.scan(&lvls, 1040); len(got) != 0 {
		t.Fatalf("bounce accepted: %v", got)
	}
	// The dropped edge still updated the level, so holding through the
	// window must not fire late.
	if got := c.scan(&lvls, 1200); len(got) != 0 {
		t.Fatalf("held bounce fired late: %v", got)
	}

	lvls[5] = true
	c.scan(&lvls, 1210)
	lvls[5] = false
	if got := c.scan(&lvls, 1260); len(got) != 1 || got[0] != 5 {
		t.Fatalf("press after the window = %v, want [5]", got)
	}
}

func TestScanDebounceBoundary(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()

	lvls[5] = false
	c.scan(&lvls, 1000)
	lvls[5] = true
	c.scan(&lvls, 1020)
	lvls[5] = false
	if got := c.scan(&lvls, 1050); len(got) != 1 {
		t.Fatalf("edge exactly %dms after the last accept = %v, want accepted", debounceMS, got)
	}
}

func TestScanDropsEdgesRightAfterBoot(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()

	lvls[1] = false
	if got := c.scan(&lvls, 10); len(got) != 0 {
		t.Fatalf("boot-time glitch accepted: %v", got)
	}
	lvls[1] = true
	c.scan(&lvls, 20)
	lvls[1] = false
	if got := c.scan(&lvls, 60); len(got) != 1 {
		t.Fatalf("press after settling = %v, want [1]", got)
	}
}

func TestScanSimultaneousPressesAscend(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()

	lvls[16] = false
	lvls[2] = false
	lvls[9] = false
	got := c.scan(&lvls, 1000)
	if len(got) != 3 || got[0] != 2 || got[1] != 9 || got[2] != 16 {
		t.Fatalf("scan = %v, want [2 9 16]", got)
	}
}

func TestLEDOverrides(t *testing.T) {
	c := testConsole()

	c.applyLED(7, wire.LEDOn)
	calls := map[int]bool{}
	c.ledTick(20, func(b int, on bool) { calls[b] = on })
	if len(calls) != len(ledButtons) {
		t.Fatalf("drove %d LEDs, want %d", len(calls), len(ledButtons))
	}
	if !calls[7] {
		t.Fatal("forced-on LED not driven high")
	}

	c.applyLED(7, wire.LEDOff)
	c.ledTick(40, func(b int, on bool) { calls[b] = on })
	if calls[7] {
		t.Fatal("forced-off LED driven high")
	}

	c.applyLED(7, wire.LEDClear)
	if c.override[7] != overrideNone {
		t.Fatal("clear did not hand the LED back to the twinkle")
	}
}

func TestLEDOverrideIgnoresNonLEDButtons(t *testing.T) {
	c := testConsole()

	c.applyLED(2, wire.LEDOn)
	if c.override[2] != overrideNone {
		t.Fatal("override recorded for a button with no LED")
	}
	c.ledTick(20, func(b int, on bool) {
		if _, ok := ledPins[b]; !ok {
			t.Fatalf("tick drove button %d, which has no LED", b)
		}
	})
}

func TestTwinkleBlinksAreShortAndSparse(t *testing.T) {
	c := testConsole()

	lit := 0
	ticks := 0
	for now := int64(0); now < 100000; now += ledTickMS {
		ticks++
		c.ledTick(now, func(b int, on bool) {
			if on {
				lit++
			}
		})
		for _, id := range ledButtons {
			if c.blinkUntil[id] > now+51 {
				t.Fatalf("blink scheduled %dms out, max is 51ms", c.blinkUntil[id]-now)
			}
		}
	}
	if lit == 0 {
		t.Fatal("twinkle never blinked")
	}
	if lit > ticks*len(ledButtons)/4 {
		t.Fatalf("lit %d of %d samples, twinkle should be sparse", lit, ticks*len(ledButtons))
	}
}

func TestHandleLineQuery(t *testing.T) {
	c := testConsole()
	lvls := idleLevels()
	lvls[4] = false
	c.scan(&lvls, 1000)

	reply, ok := c.handleLine("Q")
	if !ok {
		t.Fatal("query produced no reply")
	}
	snap, parsed := wire.ParseSnapshot(reply)
	if !parsed {
		t.Fatalf("unparseable snapshot %q", reply)
	}
	if len(snap) != wire.NumButtons {
		t.Fatalf("snapshot covers %d buttons, want %d", len(snap), wire.NumButtons)
	}
	if pressed := snap.Pressed(); len(pressed) != 1 || pressed[0] != 4 {
		t.Fatalf("snapshot pressed = %v, want [4]", pressed)
	}
	if !strings.HasPrefix(reply, "S,1,1 ") || !strings.Contains(reply, " 4,0 ") {
		t.Fatalf("snapshot bytes drifted: %q", reply)
	}
}

func TestHandleLineMalformed(t *testing.T) {
	c := testConsole()
	for _, line := range []string{"", "  ", "L,", "L,7", "L,x,1", "L,7,one", "P,3", "QQ", "garbage"} {
		if reply, ok := c.handleLine(line); ok {
			t.Fatalf("line %q produced reply %q", line, reply)
		}
	}
	for id, mode := range c.override {
		if mode != overrideNone {
			t.Fatalf("malformed input set an override on button %d", id)
		}
	}
}

func TestCycleSnapshotIsAsOfLastScan(t *testing.T) {
	f := newFakeBoard()
	f.lines = []string{"Q"}
	f.press(5)
	c := testConsole()

	c.cycle(f, 1000)
	if len(f.writes) != 2 {
		t.Fatalf("writes = %v, want snapshot then press", f.writes)
	}
	snap, _ := wire.ParseSnapshot(f.writes[0])
	if len(snap.Pressed()) != 0 {
		t.Fatalf("snapshot should predate this cycle's scan: %q", f.writes[0])
	}
	if f.writes[1] != "P,5" {
		t.Fatalf("press line = %q, want %q", f.writes[1], "P,5")
	}

	f.lines = []string{"Q"}
	c.cycle(f, 1010)
	snap, _ = wire.ParseSnapshot(f.writes[2])
	if pressed := snap.Pressed(); len(pressed) != 1 || pressed[0] != 5 {
		t.Fatalf("held button missing from snapshot: %q", f.writes[2])
	}
}

func TestCycleReadsAtMostTwoLines(t *testing.T) {
	f := newFakeBoard()
	f.lines = []string{"Q", "Q", "Q"}
	c := testConsole()

	c.cycle(f, 1000)
	if len(f.writes) != 2 {
		t.Fatalf("first cycle answered %d queries, want 2", len(f.writes))
	}
	c.cycle(f, 1010)
	if len(f.writes) != 3 {
		t.Fatalf("second cycle should drain the third query, writes = %d", len(f.writes))
	}
}

func TestCycleLEDTickCadence(t *testing.T) {
	f := newFakeBoard()
	c := testConsole()

	for _, now := range []int64{0, 10, 20, 30, 40} {
		c.cycle(f, now)
	}
	if len(f.ledLog) != 2*len(ledButtons) {
		t.Fatalf("led writes = %d, want %d (two ticks)", len(f.ledLog), 2*len(ledButtons))
	}
}

func TestPinTables(t *testing.T) {
	for id := 1; id <= 12; id++ {
		if buttonPins[id] != id+1 {
			t.Errorf("button %d on GP%d, want GP%d", id, buttonPins[id], id+1)
		}
	}
	for i, id := range []int{13, 14, 15, 16} {
		if buttonPins[id] != 18+i {
			t.Errorf("button %d on GP%d, want GP%d", id, buttonPins[id], 18+i)
		}
	}
	// Buttons 9 and 15 have their LEDs swapped on the harness.
	want := map[int]int{1: 14, 7: 15, 9: 17, 15: 16}
	for id, gp := range want {
		if ledPins[id] != gp {
			t.Errorf("led for button %d on GP%d, want GP%d", id, ledPins[id], gp)
		}
	}
}
