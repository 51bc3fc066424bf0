//go:build !tinygo

package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soundbox/soundbox/internal/wire"
)

// simBoard fakes the pins in memory so the firmware logic can be poked
// at on a dev box. Typing a button number taps that button for a few
// scan cycles; protocol lines (Q, L,<id>,<state>) reach the console as
// if a host daemon sent them. LED changes print as # comments so they
// stand apart from protocol output.
type simBoard struct {
	mu   sync.Mutex
	held [wire.NumButtons + 1]int // scan cycles left pressed

	lines chan string
	eof   chan struct{}

	leds [wire.NumButtons + 1]bool
}

func newSimBoard() *simBoard {
	return &simBoard{
		lines: make(chan string, 16),
		eof:   make(chan struct{}),
	}
}

// feed turns stdin into taps and host lines until EOF.
func (b *simBoard) feed(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if id, err := strconv.Atoi(line); err == nil {
			b.tap(id)
			continue
		}
		b.lines <- line
	}
	close(b.eof)
}

func (b *simBoard) tap(id int) {
	if id < 1 || id > wire.NumButtons {
		return
	}
	b.mu.Lock()
	b.held[id] = 3
	b.mu.Unlock()
}

func (b *simBoard) levels(into *[wire.NumButtons + 1]bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := 1; id <= wire.NumButtons; id++ {
		into[id] = b.held[id] == 0
		if b.held[id] > 0 {
			b.held[id]--
		}
	}
}

func (b *simBoard) setLED(button int, on bool) {
	if b.leds[button] == on {
		return
	}
	b.leds[button] = on
	state := "off"
	if on {
		state = "on"
	}
	fmt.Printf("# led %d %s\n", button, state)
}

func (b *simBoard) readLine() (string, bool) {
	select {
	case line := <-b.lines:
		return line, true
	default:
		return "", false
	}
}

func (b *simBoard) writeLine(line string) {
	fmt.Println(line)
}

// idle reports whether all taps have drained and no host line waits.
func (b *simBoard) idle() bool {
	if len(b.lines) > 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.held {
		if h > 0 {
			return false
		}
	}
	return true
}

func main() {
	fmt.Println("# firmware simulator: type a button number to tap it, Q for a snapshot, L,<id>,<state> for an override")
	b := newSimBoard()
	go b.feed(os.Stdin)

	c := newConsole(rand.New(rand.NewSource(time.Now().UnixNano())))
	start := time.Now()
	ticker := time.NewTicker(scanPauseMS * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-b.eof:
			// Drain pending taps so piped input still prints its presses.
			for !b.idle() {
				<-ticker.C
				c.cycle(b, time.Since(start).Milliseconds())
			}
			return
		case <-ticker.C:
			c.cycle(b, time.Since(start).Milliseconds())
		}
	}
}
