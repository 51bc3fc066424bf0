// Package wire implements the line protocol spoken between the host
// daemons and the button board. Messages are ASCII, one per line:
//
//	P,<id>          board -> host, accepted button press
//	S,<id>,<v> ...  board -> host, state snapshot (response to Q)
//	L,<id>,<state>  host -> board, LED override
//	Q               host -> board, request snapshot
//
// The protocol is deliberately lossy: malformed lines are dropped
// without an error reply on either side. Line formats are part of the
// firmware contract and must stay byte-for-byte stable.
package wire

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NumButtons is the number of buttons on the board.
const NumButtons = 16

// Query requests a state snapshot from the board.
const Query = "Q"

// LED override states carried by L lines. Off and On pre-empt the
// board's idle animation until Clear restores it.
const (
	LEDOff   = 0
	LEDOn    = 1
	LEDClear = 2
)

// pressRE accepts one or two digits with optional trailing whitespace,
// which tolerates CR left over from CRLF serial line endings.
var pressRE = regexp.MustCompile(`^P,(\d{1,2})\s*$`)

// ParsePress extracts the button ID from a press line.
// Returns false for anything that is not a well-formed press.
func ParsePress(line string) (int, bool) {
	m := pressRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// FormatPress renders a press line for the given button.
func FormatPress(id int) string {
	return fmt.Sprintf("P,%d", id)
}

// ParseLED extracts button ID and override state from an L line.
// The state is returned as sent; consumers treat 2 as clear, 1 as on
// and anything else as off, matching the board's behavior.
func ParseLED(line string) (id, state int, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimRight(line, " \r\n"), "L,")
	if !found {
		return 0, 0, false
	}
	idPart, statePart, found := strings.Cut(rest, ",")
	if !found {
		return 0, 0, false
	}
	id, err := strconv.Atoi(idPart)
	if err != nil {
		return 0, 0, false
	}
	state, err = strconv.Atoi(statePart)
	if err != nil {
		return 0, 0, false
	}
	return id, state, true
}

// FormatLED renders an LED override line.
func FormatLED(id, state int) string {
	return fmt.Sprintf("L,%d,%d", id, state)
}

// IsQuery reports whether the line is a snapshot request.
func IsQuery(line string) bool {
	return strings.TrimSpace(line) == Query
}

// ButtonState is one entry of a snapshot. Pressed follows the
// electrical reading: inputs are active low, so 0 on the wire means
// pressed and 1 means idle.
type ButtonState struct {
	ID      int
	Pressed bool
}

// Snapshot is the ordered button state list carried by an S line.
type Snapshot []ButtonState

// Pressed returns the IDs of all buttons reported as pressed.
func (s Snapshot) Pressed() []int {
	var ids []int
	for _, b := range s {
		if b.Pressed {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// ParseSnapshot parses an S line into button states. A single
// malformed pair invalidates the whole line.
func ParseSnapshot(line string) (Snapshot, bool) {
	rest, found := strings.CutPrefix(strings.TrimRight(line, " \r\n"), "S,")
	if !found {
		return nil, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, false
	}
	snapshot := make(Snapshot, 0, len(fields))
	for _, field := range fields {
		idPart, valPart, found := strings.Cut(field, ",")
		if !found {
			return nil, false
		}
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, false
		}
		switch valPart {
		case "0":
			snapshot = append(snapshot, ButtonState{ID: id, Pressed: true})
		case "1":
			snapshot = append(snapshot, ButtonState{ID: id, Pressed: false})
		default:
			return nil, false
		}
	}
	return snapshot, true
}

// FormatSnapshot renders button states as an S line in the given order.
func FormatSnapshot(s Snapshot) string {
	var b strings.Builder
	b.WriteString("S")
	for i, state := range s {
		if i == 0 {
			b.WriteString(",")
		} else {
			b.WriteString(" ")
		}
		val := 1
		if state.Pressed {
			val = 0
		}
		fmt.Fprintf(&b, "%d,%d", state.ID, val)
	}
	return b.String()
}
