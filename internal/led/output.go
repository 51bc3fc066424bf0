// Package led drives the console light hardware. Outputs write duty
// cycles per line; what a line maps to depends on the backend (hardware
// PWM pins, kernel LED class devices, or nothing at all in simulation
// mode).
package led

// Output drives LED brightness lines. Duty cycles run 0 to 100;
// implementations clamp values outside that range.
type Output interface {
	// Lines reports how many lines the output drives.
	Lines() int

	// Set applies a duty cycle to one line.
	Set(line int, duty float64) error

	// Close turns the lines off and releases the hardware.
	Close() error
}
