package leddaemon

import (
	"fmt"
	"math/rand"
	"time"
)

// Animation variants selectable through leds.variant.
const (
	VariantPulse   = "pulse"
	VariantTwinkle = "twinkle"
)

// frame is what an animator needs to render one tick.
type frame struct {
	active   bool
	buttonID int
	elapsed  time.Duration // since the current state was entered
}

// animator renders duty cycles for the light lines. Implementations are
// only ever called from the daemon's animation goroutine.
type animator interface {
	// interval is the tick period the animation is designed around.
	interval() time.Duration

	// restart begins the animation from the top. Called on every state
	// change, including Active re-entry on repeat presses.
	restart()

	// duties renders the next frame, one duty cycle per line.
	duties(f frame, out []float64)
}

// newAnimator picks the variant. Empty means pulse.
func newAnimator(variant string, lines int) (animator, error) {
	switch variant {
	case "", VariantPulse:
		return pulse{}, nil
	case VariantTwinkle:
		return newTwinkle(lines, rand.New(rand.NewSource(time.Now().UnixNano()))), nil
	default:
		return nil, fmt.Errorf("unknown led variant %q", variant)
	}
}

const (
	pulseTick   = 50 * time.Millisecond
	pulsePeriod = 5 * time.Second
	pulseFloor  = 20.0
	pulseCeil   = 100.0
	flashOn     = 100 * time.Millisecond
	flashPeriod = 200 * time.Millisecond
)

// pulse breathes all lines together while idle and hard-flashes them
// while a sound plays. Both shapes are pure functions of elapsed time,
// so restarting is just the daemon resetting its clock.
type pulse struct{}

func (pulse) interval() time.Duration { return pulseTick }

func (pulse) restart() {}

func (pulse) duties(f frame, out []float64) {
	duty := pulseDuty(f.elapsed)
	if f.active {
		duty = flashDuty(f.elapsed)
	}
	for i := range out {
		out[i] = duty
	}
}

// pulseDuty follows a triangle wave, floor to ceiling over the first
// half period and back down over the second.
func pulseDuty(elapsed time.Duration) float64 {
	pos := float64(elapsed%pulsePeriod) / float64(pulsePeriod)
	if pos < 0.5 {
		return pulseFloor + (pulseCeil-pulseFloor)*2*pos
	}
	return pulseCeil - (pulseCeil-pulseFloor)*2*(pos-0.5)
}

func flashDuty(elapsed time.Duration) float64 {
	if elapsed%flashPeriod < flashOn {
		return pulseCeil
	}
	return 0
}

const (
	twinkleTick    = 20 * time.Millisecond
	twinkleChance  = 1.0 / 64
	twinkleMin     = 20 * time.Millisecond
	twinkleMax     = 51 * time.Millisecond
	twinkleFlipMin = 60 * time.Millisecond
	twinkleFlipMax = 140 * time.Millisecond
)

// twinkle lights lines independently: rare short blinks while idle, and
// the pressed button's line trading places with its neighbour on a
// jittered beat while a sound plays. Single-line outputs just blink.
type twinkle struct {
	rng   *rand.Rand
	blink []time.Duration // per line, time left on the current blink
	flip  time.Duration   // active mode, time left in the current phase
	own   bool            // active mode, whether the button's own line is lit
}

func newTwinkle(lines int, rng *rand.Rand) *twinkle {
	return &twinkle{rng: rng, blink: make([]time.Duration, lines)}
}

func (tw *twinkle) interval() time.Duration { return twinkleTick }

func (tw *twinkle) restart() {
	for i := range tw.blink {
		tw.blink[i] = 0
	}
	tw.flip = 0
	tw.own = false
}

func (tw *twinkle) duties(f frame, out []float64) {
	if len(out) == 0 {
		return
	}
	if f.active {
		tw.flip -= twinkleTick
		if tw.flip <= 0 {
			tw.own = !tw.own
			tw.flip = jitter(tw.rng, twinkleFlipMin, twinkleFlipMax)
		}
		a := f.buttonID % len(out)
		b := a + 1
		if b == len(out) {
			b = 0
		}
		for i := range out {
			out[i] = 0
		}
		if tw.own {
			out[a] = pulseCeil
		} else if b != a {
			out[b] = pulseCeil
		}
		return
	}
	for i := range out {
		switch {
		case tw.blink[i] > 0:
			tw.blink[i] -= twinkleTick
			out[i] = pulseCeil
		case tw.rng.Float64() < twinkleChance:
			// The lit frame below counts as the first tick.
			tw.blink[i] = jitter(tw.rng, twinkleMin, twinkleMax) - twinkleTick
			out[i] = pulseCeil
		default:
			out[i] = 0
		}
	}
}

func jitter(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	return lo + time.Duration(rng.Int63n(int64(hi-lo)))
}
