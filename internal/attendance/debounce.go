package attendance

import "github.com/kozaktomas/face-attendance/internal/constants"

// NoFace is the guess reported for a frame without a usable face.
const NoFace = "no-face"

// DefaultDebounceFrames is the number of repeats needed to stabilize an identity.
const DefaultDebounceFrames = 10

// Debouncer turns per-frame identity guesses into stabilized identities.
// It is owned by a single recognition loop and is not safe for concurrent use.
type Debouncer struct {
	threshold int
	previous  string
	count     int
}

// NewDebouncer creates a debouncer emitting after threshold repeats.
func NewDebouncer(threshold int) *Debouncer {
	if threshold < 1 {
		threshold = DefaultDebounceFrames
	}
	return &Debouncer{threshold: threshold}
}

// Observe feeds one guess. It returns the identity and true exactly when the
// guess has repeated threshold times since it first appeared or since the
// previous emission; the run then starts over. The first appearance does not
// count, so with threshold K the first emission is on frame K+1 of a run and
// later ones every K frames.
func (d *Debouncer) Observe(guess string) (string, bool) {
	if guess == d.previous {
		d.count++
	} else {
		d.count = 0
		d.previous = guess
	}

	if !Identifiable(guess) {
		d.count = 0
		return "", false
	}

	if d.count == d.threshold {
		d.count = 0
		return guess, true
	}
	return "", false
}

// Reset clears the run, as at session start.
func (d *Debouncer) Reset() {
	d.previous = ""
	d.count = 0
}

// State returns the current (previous identity, consecutive count).
func (d *Debouncer) State() (string, int) {
	return d.previous, d.count
}

// Identifiable reports whether a guess names someone.
func Identifiable(guess string) bool {
	return guess != "" && guess != NoFace && guess != constants.UnknownLabel
}
