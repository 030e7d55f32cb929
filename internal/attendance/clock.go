package attendance

import "time"

// Clock provides the time used for attendance decisions.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
}

// RealClock provides actual system time in the attendance timezone.
type RealClock struct {
	Location *time.Location
}

// Now returns the current system time.
func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// TestClock provides fixed time for testing.
type TestClock struct {
	CurrentTime time.Time
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	return t.CurrentTime
}

// Advance moves the test time forward.
func (t *TestClock) Advance(d time.Duration) {
	t.CurrentTime = t.CurrentTime.Add(d)
}

// Set moves the test time to the given wall-clock time on the current day.
func (t *TestClock) Set(hour, minute, second int) {
	y, m, d := t.CurrentTime.Date()
	t.CurrentTime = time.Date(y, m, d, hour, minute, second, 0, t.CurrentTime.Location())
}
