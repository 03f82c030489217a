package clock

import "time"

// SystemClock reads the wall clock at millisecond precision, the finest
// resolution both directory backends persist.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
