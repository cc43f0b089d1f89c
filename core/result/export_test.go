package result

import "time"

// SetNowFunc overrides the clock used to stamp records until reset is called.
func SetNowFunc(f func() time.Time) (reset func()) {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
