package forecast

import "cloud.google.com/go/civil"

// DayOffset returns the number of whole days from anchor to end. It is negative
// when end is before anchor.
func DayOffset(anchor, end civil.Date) int {
	return end.DaysSince(anchor)
}
