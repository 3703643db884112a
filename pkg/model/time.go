package model

import "time"

// NormalizeTime converts t to UTC at the millisecond precision the store keeps.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func SameInstant(a, b time.Time) bool {
	return NormalizeTime(a).Equal(NormalizeTime(b))
}

// Overlaps uses half-open [start, end) ranges.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
