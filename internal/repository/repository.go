package repository

import "time"

// Durations are stored as whole seconds, matching how resolution
// metrics are reported.
func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	s := int64(d.Seconds())
	return &s
}

func secondsDuration(s *int64) *time.Duration {
	if s == nil {
		return nil
	}
	d := time.Duration(*s) * time.Second
	return &d
}

func secondsToDurationValue(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
