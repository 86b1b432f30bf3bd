package tui

import (
	"fmt"
	"math"
	"time"
)

// Countdown is the time left until voting closes.
type Countdown struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// NewCountdown splits the distance from now to endTime (epoch seconds).
// A passed deadline yields all zeros.
func NewCountdown(endTime uint64, now time.Time) Countdown {
	end := int64(math.MaxInt64)
	if endTime < math.MaxInt64 {
		end = int64(endTime)
	}
	distance := end - now.Unix()
	if distance < 0 {
		return Countdown{}
	}
	return Countdown{
		Days:    distance / 86400,
		Hours:   distance % 86400 / 3600,
		Minutes: distance % 3600 / 60,
		Seconds: distance % 60,
	}
}

// Zero reports whether no time remains.
func (c Countdown) Zero() bool {
	return c == Countdown{}
}

// String formats the countdown as "01d 02h 03m 04s".
func (c Countdown) String() string {
	return fmt.Sprintf("%02dd %02dh %02dm %02ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
