// Package timers abstracts deferred callback scheduling so the notification
// engine can run against wall-clock timers in production and a fake clock in
// tests.
package timers

import "time"

// Handle cancels a scheduled callback. Stop reports whether the callback was
// prevented from running.
type Handle interface {
	Stop() bool
}

// Scheduler schedules a callback to run once after the given delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

// Wallclock schedules on real time via time.AfterFunc.
type Wallclock struct{}

// AfterFunc implements Scheduler.
func (Wallclock) AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}
