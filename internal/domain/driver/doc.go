// Package driver advances a simulator on a timer.
//
// The simulator itself never ticks on its own and treats pause as a flag.
// A Driver calls Step every interval and skips ticks while the simulator is
// paused.
//
// Example Usage:
//
//	d := driver.New(s, 500*time.Millisecond)
//	go d.Run(ctx)
package driver
